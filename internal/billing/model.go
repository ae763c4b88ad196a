// Package billing resolves client rate schedules for care visits and turns
// them into priced invoice line items. It performs no I/O and keeps no state
// between calls, so a Calculator may be shared across goroutines.
package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoApplicableRate means no schedule covers the visit.
	ErrNoApplicableRate = errors.New("no applicable rate")

	// ErrInvalidDuration means a visit's end time precedes its start time,
	// or an actual time range is only half recorded.
	ErrInvalidDuration = errors.New("invalid visit duration")

	// ErrInvalidTime means a time-of-day string could not be parsed.
	ErrInvalidTime = errors.New("invalid time of day")
)

// VATRate is the fixed VAT percentage applied to vatable line items.
var VATRate = decimal.NewFromFloat(0.20)

// BankHolidayToken marks a schedule as covering bank holidays in Days.
const BankHolidayToken = "bank_holiday"

// ChargeType determines how a schedule's unit rate is chosen.
type ChargeType string

const (
	ChargeProRata    ChargeType = "pro_rata"
	ChargeHourly     ChargeType = "hourly"
	ChargeDailyFlat  ChargeType = "daily_flat"
	ChargeTieredFlat ChargeType = "tiered_flat"
)

// ValidChargeTypes is the set of recognized charge types.
var ValidChargeTypes = []ChargeType{ChargeProRata, ChargeHourly, ChargeDailyFlat, ChargeTieredFlat}

// IsValid checks if a charge type is recognized.
func (c ChargeType) IsValid() bool {
	for _, v := range ValidChargeTypes {
		if c == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the charge type.
func (c ChargeType) Label() string {
	switch c {
	case ChargeProRata:
		return "Pro rata"
	case ChargeHourly:
		return "Hourly"
	case ChargeDailyFlat:
		return "Daily flat"
	case ChargeTieredFlat:
		return "Tiered flat"
	default:
		return string(c)
	}
}

// Visit is a scheduled unit of care. ActualStart and ActualEnd are set once
// the visit has taken place.
type Visit struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	Date          time.Time  `json:"date"`
	PlannedStart  TimeOfDay  `json:"planned_start"`
	PlannedEnd    TimeOfDay  `json:"planned_end"`
	ActualStart   *TimeOfDay `json:"actual_start,omitempty"`
	ActualEnd     *TimeOfDay `json:"actual_end,omitempty"`
	IsBankHoliday bool       `json:"is_bank_holiday"`
}

// HasActual reports whether both actual bounds were recorded.
func (v Visit) HasActual() bool {
	return v.ActualStart != nil && v.ActualEnd != nil
}

// RateSchedule is a client-specific pricing rule scoped by validity dates,
// days of the week and a time-of-day window.
type RateSchedule struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"` // nil = open-ended
	IsActive  bool       `json:"is_active"`

	// Days holds lowercase day names ("monday" or "mon") and optionally
	// BankHolidayToken.
	Days      []string  `json:"days"`
	TimeFrom  TimeOfDay `json:"time_from"`
	TimeUntil TimeOfDay `json:"time_until"`

	ChargeType ChargeType       `json:"charge_type"`
	BaseRate   decimal.Decimal  `json:"base_rate"`
	Rate15     *decimal.Decimal `json:"rate_15,omitempty"`
	Rate30     *decimal.Decimal `json:"rate_30,omitempty"`
	Rate45     *decimal.Decimal `json:"rate_45,omitempty"`
	Rate60     *decimal.Decimal `json:"rate_60,omitempty"`

	// BankHolidayMultiplier defaults to 1 when nil.
	BankHolidayMultiplier *decimal.Decimal `json:"bank_holiday_multiplier,omitempty"`
	IsVatable             bool             `json:"is_vatable"`

	// Priority orders overlapping schedules; higher wins. Equal priorities
	// keep the caller's order.
	Priority int `json:"priority"`
}

// Multiplier returns the bank holiday multiplier, defaulting to 1.
func (r RateSchedule) Multiplier() decimal.Decimal {
	if r.BankHolidayMultiplier == nil {
		return decimal.NewFromInt(1)
	}
	return *r.BankHolidayMultiplier
}

// CoversDay reports whether Days contains name, case-insensitively.
func (r RateSchedule) CoversDay(name string) bool {
	for _, d := range r.Days {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return true
		}
	}
	return false
}

// BillingCalculation is the priced line item for a single visit.
type BillingCalculation struct {
	VisitID                string          `json:"visit_id"`
	Description            string          `json:"description"`
	Date                   time.Time       `json:"date"`
	PlannedDurationMinutes int             `json:"planned_duration_minutes"`
	ActualDurationMinutes  int             `json:"actual_duration_minutes"`
	BillingDurationMinutes int             `json:"billing_duration_minutes"`
	RateType               ChargeType      `json:"rate_type"`
	BaseRate               decimal.Decimal `json:"base_rate"`
	Multiplier             decimal.Decimal `json:"multiplier"`
	UnitRate               decimal.Decimal `json:"unit_rate"`
	LineTotal              decimal.Decimal `json:"line_total"`
	IsVatable              bool            `json:"is_vatable"`
	VATAmount              decimal.Decimal `json:"vat_amount"`
	IsBankHoliday          bool            `json:"is_bank_holiday"`
	Applies60MinRule       bool            `json:"applies_60_min_rule"`
}

// BillingSummary aggregates a set of line items.
type BillingSummary struct {
	NetAmount           decimal.Decimal `json:"net_amount"`
	VATAmount           decimal.Decimal `json:"vat_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	TotalBillingMinutes int             `json:"total_billing_minutes"`
	TotalBillableHours  int             `json:"total_billable_hours"` // floor(minutes / 60)
	VisitsTotal         int             `json:"visits_total"`
	VisitsBilled        int             `json:"visits_billed"`
	VisitsSkipped       int             `json:"visits_skipped"`
}
