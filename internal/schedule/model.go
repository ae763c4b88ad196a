// Package schedule stores client rate schedules and converts them into the
// form the billing engine resolves against.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evcraddock/care-billing/internal/billing"
)

// Schedule is a stored rate schedule.
type Schedule struct {
	ID                    string             `json:"id"`
	ClientID              string             `json:"client_id"`
	Name                  string             `json:"name"`
	StartDate             string             `json:"start_date"`
	EndDate               *string            `json:"end_date,omitempty"`
	IsActive              bool               `json:"is_active"`
	Days                  []string           `json:"days"`
	TimeFrom              string             `json:"time_from"`
	TimeUntil             string             `json:"time_until"`
	ChargeType            billing.ChargeType `json:"charge_type"`
	BaseRate              decimal.Decimal    `json:"base_rate"`
	Rate15                *decimal.Decimal   `json:"rate_15,omitempty"`
	Rate30                *decimal.Decimal   `json:"rate_30,omitempty"`
	Rate45                *decimal.Decimal   `json:"rate_45,omitempty"`
	Rate60                *decimal.Decimal   `json:"rate_60,omitempty"`
	BankHolidayMultiplier *decimal.Decimal   `json:"bank_holiday_multiplier,omitempty"`
	IsVatable             bool               `json:"is_vatable"`
	Priority              int                `json:"priority"`
	CreatedAt             time.Time          `json:"created_at"`
}

// ToBilling converts the record into engine input.
func (s *Schedule) ToBilling() (billing.RateSchedule, error) {
	start, err := billing.ParseDate(s.StartDate)
	if err != nil {
		return billing.RateSchedule{}, fmt.Errorf("start date: %w", err)
	}
	var end *time.Time
	if s.EndDate != nil && *s.EndDate != "" {
		e, err := billing.ParseDate(*s.EndDate)
		if err != nil {
			return billing.RateSchedule{}, fmt.Errorf("end date: %w", err)
		}
		end = &e
	}
	from, err := billing.ParseTimeOfDay(s.TimeFrom)
	if err != nil {
		return billing.RateSchedule{}, fmt.Errorf("time from: %w", err)
	}
	until, err := billing.ParseTimeOfDay(s.TimeUntil)
	if err != nil {
		return billing.RateSchedule{}, fmt.Errorf("time until: %w", err)
	}

	days := make([]string, len(s.Days))
	for i, d := range s.Days {
		days[i] = strings.ToLower(strings.TrimSpace(d))
	}

	return billing.RateSchedule{
		ID:                    s.ID,
		ClientID:              s.ClientID,
		StartDate:             start,
		EndDate:               end,
		IsActive:              s.IsActive,
		Days:                  days,
		TimeFrom:              from,
		TimeUntil:             until,
		ChargeType:            s.ChargeType,
		BaseRate:              s.BaseRate,
		Rate15:                s.Rate15,
		Rate30:                s.Rate30,
		Rate45:                s.Rate45,
		Rate60:                s.Rate60,
		BankHolidayMultiplier: s.BankHolidayMultiplier,
		IsVatable:             s.IsVatable,
		Priority:              s.Priority,
	}, nil
}

// Validate checks the record before it is stored. Unknown charge types are
// rejected here even though the engine tolerates them.
func (s *Schedule) Validate() error {
	if s.ClientID == "" {
		return fmt.Errorf("client id is required")
	}
	if len(s.Days) == 0 {
		return fmt.Errorf("at least one day is required")
	}
	for _, d := range s.Days {
		if !billing.IsKnownDay(d) {
			return fmt.Errorf("unknown day %q", d)
		}
	}
	if !s.ChargeType.IsValid() {
		return fmt.Errorf("invalid charge type: %q", s.ChargeType)
	}
	if s.BaseRate.IsNegative() {
		return fmt.Errorf("base rate must not be negative")
	}
	if s.BankHolidayMultiplier != nil && !s.BankHolidayMultiplier.IsPositive() {
		return fmt.Errorf("bank holiday multiplier must be positive")
	}

	r, err := s.ToBilling()
	if err != nil {
		return err
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("end date %s before start date %s", *s.EndDate, s.StartDate)
	}
	// Windows do not wrap past midnight; an inverted one could never match.
	if r.TimeFrom > r.TimeUntil {
		return fmt.Errorf("time until %s before time from %s", s.TimeUntil, s.TimeFrom)
	}
	return nil
}

// ToBillingAll converts a client's schedules, keeping their order.
func ToBillingAll(schedules []*Schedule) ([]billing.RateSchedule, error) {
	out := make([]billing.RateSchedule, 0, len(schedules))
	for _, s := range schedules {
		r, err := s.ToBilling()
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", s.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}
