package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// roundingThreshold is the duration above which visits bill in whole hours.
const roundingThreshold = 60

var minutesPerHour = decimal.NewFromInt(60)

// Calculator prices visits. BillByActual selects recorded actual times over
// planned times for the whole run.
type Calculator struct {
	BillByActual bool
}

// NewCalculator creates a calculator for one billing run.
func NewCalculator(billByActual bool) *Calculator {
	return &Calculator{BillByActual: billByActual}
}

// CalculateLine prices a single visit against its resolved rate.
// A nil rate returns ErrNoApplicableRate.
func (c *Calculator) CalculateLine(v Visit, rate *RateSchedule) (*BillingCalculation, error) {
	if rate == nil {
		return nil, ErrNoApplicableRate
	}

	planned, err := minutesBetween(v.PlannedStart, v.PlannedEnd)
	if err != nil {
		return nil, fmt.Errorf("planned time: %w", err)
	}

	actual := planned
	if v.ActualStart != nil || v.ActualEnd != nil {
		if !v.HasActual() {
			return nil, fmt.Errorf("actual time: %w: only one bound recorded", ErrInvalidDuration)
		}
		actual, err = minutesBetween(*v.ActualStart, *v.ActualEnd)
		if err != nil {
			return nil, fmt.Errorf("actual time: %w", err)
		}
	}

	billing := planned
	if c.BillByActual {
		billing = actual
	}

	applies60 := false
	if billing > roundingThreshold {
		billing = roundUpToHour(billing)
		applies60 = true
	}

	multiplier := decimal.NewFromInt(1)
	if v.IsBankHoliday {
		multiplier = rate.Multiplier()
	}

	unit := unitRate(*rate, billing)

	// unit × (minutes / 60) × multiplier, dividing last to keep exact cents
	// whenever the result is representable.
	total := unit.Mul(decimal.NewFromInt(int64(billing))).Mul(multiplier).Div(minutesPerHour)

	vat := decimal.Zero
	if rate.IsVatable {
		vat = total.Mul(VATRate)
	}

	return &BillingCalculation{
		VisitID:                v.ID,
		Description:            c.describe(v, billing, multiplier),
		Date:                   v.Date,
		PlannedDurationMinutes: planned,
		ActualDurationMinutes:  actual,
		BillingDurationMinutes: billing,
		RateType:               rate.ChargeType,
		BaseRate:               rate.BaseRate,
		Multiplier:             multiplier,
		UnitRate:               unit,
		LineTotal:              total,
		IsVatable:              rate.IsVatable,
		VATAmount:              vat,
		IsBankHoliday:          v.IsBankHoliday,
		Applies60MinRule:       applies60,
	}, nil
}

func roundUpToHour(minutes int) int {
	return (minutes + 59) / 60 * 60
}

// unitRate picks the hourly figure for a schedule. Unknown charge types fall
// back to the base rate.
func unitRate(r RateSchedule, billingMinutes int) decimal.Decimal {
	if r.ChargeType != ChargeTieredFlat {
		return r.BaseRate
	}

	tiers := []struct {
		limit int
		rate  *decimal.Decimal
	}{
		{15, r.Rate15},
		{30, r.Rate30},
		{45, r.Rate45},
		{60, r.Rate60},
	}
	for _, t := range tiers {
		if billingMinutes <= t.limit && t.rate != nil {
			return *t.rate
		}
	}
	return r.BaseRate
}

// describe renders e.g.
// "Care visit Mon 05 Jan 2026, 09:00-10:15, 75 mins (planned), Bank holiday x1.5".
func (c *Calculator) describe(v Visit, billingMinutes int, multiplier decimal.Decimal) string {
	start, end := v.PlannedStart, v.PlannedEnd
	minutes, _ := minutesBetween(start, end)
	tag := "planned"
	if c.BillByActual {
		tag = "actual"
		if v.HasActual() {
			start, end = *v.ActualStart, *v.ActualEnd
			minutes, _ = minutesBetween(start, end)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Care visit %s, %s-%s, %d mins (%s)",
		v.Date.Format("Mon 02 Jan 2006"), start, end, minutes, tag)
	if billingMinutes != minutes {
		fmt.Fprintf(&b, ", billed as %d mins", billingMinutes)
	}
	if v.IsBankHoliday {
		fmt.Fprintf(&b, ", Bank holiday x%s", multiplier.String())
	}
	return b.String()
}
