// Package visit provides the care visit record and its data access.
package visit

import (
	"fmt"
	"time"

	"github.com/evcraddock/care-billing/internal/billing"
)

// Visit is a stored care visit. Times are kept as the HH:MM strings they
// were recorded with.
type Visit struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"client_id"`
	VisitDate     string    `json:"visit_date"` // YYYY-MM-DD
	PlannedStart  string    `json:"planned_start"`
	PlannedEnd    string    `json:"planned_end"`
	ActualStart   *string   `json:"actual_start,omitempty"`
	ActualEnd     *string   `json:"actual_end,omitempty"`
	IsBankHoliday bool      `json:"is_bank_holiday"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToBilling converts the record into engine input.
func (v *Visit) ToBilling() (billing.Visit, error) {
	date, err := billing.ParseDate(v.VisitDate)
	if err != nil {
		return billing.Visit{}, err
	}
	start, err := billing.ParseTimeOfDay(v.PlannedStart)
	if err != nil {
		return billing.Visit{}, fmt.Errorf("planned start: %w", err)
	}
	end, err := billing.ParseTimeOfDay(v.PlannedEnd)
	if err != nil {
		return billing.Visit{}, fmt.Errorf("planned end: %w", err)
	}

	bv := billing.Visit{
		ID:            v.ID,
		ClientID:      v.ClientID,
		Date:          date,
		PlannedStart:  start,
		PlannedEnd:    end,
		IsBankHoliday: v.IsBankHoliday,
	}
	if bv.ActualStart, err = parseOptional(v.ActualStart); err != nil {
		return billing.Visit{}, fmt.Errorf("actual start: %w", err)
	}
	if bv.ActualEnd, err = parseOptional(v.ActualEnd); err != nil {
		return billing.Visit{}, fmt.Errorf("actual end: %w", err)
	}
	return bv, nil
}

func parseOptional(s *string) (*billing.TimeOfDay, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := billing.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that the record can be priced: dates and times parse and
// no range ends before it starts.
func (v *Visit) Validate() error {
	if v.ClientID == "" {
		return fmt.Errorf("client id is required")
	}
	bv, err := v.ToBilling()
	if err != nil {
		return err
	}
	if bv.PlannedEnd < bv.PlannedStart {
		return fmt.Errorf("%w: planned end %s before start %s", billing.ErrInvalidDuration, bv.PlannedEnd, bv.PlannedStart)
	}
	if (bv.ActualStart == nil) != (bv.ActualEnd == nil) {
		return fmt.Errorf("%w: actual start and end must be recorded together", billing.ErrInvalidDuration)
	}
	if bv.HasActual() && *bv.ActualEnd < *bv.ActualStart {
		return fmt.Errorf("%w: actual end %s before start %s", billing.ErrInvalidDuration, *bv.ActualEnd, *bv.ActualStart)
	}
	return nil
}
