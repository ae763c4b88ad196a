package schedule

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/evcraddock/care-billing/internal/billing"
	"github.com/evcraddock/care-billing/internal/db"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func weekday() *Schedule {
	return &Schedule{
		ClientID:   "c1",
		Name:       "Weekday days",
		StartDate:  "2026-01-01",
		IsActive:   true,
		Days:       []string{"Mon", "tue", "wednesday", "thu", "fri"},
		TimeFrom:   "07:00",
		TimeUntil:  "19:00",
		ChargeType: billing.ChargeHourly,
		BaseRate:   decimal.RequireFromString("21.50"),
	}
}

func TestAddAndGet(t *testing.T) {
	repo := testSetup(t)

	in := weekday()
	in.Rate15 = decPtr("6.25")
	in.BankHolidayMultiplier = decPtr("1.5")
	in.IsVatable = true
	end := "2026-12-31"
	in.EndDate = &end

	s, err := repo.Add(in)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if s.ID == "" {
		t.Error("expected generated ID")
	}
	if !s.BaseRate.Equal(decimal.RequireFromString("21.5")) {
		t.Errorf("base_rate = %s, want 21.5", s.BaseRate)
	}
	if s.Rate15 == nil || !s.Rate15.Equal(decimal.RequireFromString("6.25")) {
		t.Errorf("rate_15 = %v, want 6.25", s.Rate15)
	}
	if s.Rate30 != nil {
		t.Errorf("rate_30 = %v, want nil", s.Rate30)
	}
	if s.BankHolidayMultiplier == nil || !s.BankHolidayMultiplier.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("multiplier = %v, want 1.5", s.BankHolidayMultiplier)
	}
	if s.EndDate == nil || *s.EndDate != end {
		t.Errorf("end_date = %v, want %s", s.EndDate, end)
	}
	if len(s.Days) != 5 || s.Days[0] != "mon" {
		t.Errorf("days = %v, want normalized lowercase", s.Days)
	}
	if !s.IsVatable || !s.IsActive {
		t.Error("expected vatable and active flags to round-trip")
	}
}

func TestAddInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Schedule)
	}{
		{"missing client", func(s *Schedule) { s.ClientID = "" }},
		{"no days", func(s *Schedule) { s.Days = nil }},
		{"unknown day", func(s *Schedule) { s.Days = []string{"funday"} }},
		{"bad charge type", func(s *Schedule) { s.ChargeType = "weekly" }},
		{"negative rate", func(s *Schedule) { s.BaseRate = decimal.NewFromInt(-1) }},
		{"zero multiplier", func(s *Schedule) { s.BankHolidayMultiplier = decPtr("0") }},
		{"bad time", func(s *Schedule) { s.TimeFrom = "7am" }},
		{"window past midnight", func(s *Schedule) { s.TimeFrom, s.TimeUntil = "22:00", "06:00" }},
		{"end before start", func(s *Schedule) {
			end := "2025-12-31"
			s.EndDate = &end
		}},
	}

	repo := testSetup(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := weekday()
			tt.mutate(s)
			if _, err := repo.Add(s); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestListByClientOrder(t *testing.T) {
	repo := testSetup(t)

	first := weekday()
	first.ID = "first"
	second := weekday()
	second.ID = "second"
	urgent := weekday()
	urgent.ID = "urgent"
	urgent.Priority = 5
	other := weekday()
	other.ID = "other"
	other.ClientID = "c2"

	for _, s := range []*Schedule{first, second, urgent, other} {
		if _, err := repo.Add(s); err != nil {
			t.Fatalf("add %s: %v", s.ID, err)
		}
	}

	list, err := repo.ListByClient("c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	want := []string{"urgent", "first", "second"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}
}

func TestSetActiveAndDelete(t *testing.T) {
	repo := testSetup(t)

	s, err := repo.Add(weekday())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := repo.SetActive(s.ID, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	got, err := repo.GetByID(s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive {
		t.Error("expected schedule to be inactive")
	}

	if err := repo.Delete(s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(s.ID); err == nil {
		t.Error("expected error deleting missing schedule")
	}
	if err := repo.SetActive("missing", true); err == nil {
		t.Error("expected error for missing schedule")
	}
}

func TestToBilling(t *testing.T) {
	s := weekday()
	s.Days = []string{" Sat ", "BANK_HOLIDAY"}

	r, err := s.ToBilling()
	if err != nil {
		t.Fatalf("to billing: %v", err)
	}
	if r.EndDate != nil {
		t.Error("expected open-ended schedule")
	}
	if r.Days[0] != "sat" || r.Days[1] != billing.BankHolidayToken {
		t.Errorf("days = %v", r.Days)
	}
	if r.TimeUntil != billing.NewTimeOfDay(19, 0, 0) {
		t.Errorf("time_until = %s", r.TimeUntil)
	}
	if !r.Multiplier().Equal(decimal.NewFromInt(1)) {
		t.Errorf("default multiplier = %s, want 1", r.Multiplier())
	}
}

func testSetup(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}
