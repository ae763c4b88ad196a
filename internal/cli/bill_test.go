package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// seedClient stores one weekday schedule and three visits for c1: a 75
// minute Monday visit, a Saturday visit no schedule covers and a bank
// holiday Tuesday visit that ran 30 minutes against 60 planned.
func seedClient(t *testing.T, dbPath string) {
	t.Helper()
	runCLI(t, dbPath, "rate", "add", "c1", "--id", "weekday",
		"--start", "2026-01-01", "--days", "mon,tue,wed,thu,fri",
		"--from", "07:00", "--until", "19:00", "--type", "hourly",
		"--base", "20", "--multiplier", "1.5", "--vat")
	runCLI(t, dbPath, "visit", "add", "c1", "2026-01-05", "09:00", "10:15", "--id", "v1")
	runCLI(t, dbPath, "visit", "add", "c1", "2026-01-10", "09:00", "10:00", "--id", "v2")
	runCLI(t, dbPath, "visit", "add", "c1", "2026-01-06", "09:00", "10:00", "--id", "v3",
		"--bank-holiday", "--actual-start", "09:00", "--actual-end", "09:30")
}

type billOutput struct {
	BillByActual bool `json:"bill_by_actual"`
	Summary      struct {
		NetAmount     string `json:"net_amount"`
		VATAmount     string `json:"vat_amount"`
		TotalAmount   string `json:"total_amount"`
		VisitsTotal   int    `json:"visits_total"`
		VisitsBilled  int    `json:"visits_billed"`
		VisitsSkipped int    `json:"visits_skipped"`
	} `json:"summary"`
	Lines []struct {
		VisitID string `json:"visit_id"`
	} `json:"lines"`
	Skipped []struct {
		VisitID string `json:"visit_id"`
		Reason  string `json:"reason"`
	} `json:"skipped"`
}

func TestBillPlanned(t *testing.T) {
	dbPath := testEnv(t)
	seedClient(t, dbPath)

	out := runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-01", "--to", "2026-01-31")
	for _, want := range []string{
		"Net:    70.00",
		"VAT:    14.00",
		"Total:  84.00",
		"v2  no_rate",
		"2 of 3 visits billed, 1 skipped (1 no matching rate)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestBillActualJSON(t *testing.T) {
	dbPath := testEnv(t)
	seedClient(t, dbPath)

	out := runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-01", "--to", "2026-01-31", "--actual", "--format", "json")

	var got billOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	if !got.BillByActual {
		t.Error("expected bill_by_actual true")
	}
	if got.Summary.NetAmount != "55" || got.Summary.VATAmount != "11" || got.Summary.TotalAmount != "66" {
		t.Errorf("summary = %+v", got.Summary)
	}
	if got.Summary.VisitsTotal != 3 || got.Summary.VisitsBilled != 2 || got.Summary.VisitsSkipped != 1 {
		t.Errorf("counts = %+v", got.Summary)
	}
	if len(got.Lines) != 2 || got.Lines[0].VisitID != "v1" || got.Lines[1].VisitID != "v3" {
		t.Errorf("lines = %+v", got.Lines)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Reason != "no_rate" {
		t.Errorf("skipped = %+v", got.Skipped)
	}
}

func TestBillByActualFromConfig(t *testing.T) {
	dbPath := testEnv(t)
	seedClient(t, dbPath)
	if err := saveConfig(CLIConfig{BillByActual: true}); err != nil {
		t.Fatalf("save config: %v", err)
	}

	out := runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-01", "--to", "2026-01-31")
	if !strings.Contains(out, "Net:    55.00") {
		t.Errorf("expected actual-time totals:\n%s", out)
	}

	out = runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-01", "--to", "2026-01-31", "--actual=false")
	if !strings.Contains(out, "Net:    70.00") {
		t.Errorf("expected --actual=false to override config:\n%s", out)
	}
}

func TestBillPeriodFilter(t *testing.T) {
	dbPath := testEnv(t)
	seedClient(t, dbPath)

	out := runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-05", "--to", "2026-01-05")
	if !strings.Contains(out, "1 of 1 visits billed, 0 skipped") {
		t.Errorf("expected only the Monday visit:\n%s", out)
	}
}

func TestBillSaveAndShowInvoice(t *testing.T) {
	dbPath := testEnv(t)
	seedClient(t, dbPath)

	out := runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-01", "--to", "2026-01-31",
		"--save", "--note", "January", "--format", "json")
	var saved struct {
		ID   string `json:"id"`
		Note string `json:"note"`
	}
	if err := json.Unmarshal([]byte(out), &saved); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	if saved.ID == "" || saved.Note != "January" {
		t.Fatalf("saved = %+v", saved)
	}

	out = runCLI(t, dbPath, "invoices", "c1")
	if !strings.Contains(out, saved.ID) || !strings.Contains(out, "84.00") {
		t.Errorf("expected invoice in list:\n%s", out)
	}

	out = runCLI(t, dbPath, "invoice", saved.ID)
	for _, want := range []string{"Invoice " + saved.ID, "Period:   2026-01-01 to 2026-01-31", "Total:  84.00", "Skipped:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	runCLI(t, dbPath, "invoice", saved.ID, "--delete")
	if _, err := executeCommand("invoice", saved.ID, "--db", dbPath); err == nil {
		t.Error("expected error showing deleted invoice")
	}
}

func TestVisitsAndRemove(t *testing.T) {
	dbPath := testEnv(t)
	seedClient(t, dbPath)

	out := runCLI(t, dbPath, "visits", "c1", "--from", "2026-01-06")
	if strings.Contains(out, "v1") || !strings.Contains(out, "Total: 2 visits") {
		t.Errorf("unexpected visits output:\n%s", out)
	}

	runCLI(t, dbPath, "visit", "remove", "v2")
	out = runCLI(t, dbPath, "visits", "c1", "--format", "json")
	var visits []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(out), &visits); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	if len(visits) != 2 {
		t.Errorf("got %d visits after remove, want 2", len(visits))
	}

	if _, err := executeCommand("visit", "remove", "v2", "--db", dbPath); err == nil {
		t.Error("expected error removing missing visit")
	}
}

func TestVisitAddRejectsReversedTimes(t *testing.T) {
	dbPath := testEnv(t)
	if _, err := executeCommand("visit", "add", "c1", "2026-01-05", "11:00", "10:00", "--db", dbPath); err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestRateLifecycle(t *testing.T) {
	dbPath := testEnv(t)
	seedClient(t, dbPath)

	out := runCLI(t, dbPath, "rate", "add", "c1", "--id", "weekend",
		"--start", "2026-01-01", "--days", "sat,sun",
		"--from", "07:00", "--until", "19:00", "--base", "25")
	if strings.Contains(out, "warning") {
		t.Errorf("unexpected overlap warning:\n%s", out)
	}

	out = runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-01", "--to", "2026-01-31")
	if !strings.Contains(out, "3 of 3 visits billed") {
		t.Errorf("expected weekend schedule to price v2:\n%s", out)
	}

	runCLI(t, dbPath, "rate", "disable", "weekend")
	out = runCLI(t, dbPath, "rates", "c1")
	if !strings.Contains(out, "inactive") {
		t.Errorf("expected inactive schedule:\n%s", out)
	}
	out = runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-01", "--to", "2026-01-31")
	if !strings.Contains(out, "2 of 3 visits billed") {
		t.Errorf("expected disabled schedule to be ignored:\n%s", out)
	}

	runCLI(t, dbPath, "rate", "enable", "weekend")
	runCLI(t, dbPath, "rate", "remove", "weekend")
	out = runCLI(t, dbPath, "rates", "c1", "--format", "json")
	if strings.Contains(out, "weekend") {
		t.Errorf("expected schedule removed:\n%s", out)
	}
}

func TestRateAddWarnsOnOverlap(t *testing.T) {
	dbPath := testEnv(t)
	seedClient(t, dbPath)

	out := runCLI(t, dbPath, "rate", "add", "c1", "--id", "mornings",
		"--start", "2026-01-01", "--days", "monday",
		"--from", "08:00", "--until", "12:00", "--base", "30")
	if !strings.Contains(out, "warning: schedules weekday and mornings overlap") {
		t.Errorf("expected overlap warning:\n%s", out)
	}

	out = runCLI(t, dbPath, "rate", "add", "c1", "--id", "urgent", "--priority", "5",
		"--start", "2026-01-01", "--days", "mon",
		"--from", "08:00", "--until", "12:00", "--base", "40", "--format", "json")
	var res struct {
		Overlaps []struct {
			First  string `json:"first"`
			Second string `json:"second"`
		} `json:"overlaps"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	for _, o := range res.Overlaps {
		if o.First == "urgent" || o.Second == "urgent" {
			t.Errorf("higher priority schedule reported as overlap: %+v", o)
		}
	}
}

func TestImportCommand(t *testing.T) {
	dbPath := testEnv(t)
	file := filepath.Join(t.TempDir(), "data.yaml")
	data := `
rates:
  - {id: weekday, client: c1, start_date: 2026-01-01, days: [mon, tue, wed, thu, fri], from: "07:00", until: "19:00", type: hourly, base_rate: 20, vat: true}
visits:
  - {id: v1, client: c1, date: 2026-01-05, start: "09:00", end: "10:15"}
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := runCLI(t, dbPath, "import", file)
	if !strings.Contains(out, "Imported 1 rate schedules and 1 visits.") {
		t.Errorf("output = %q", out)
	}

	out = runCLI(t, dbPath, "bill", "c1", "--from", "2026-01-01", "--to", "2026-01-31")
	if !strings.Contains(out, "Total:  48.00") {
		t.Errorf("expected imported data to bill:\n%s", out)
	}

	if _, err := executeCommand("import", filepath.Join(t.TempDir(), "missing.yaml"), "--db", dbPath); err == nil {
		t.Error("expected error for missing file")
	}
}
