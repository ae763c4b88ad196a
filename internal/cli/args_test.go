package cli

import (
	"testing"
)

func TestVisitAddRequiresFourArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"visit", "add"}},
		{"client only", []string{"visit", "add", "c1"}},
		{"no end", []string{"visit", "add", "c1", "2026-01-05", "09:00"}},
		{"extra", []string{"visit", "add", "c1", "2026-01-05", "09:00", "10:00", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEnv(t)
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestVisitRemoveRequiresID(t *testing.T) {
	testEnv(t)
	_, err := executeCommand("visit", "remove")
	if err == nil {
		t.Fatal("expected error when no ID provided")
	}
}

func TestVisitsRequiresClient(t *testing.T) {
	testEnv(t)
	_, err := executeCommand("visits")
	if err == nil {
		t.Fatal("expected error when no client provided")
	}
}

func TestVisitsRejectsBadRange(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad from", []string{"--from", "05/01/2026"}},
		{"bad to", []string{"--to", "2026-13-01"}},
		{"reversed", []string{"--from", "2026-02-01", "--to", "2026-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := testEnv(t)
			args := append([]string{"visits", "c1", "--db", dbPath}, tt.args...)
			if _, err := executeCommand(args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRateAddRequiresFlags(t *testing.T) {
	dbPath := testEnv(t)
	_, err := executeCommand("rate", "add", "c1", "--db", dbPath, "--start", "2026-01-01")
	if err == nil {
		t.Fatal("expected error for missing required flags")
	}
}

func TestRateAddRejectsInvalidNumbers(t *testing.T) {
	tests := []struct {
		name string
		flag string
	}{
		{"base", "--base=abc"},
		{"tier", "--rate15=ten"},
		{"multiplier", "--multiplier=1.5x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := testEnv(t)
			args := []string{
				"rate", "add", "c1", "--db", dbPath,
				"--start", "2026-01-01", "--days", "mon", "--from", "07:00", "--until", "19:00", "--base", "20",
				tt.flag,
			}
			if _, err := executeCommand(args...); err == nil {
				t.Fatal("expected error for invalid number")
			}
		})
	}
}

func TestBillRequiresPeriod(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no client", []string{"bill", "--from", "2026-01-01", "--to", "2026-01-31"}},
		{"no from", []string{"bill", "c1", "--to", "2026-01-31"}},
		{"no to", []string{"bill", "c1", "--from", "2026-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := testEnv(t)
			if _, err := executeCommand(append(tt.args, "--db", dbPath)...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestImportRequiresFile(t *testing.T) {
	testEnv(t)
	if _, err := executeCommand("import"); err == nil {
		t.Fatal("expected error when no file provided")
	}
}

func TestInvoiceRequiresID(t *testing.T) {
	testEnv(t)
	if _, err := executeCommand("invoice"); err == nil {
		t.Fatal("expected error when no ID provided")
	}
	if _, err := executeCommand("invoices"); err == nil {
		t.Fatal("expected error when no client provided")
	}
}
