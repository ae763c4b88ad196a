package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	// Use a temp dir as home
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	off := false
	cfg := CLIConfig{
		DBPath:       "/srv/billing/cb.db",
		BillByActual: true,
		DevLogging:   &off,
	}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Verify file exists
	path := filepath.Join(tmp, ".config", "cb", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DBPath != cfg.DBPath {
		t.Errorf("db_path = %q, want %q", loaded.DBPath, cfg.DBPath)
	}
	if !loaded.BillByActual {
		t.Error("expected bill_by_actual true")
	}
	if loaded.devLogging() {
		t.Error("expected dev logging off")
	}
}

func TestConfigLoadMissing(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.DBPath != "" || cfg.BillByActual || cfg.DevLogging != nil {
		t.Error("expected zero-value config for missing file")
	}
	if !cfg.devLogging() {
		t.Error("expected dev logging by default")
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dir := filepath.Join(tmp, ".config", "cb")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("bill_by_actual: [\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := loadConfig(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestDBPathPrecedence(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("CB_DB", "")
	flagDB = ""
	t.Cleanup(func() { flagDB = "" })

	path, err := dbPath()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if path != filepath.Join(tmp, ".care-billing", "billing.db") {
		t.Errorf("default path = %q", path)
	}

	if err := saveConfig(CLIConfig{DBPath: "/from/config.db"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if path, _ = dbPath(); path != "/from/config.db" {
		t.Errorf("config path = %q", path)
	}

	t.Setenv("CB_DB", "/from/env.db")
	if path, _ = dbPath(); path != "/from/env.db" {
		t.Errorf("env path = %q", path)
	}

	flagDB = "/from/flag.db"
	if path, _ = dbPath(); path != "/from/flag.db" {
		t.Errorf("flag path = %q", path)
	}
}

func TestGetBillByActual(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("CB_BILL_BY_ACTUAL", "")

	if got, err := getBillByActual(); err != nil || got {
		t.Errorf("default = %v, %v; want false", got, err)
	}

	if err := saveConfig(CLIConfig{BillByActual: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, err := getBillByActual(); err != nil || !got {
		t.Errorf("config = %v, %v; want true", got, err)
	}

	t.Setenv("CB_BILL_BY_ACTUAL", "false")
	if got, err := getBillByActual(); err != nil || got {
		t.Errorf("env = %v, %v; want false", got, err)
	}

	t.Setenv("CB_BILL_BY_ACTUAL", "sometimes")
	if _, err := getBillByActual(); err == nil {
		t.Error("expected error for invalid env value")
	}
}
