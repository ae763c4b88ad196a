package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/care-billing/internal/db"
)

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	DBPath       string `yaml:"db_path,omitempty"`
	BillByActual bool   `yaml:"bill_by_actual,omitempty"`
	DevLogging   *bool  `yaml:"dev_logging,omitempty"`
}

// devLogging reports whether logs use the colored handler. Unset means yes.
func (c CLIConfig) devLogging() bool {
	return c.DevLogging == nil || *c.DevLogging
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cb", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// dbPath returns the database path from flag, env var, config, or default.
func dbPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	if v := os.Getenv("CB_DB"); v != "" {
		return v, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return db.DefaultPath()
}

// getBillByActual returns the billing basis from env var or config.
// An explicit --actual flag is handled by the caller.
func getBillByActual() (bool, error) {
	if v := os.Getenv("CB_BILL_BY_ACTUAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("invalid CB_BILL_BY_ACTUAL %q: %w", v, err)
		}
		return b, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return false, err
	}
	return cfg.BillByActual, nil
}
