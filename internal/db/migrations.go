package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Money columns are TEXT holding decimal strings so no precision is lost.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS visits (
		id              TEXT    PRIMARY KEY,
		client_id       TEXT    NOT NULL,
		visit_date      TEXT    NOT NULL,
		planned_start   TEXT    NOT NULL,
		planned_end     TEXT    NOT NULL,
		actual_start    TEXT,
		actual_end      TEXT,
		is_bank_holiday INTEGER NOT NULL DEFAULT 0,
		notes           TEXT    NOT NULL DEFAULT '',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visits_client_date ON visits(client_id, visit_date)`,
	`CREATE TABLE IF NOT EXISTS rate_schedules (
		seq                     INTEGER PRIMARY KEY AUTOINCREMENT,
		id                      TEXT    NOT NULL UNIQUE,
		client_id               TEXT    NOT NULL,
		name                    TEXT    NOT NULL DEFAULT '',
		start_date              TEXT    NOT NULL,
		end_date                TEXT,
		is_active               INTEGER NOT NULL DEFAULT 1,
		days                    TEXT    NOT NULL,
		time_from               TEXT    NOT NULL,
		time_until              TEXT    NOT NULL,
		charge_type             TEXT    NOT NULL,
		base_rate               TEXT    NOT NULL,
		rate_15                 TEXT,
		rate_30                 TEXT,
		rate_45                 TEXT,
		rate_60                 TEXT,
		bank_holiday_multiplier TEXT,
		is_vatable              INTEGER NOT NULL DEFAULT 0,
		priority                INTEGER NOT NULL DEFAULT 0,
		created_at              DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rate_schedules_client ON rate_schedules(client_id)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id                    TEXT    PRIMARY KEY,
		client_id             TEXT    NOT NULL,
		period_start          TEXT    NOT NULL,
		period_end            TEXT    NOT NULL,
		bill_by_actual        INTEGER NOT NULL DEFAULT 0,
		net_amount            TEXT    NOT NULL,
		vat_amount            TEXT    NOT NULL,
		total_amount          TEXT    NOT NULL,
		total_billing_minutes INTEGER NOT NULL,
		visits_total          INTEGER NOT NULL,
		visits_billed         INTEGER NOT NULL,
		visits_skipped        INTEGER NOT NULL,
		created_at            DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_lines (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id       TEXT    NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		visit_id         TEXT    NOT NULL,
		description      TEXT    NOT NULL,
		visit_date       TEXT    NOT NULL,
		planned_minutes  INTEGER NOT NULL,
		actual_minutes   INTEGER NOT NULL,
		billing_minutes  INTEGER NOT NULL,
		rate_type        TEXT    NOT NULL,
		base_rate        TEXT    NOT NULL,
		multiplier       TEXT    NOT NULL,
		unit_rate        TEXT    NOT NULL,
		line_total       TEXT    NOT NULL,
		is_vatable       INTEGER NOT NULL,
		vat_amount       TEXT    NOT NULL,
		is_bank_holiday  INTEGER NOT NULL,
		applies_60_rule  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_skips (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id TEXT    NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		visit_id   TEXT    NOT NULL,
		reason     TEXT    NOT NULL,
		detail     TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_lines_invoice ON invoice_lines(invoice_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_skips_invoice ON invoice_skips(invoice_id)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"invoices", "note", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) (err error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	found := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating columns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing rows: %w", err)
	}
	if found {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
