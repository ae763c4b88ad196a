package schedule

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evcraddock/care-billing/internal/billing"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Repository provides CRUD operations for rate schedules.
type Repository struct {
	db DBTX
}

// NewRepository creates a schedule repository. Pass a *sql.Tx to group writes
// into one transaction.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO rate_schedules
	(id, client_id, name, start_date, end_date, is_active, days, time_from, time_until,
	 charge_type, base_rate, rate_15, rate_30, rate_45, rate_60, bank_holiday_multiplier, is_vatable, priority)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, client_id, name, start_date, end_date, is_active, days, time_from, time_until,
	charge_type, base_rate, rate_15, rate_30, rate_45, rate_60, bank_holiday_multiplier, is_vatable, priority, created_at`

// Add validates and stores a schedule, assigning an ID if it has none.
func (r *Repository) Add(s *Schedule) (*Schedule, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	var endDate interface{}
	if s.EndDate != nil && *s.EndDate != "" {
		endDate = *s.EndDate
	}

	_, err := r.db.Exec(insertSQL,
		s.ID, s.ClientID, s.Name, s.StartDate, endDate, s.IsActive,
		strings.Join(normalizeDays(s.Days), ","), s.TimeFrom, s.TimeUntil,
		string(s.ChargeType), s.BaseRate, s.Rate15, s.Rate30, s.Rate45, s.Rate60,
		s.BankHolidayMultiplier, s.IsVatable, s.Priority,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting schedule: %w", err)
	}

	return r.GetByID(s.ID)
}

// GetByID returns a schedule by its ID.
func (r *Repository) GetByID(id string) (*Schedule, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM rate_schedules WHERE id = ?", selectColumns), id)

	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schedule %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying schedule %s: %w", id, err)
	}
	return s, nil
}

// ListByClient returns a client's schedules in resolution order: highest
// priority first, then the order they were added.
func (r *Repository) ListByClient(clientID string) (schedules []*Schedule, err error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT %s FROM rate_schedules WHERE client_id = ? ORDER BY priority DESC, seq", selectColumns),
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedules: %w", err)
	}

	return schedules, nil
}

// SetActive enables or disables a schedule.
func (r *Repository) SetActive(id string, active bool) error {
	return r.execOne("UPDATE rate_schedules SET is_active = ? WHERE id = ?", id, active, id)
}

// Delete removes a schedule by ID.
func (r *Repository) Delete(id string) error {
	return r.execOne("DELETE FROM rate_schedules WHERE id = ?", id, id)
}

func (r *Repository) execOne(query, id string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("schedule %s not found", id)
	}

	return nil
}

func normalizeDays(days []string) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func scanSchedule(row interface{ Scan(...interface{}) error }) (*Schedule, error) {
	var s Schedule
	var endDate sql.NullString
	var days, chargeType string
	var r15, r30, r45, r60, mult decimal.NullDecimal

	err := row.Scan(
		&s.ID, &s.ClientID, &s.Name, &s.StartDate, &endDate, &s.IsActive,
		&days, &s.TimeFrom, &s.TimeUntil, &chargeType, &s.BaseRate,
		&r15, &r30, &r45, &r60, &mult, &s.IsVatable, &s.Priority, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		s.EndDate = &endDate.String
	}
	s.Days = strings.Split(days, ",")
	s.ChargeType = billing.ChargeType(chargeType)
	s.Rate15 = fromNull(r15)
	s.Rate30 = fromNull(r30)
	s.Rate45 = fromNull(r45)
	s.Rate60 = fromNull(r60)
	s.BankHolidayMultiplier = fromNull(mult)

	return &s, nil
}

func fromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
