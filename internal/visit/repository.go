package visit

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Repository provides CRUD operations for care visits.
type Repository struct {
	db DBTX
}

// NewRepository creates a visit repository. Pass a *sql.Tx to group writes
// into one transaction.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, client_id, visit_date, planned_start, planned_end, actual_start, actual_end, is_bank_holiday, notes, created_at`

// Add validates and stores a visit, assigning an ID if it has none.
func (r *Repository) Add(v *Visit) (*Visit, error) {
	if v.ActualStart != nil && *v.ActualStart == "" {
		v.ActualStart = nil
	}
	if v.ActualEnd != nil && *v.ActualEnd == "" {
		v.ActualEnd = nil
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid visit: %w", err)
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}

	_, err := r.db.Exec(
		`INSERT INTO visits (id, client_id, visit_date, planned_start, planned_end, actual_start, actual_end, is_bank_holiday, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.ClientID, v.VisitDate, v.PlannedStart, v.PlannedEnd,
		v.ActualStart, v.ActualEnd, v.IsBankHoliday, v.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting visit: %w", err)
	}

	return r.GetByID(v.ID)
}

// GetByID returns a visit by its ID.
func (r *Repository) GetByID(id string) (*Visit, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM visits WHERE id = ?", selectColumns), id)

	v, err := scanVisit(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("visit %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying visit %s: %w", id, err)
	}
	return v, nil
}

// ListOptions restricts ListByClient to a date range. Empty bounds are open.
type ListOptions struct {
	From string // YYYY-MM-DD, inclusive
	To   string // YYYY-MM-DD, inclusive
}

// ListByClient returns a client's visits in date order.
func (r *Repository) ListByClient(clientID string, opts ListOptions) (visits []*Visit, err error) {
	query := fmt.Sprintf("SELECT %s FROM visits", selectColumns)
	conditions := []string{"client_id = ?"}
	args := []interface{}{clientID}

	if opts.From != "" {
		conditions = append(conditions, "visit_date >= ?")
		args = append(args, opts.From)
	}
	if opts.To != "" {
		conditions = append(conditions, "visit_date <= ?")
		args = append(args, opts.To)
	}
	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY visit_date, planned_start, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visits: %w", err)
	}

	return visits, nil
}

// Delete removes a visit by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM visits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting visit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("visit %s not found", id)
	}

	return nil
}

func scanVisit(row interface{ Scan(...interface{}) error }) (*Visit, error) {
	var v Visit
	var actualStart, actualEnd sql.NullString
	err := row.Scan(
		&v.ID, &v.ClientID, &v.VisitDate, &v.PlannedStart, &v.PlannedEnd,
		&actualStart, &actualEnd, &v.IsBankHoliday, &v.Notes, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if actualStart.Valid {
		v.ActualStart = &actualStart.String
	}
	if actualEnd.Valid {
		v.ActualEnd = &actualEnd.String
	}
	return &v, nil
}
