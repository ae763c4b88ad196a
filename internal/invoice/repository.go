package invoice

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/evcraddock/care-billing/internal/billing"
)

// Repository stores invoices and their line items.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an invoice repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, client_id, period_start, period_end, bill_by_actual, note,
	net_amount, vat_amount, total_amount, total_billing_minutes,
	visits_total, visits_billed, visits_skipped, created_at`

// Save stores a billing run in a single transaction and returns the saved
// invoice.
func (r *Repository) Save(clientID string, period Period, billByActual bool, note string, res billing.BatchResult) (inv *Invoice, err error) {
	id := uuid.New().String()
	s := res.Summary

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(
		`INSERT INTO invoices (id, client_id, period_start, period_end, bill_by_actual, note,
			net_amount, vat_amount, total_amount, total_billing_minutes,
			visits_total, visits_billed, visits_skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, clientID, period.From, period.To, billByActual, note,
		s.NetAmount, s.VATAmount, s.TotalAmount, s.TotalBillingMinutes,
		s.VisitsTotal, s.VisitsBilled, s.VisitsSkipped,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting invoice: %w", err)
	}

	for _, l := range res.Lines {
		_, err = tx.Exec(
			`INSERT INTO invoice_lines (invoice_id, visit_id, description, visit_date,
				planned_minutes, actual_minutes, billing_minutes, rate_type, base_rate,
				multiplier, unit_rate, line_total, is_vatable, vat_amount, is_bank_holiday, applies_60_rule)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, l.VisitID, l.Description, l.Date.Format(billing.DateLayout),
			l.PlannedDurationMinutes, l.ActualDurationMinutes, l.BillingDurationMinutes,
			string(l.RateType), l.BaseRate, l.Multiplier, l.UnitRate, l.LineTotal,
			l.IsVatable, l.VATAmount, l.IsBankHoliday, l.Applies60MinRule,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting line for visit %s: %w", l.VisitID, err)
		}
	}

	for _, sk := range res.Skipped {
		_, err = tx.Exec(
			"INSERT INTO invoice_skips (invoice_id, visit_id, reason, detail) VALUES (?, ?, ?, ?)",
			id, sk.VisitID, string(sk.Reason), sk.Detail,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting skipped visit %s: %w", sk.VisitID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing invoice: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns an invoice with its lines and skipped visits.
func (r *Repository) GetByID(id string) (*Invoice, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM invoices WHERE id = ?", selectColumns), id)

	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying invoice %s: %w", id, err)
	}

	if inv.Lines, err = r.lines(id); err != nil {
		return nil, err
	}
	if inv.Skipped, err = r.skips(inv.ClientID, id); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListByClient returns a client's invoices, newest first, without lines.
func (r *Repository) ListByClient(clientID string) (invoices []*Invoice, err error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT %s FROM invoices WHERE client_id = ? ORDER BY created_at DESC, period_start DESC", selectColumns),
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}
	return invoices, nil
}

// Delete removes an invoice; its lines and skips cascade.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %s not found", id)
	}
	return nil
}

func (r *Repository) lines(invoiceID string) (lines []billing.BillingCalculation, err error) {
	rows, err := r.db.Query(
		`SELECT visit_id, description, visit_date, planned_minutes, actual_minutes, billing_minutes,
			rate_type, base_rate, multiplier, unit_rate, line_total, is_vatable, vat_amount,
			is_bank_holiday, applies_60_rule
		 FROM invoice_lines WHERE invoice_id = ? ORDER BY id`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing invoice lines: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var l billing.BillingCalculation
		var date, rateType string
		if err := rows.Scan(
			&l.VisitID, &l.Description, &date, &l.PlannedDurationMinutes, &l.ActualDurationMinutes,
			&l.BillingDurationMinutes, &rateType, &l.BaseRate, &l.Multiplier, &l.UnitRate,
			&l.LineTotal, &l.IsVatable, &l.VATAmount, &l.IsBankHoliday, &l.Applies60MinRule,
		); err != nil {
			return nil, fmt.Errorf("scanning invoice line: %w", err)
		}
		if l.Date, err = billing.ParseDate(date); err != nil {
			return nil, fmt.Errorf("invoice line %s: %w", l.VisitID, err)
		}
		l.RateType = billing.ChargeType(rateType)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice lines: %w", err)
	}
	return lines, nil
}

func (r *Repository) skips(clientID, invoiceID string) (skipped []billing.SkippedVisit, err error) {
	rows, err := r.db.Query(
		"SELECT visit_id, reason, detail FROM invoice_skips WHERE invoice_id = ? ORDER BY id",
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing skipped visits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		sk := billing.SkippedVisit{ClientID: clientID}
		var reason string
		if err := rows.Scan(&sk.VisitID, &reason, &sk.Detail); err != nil {
			return nil, fmt.Errorf("scanning skipped visit: %w", err)
		}
		sk.Reason = billing.SkipReason(reason)
		skipped = append(skipped, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skipped visits: %w", err)
	}
	return skipped, nil
}

func scanInvoice(row interface{ Scan(...interface{}) error }) (*Invoice, error) {
	var inv Invoice
	s := &inv.Summary
	err := row.Scan(
		&inv.ID, &inv.ClientID, &inv.Period.From, &inv.Period.To, &inv.BillByActual, &inv.Note,
		&s.NetAmount, &s.VATAmount, &s.TotalAmount, &s.TotalBillingMinutes,
		&s.VisitsTotal, &s.VisitsBilled, &s.VisitsSkipped, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.TotalBillableHours = s.TotalBillingMinutes / 60
	return &inv, nil
}
