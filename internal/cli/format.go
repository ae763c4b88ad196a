package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/evcraddock/care-billing/internal/billing"
	"github.com/evcraddock/care-billing/internal/invoice"
	"github.com/evcraddock/care-billing/internal/schedule"
	"github.com/evcraddock/care-billing/internal/visit"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes a header, separator and rows through a tabwriter.
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	sep := make([]string, len(header))
	for i, h := range header {
		sep[i] = strings.Repeat("-", len(h))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(sep, "\t")); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(r, "\t")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printVisitTable prints visits as a formatted table.
func printVisitTable(w io.Writer, visits []*visit.Visit) error {
	if len(visits) == 0 {
		fmt.Fprintln(w, "No visits recorded.")
		return nil
	}

	rows := make([][]string, 0, len(visits))
	for _, v := range visits {
		actual := "-"
		if v.ActualStart != nil && v.ActualEnd != nil {
			actual = *v.ActualStart + "-" + *v.ActualEnd
		}
		bh := ""
		if v.IsBankHoliday {
			bh = "yes"
		}
		rows = append(rows, []string{
			v.ID, v.VisitDate, v.PlannedStart + "-" + v.PlannedEnd, actual, bh, truncate(v.Notes, 30),
		})
	}

	if err := table(w, []string{"ID", "DATE", "PLANNED", "ACTUAL", "BANK HOL", "NOTES"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %d visits\n", len(visits))
	return nil
}

// printScheduleTable prints rate schedules as a formatted table.
func printScheduleTable(w io.Writer, schedules []*schedule.Schedule) error {
	if len(schedules) == 0 {
		fmt.Fprintln(w, "No rate schedules.")
		return nil
	}

	rows := make([][]string, 0, len(schedules))
	for _, s := range schedules {
		period := s.StartDate + " onwards"
		if s.EndDate != nil {
			period = s.StartDate + " to " + *s.EndDate
		}
		status := "active"
		if !s.IsActive {
			status = "inactive"
		}
		mult := "-"
		if s.BankHolidayMultiplier != nil {
			mult = "x" + s.BankHolidayMultiplier.String()
		}
		vat := "no"
		if s.IsVatable {
			vat = "yes"
		}
		rows = append(rows, []string{
			s.ID, truncate(s.Name, 24), period, strings.Join(s.Days, ","),
			s.TimeFrom + "-" + s.TimeUntil, s.ChargeType.Label(), formatMoney(s.BaseRate),
			formatTiers(s), mult, vat, fmt.Sprintf("%d", s.Priority), status,
		})
	}

	header := []string{"ID", "NAME", "PERIOD", "DAYS", "WINDOW", "TYPE", "BASE", "TIERS", "BANK HOL", "VAT", "PRIORITY", "STATUS"}
	if err := table(w, header, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %d schedules\n", len(schedules))
	return nil
}

// printLineTable prints priced line items.
func printLineTable(w io.Writer, lines []billing.BillingCalculation) error {
	if len(lines) == 0 {
		fmt.Fprintln(w, "No billable visits.")
		return nil
	}

	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []string{
			l.Date.Format(billing.DateLayout), truncate(l.VisitID, 12),
			fmt.Sprintf("%d", l.BillingDurationMinutes), l.RateType.Label(),
			formatMoney(l.UnitRate), "x" + l.Multiplier.String(),
			formatMoney(l.LineTotal), formatMoney(l.VATAmount),
		})
	}
	return table(w, []string{"DATE", "VISIT", "MINS", "TYPE", "UNIT", "MULT", "NET", "VAT"}, rows)
}

// printSummary prints invoice totals.
func printSummary(w io.Writer, s billing.BillingSummary) {
	fmt.Fprintf(w, "  Net:    %s\n", formatMoney(s.NetAmount))
	fmt.Fprintf(w, "  VAT:    %s\n", formatMoney(s.VATAmount))
	fmt.Fprintf(w, "  Total:  %s\n", formatMoney(s.TotalAmount))
	fmt.Fprintf(w, "  Hours:  %d (%d mins)\n", s.TotalBillableHours, s.TotalBillingMinutes)
}

// printSkipped lists visits left off an invoice.
func printSkipped(w io.Writer, skipped []billing.SkippedVisit) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSkipped:")
	for _, sk := range skipped {
		fmt.Fprintf(w, "  %s  %s  %s\n", sk.VisitID, sk.Reason, sk.Detail)
	}
}

// printInvoiceTable prints saved invoices without their lines.
func printInvoiceTable(w io.Writer, invoices []*invoice.Invoice) error {
	if len(invoices) == 0 {
		fmt.Fprintln(w, "No invoices.")
		return nil
	}

	rows := make([][]string, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []string{
			inv.ID, inv.Period.From + " to " + inv.Period.To,
			fmt.Sprintf("%d/%d", inv.Summary.VisitsBilled, inv.Summary.VisitsTotal),
			formatMoney(inv.Summary.NetAmount), formatMoney(inv.Summary.VATAmount),
			formatMoney(inv.Summary.TotalAmount), inv.CreatedAt.Format("2006-01-02 15:04"),
			truncate(inv.Note, 24),
		})
	}

	if err := table(w, []string{"ID", "PERIOD", "BILLED", "NET", "VAT", "TOTAL", "CREATED", "NOTE"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %d invoices\n", len(invoices))
	return nil
}

// printInvoice prints a saved invoice in full.
func printInvoice(w io.Writer, inv *invoice.Invoice) error {
	basis := "planned"
	if inv.BillByActual {
		basis = "actual"
	}
	fmt.Fprintf(w, "Invoice %s\n", inv.ID)
	fmt.Fprintf(w, "  Client:   %s\n", inv.ClientID)
	fmt.Fprintf(w, "  Period:   %s to %s\n", inv.Period.From, inv.Period.To)
	fmt.Fprintf(w, "  Basis:    %s times\n", basis)
	if inv.Note != "" {
		fmt.Fprintf(w, "  Note:     %s\n", inv.Note)
	}
	fmt.Fprintln(w)

	if err := printLineTable(w, inv.Lines); err != nil {
		return err
	}
	fmt.Fprintln(w)
	printSummary(w, inv.Summary)
	printSkipped(w, inv.Skipped)
	return nil
}

// formatTiers lists the configured short-visit tier rates, e.g. "15:8.00 30:12.50".
func formatTiers(s *schedule.Schedule) string {
	var parts []string
	for _, t := range []struct {
		mins int
		rate *decimal.Decimal
	}{{15, s.Rate15}, {30, s.Rate30}, {45, s.Rate45}, {60, s.Rate60}} {
		if t.rate != nil {
			parts = append(parts, fmt.Sprintf("%d:%s", t.mins, formatMoney(*t.rate)))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// formatMoney renders an amount to two decimal places with thousands
// separators. Rounding happens here and nowhere in the engine.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac := s[:len(s)-3], s[len(s)-3:]

	// Add commas
	if len(whole) <= 3 {
		return sign + whole + frac
	}

	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)

	return sign + strings.Join(parts, ",") + frac
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
