package billing

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// SkipReason classifies why a visit produced no line item.
type SkipReason string

const (
	SkipNoRate          SkipReason = "no_rate"
	SkipInvalidDuration SkipReason = "invalid_duration"
)

// SkippedVisit records a visit left off the invoice.
type SkippedVisit struct {
	VisitID  string     `json:"visit_id"`
	ClientID string     `json:"client_id"`
	Reason   SkipReason `json:"reason"`
	Detail   string     `json:"detail"`
}

// BatchResult is the outcome of pricing a set of visits.
type BatchResult struct {
	Summary BillingSummary       `json:"summary"`
	Lines   []BillingCalculation `json:"lines"`
	Skipped []SkippedVisit       `json:"skipped"`
}

// CalculateBatch prices every visit against its client's schedules. Visits
// that cannot be priced are reported in Skipped; they never fail the batch.
func (c *Calculator) CalculateBatch(visits []Visit, ratesByClient map[string][]RateSchedule) BatchResult {
	res := BatchResult{
		Lines:   make([]BillingCalculation, 0, len(visits)),
		Skipped: []SkippedVisit{},
	}

	for _, v := range visits {
		rate, ok := ResolveRate(v, ratesByClient[v.ClientID])
		if !ok {
			res.skip(v, SkipNoRate, ErrNoApplicableRate)
			continue
		}

		line, err := c.CalculateLine(v, rate)
		if err != nil {
			reason := SkipInvalidDuration
			if errors.Is(err, ErrNoApplicableRate) {
				reason = SkipNoRate
			}
			res.skip(v, reason, err)
			continue
		}

		slog.Debug("visit priced",
			"visit_id", v.ID,
			"rate_id", rate.ID,
			"billing_minutes", line.BillingDurationMinutes,
			"line_total", line.LineTotal.String(),
		)
		res.Lines = append(res.Lines, *line)
	}

	res.Summary = Summarize(res.Lines)
	res.Summary.VisitsTotal = len(visits)
	res.Summary.VisitsSkipped = len(res.Skipped)
	return res
}

func (r *BatchResult) skip(v Visit, reason SkipReason, err error) {
	slog.Warn("visit not billed",
		"visit_id", v.ID,
		"client_id", v.ClientID,
		"date", v.Date.Format(DateLayout),
		"reason", reason,
		"error", err,
	)
	r.Skipped = append(r.Skipped, SkippedVisit{
		VisitID:  v.ID,
		ClientID: v.ClientID,
		Reason:   reason,
		Detail:   err.Error(),
	})
}

// Summarize folds line items into invoice totals.
func Summarize(lines []BillingCalculation) BillingSummary {
	s := BillingSummary{
		NetAmount: decimal.Zero,
		VATAmount: decimal.Zero,
	}
	for _, l := range lines {
		s.NetAmount = s.NetAmount.Add(l.LineTotal)
		s.VATAmount = s.VATAmount.Add(l.VATAmount)
		s.TotalBillingMinutes += l.BillingDurationMinutes
	}
	s.TotalAmount = s.NetAmount.Add(s.VATAmount)
	s.TotalBillableHours = s.TotalBillingMinutes / 60
	s.VisitsBilled = len(lines)
	s.VisitsTotal = len(lines)
	return s
}

// Report renders the outcome for an operator, e.g.
// "2 of 3 visits billed, 1 skipped (1 no matching rate)".
func (r BatchResult) Report() string {
	s := fmt.Sprintf("%d of %d visits billed, %d skipped",
		r.Summary.VisitsBilled, r.Summary.VisitsTotal, r.Summary.VisitsSkipped)
	if len(r.Skipped) == 0 {
		return s
	}

	counts := map[SkipReason]int{}
	for _, sk := range r.Skipped {
		counts[sk.Reason]++
	}
	var parts []string
	if n := counts[SkipNoRate]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d no matching rate", n))
	}
	if n := counts[SkipInvalidDuration]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid duration", n))
	}
	return s + " (" + strings.Join(parts, ", ") + ")"
}
