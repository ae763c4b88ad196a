// Package invoice persists the outcome of a billing run: its summary, the
// priced line items and the visits that were left unbilled.
package invoice

import (
	"time"

	"github.com/evcraddock/care-billing/internal/billing"
)

// Period is the inclusive date range an invoice covers.
type Period struct {
	From string `json:"from"` // YYYY-MM-DD
	To   string `json:"to"`   // YYYY-MM-DD
}

// Invoice is a saved billing run for one client.
type Invoice struct {
	ID           string                       `json:"id"`
	ClientID     string                       `json:"client_id"`
	Period       Period                       `json:"period"`
	BillByActual bool                         `json:"bill_by_actual"`
	Note         string                       `json:"note,omitempty"`
	Summary      billing.BillingSummary       `json:"summary"`
	Lines        []billing.BillingCalculation `json:"lines,omitempty"`
	Skipped      []billing.SkippedVisit       `json:"skipped,omitempty"`
	CreatedAt    time.Time                    `json:"created_at"`
}
