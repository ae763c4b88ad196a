// Package dataset loads visits and rate schedules from YAML files, the
// format billing administrators hand over when onboarding a client.
package dataset

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/care-billing/internal/billing"
	"github.com/evcraddock/care-billing/internal/schedule"
	"github.com/evcraddock/care-billing/internal/visit"
)

// Document is the top-level YAML layout.
type Document struct {
	Visits []VisitEntry `yaml:"visits"`
	Rates  []RateEntry  `yaml:"rates"`
}

// VisitEntry is one visit in a dataset file.
type VisitEntry struct {
	ID          string `yaml:"id"`
	Client      string `yaml:"client"`
	Date        string `yaml:"date"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	ActualStart string `yaml:"actual_start"`
	ActualEnd   string `yaml:"actual_end"`
	BankHoliday bool   `yaml:"bank_holiday"`
	Notes       string `yaml:"notes"`
}

// RateEntry is one rate schedule in a dataset file. Active defaults to true.
type RateEntry struct {
	ID         string                  `yaml:"id"`
	Client     string                  `yaml:"client"`
	Name       string                  `yaml:"name"`
	StartDate  string                  `yaml:"start_date"`
	EndDate    string                  `yaml:"end_date"`
	Active     *bool                   `yaml:"active"`
	Days       []string                `yaml:"days"`
	From       string                  `yaml:"from"`
	Until      string                  `yaml:"until"`
	Type       string                  `yaml:"type"`
	BaseRate   decimal.Decimal         `yaml:"base_rate"`
	Tiers      map[int]decimal.Decimal `yaml:"tiers"`
	Multiplier *decimal.Decimal        `yaml:"bank_holiday_multiplier"`
	VAT        bool                    `yaml:"vat"`
	Priority   int                     `yaml:"priority"`
}

// Load reads and parses a dataset file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return Parse(data)
}

// Parse decodes a dataset document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	return &doc, nil
}

// ToVisit converts the entry into a visit record.
func (e VisitEntry) ToVisit() *visit.Visit {
	v := &visit.Visit{
		ID:            e.ID,
		ClientID:      e.Client,
		VisitDate:     e.Date,
		PlannedStart:  e.Start,
		PlannedEnd:    e.End,
		IsBankHoliday: e.BankHoliday,
		Notes:         e.Notes,
	}
	if e.ActualStart != "" {
		s := e.ActualStart
		v.ActualStart = &s
	}
	if e.ActualEnd != "" {
		s := e.ActualEnd
		v.ActualEnd = &s
	}
	return v
}

// ToSchedule converts the entry into a schedule record.
func (e RateEntry) ToSchedule() (*schedule.Schedule, error) {
	s := &schedule.Schedule{
		ID:                    e.ID,
		ClientID:              e.Client,
		Name:                  e.Name,
		StartDate:             e.StartDate,
		IsActive:              e.Active == nil || *e.Active,
		Days:                  e.Days,
		TimeFrom:              e.From,
		TimeUntil:             e.Until,
		ChargeType:            billing.ChargeType(e.Type),
		BaseRate:              e.BaseRate,
		BankHolidayMultiplier: e.Multiplier,
		IsVatable:             e.VAT,
		Priority:              e.Priority,
	}
	if e.EndDate != "" {
		end := e.EndDate
		s.EndDate = &end
	}

	for minutes, rate := range e.Tiers {
		r := rate
		switch minutes {
		case 15:
			s.Rate15 = &r
		case 30:
			s.Rate30 = &r
		case 45:
			s.Rate45 = &r
		case 60:
			s.Rate60 = &r
		default:
			return nil, fmt.Errorf("rate %s: tier %d not one of 15, 30, 45, 60", e.ID, minutes)
		}
	}
	return s, nil
}

// Stats counts what an import stored.
type Stats struct {
	Visits   int               `json:"visits"`
	Rates    int               `json:"rates"`
	Overlaps []billing.Overlap `json:"overlaps,omitempty"`
}

// Import stores every rate and visit in the document in a single
// transaction; an invalid entry leaves the database untouched. Overlaps are
// checked once the import has committed.
func Import(database *sql.DB, doc *Document) (Stats, error) {
	stats, clients, err := store(database, doc)
	if err != nil {
		return Stats{}, err
	}

	schedules := schedule.NewRepository(database)
	for _, clientID := range clients {
		overlaps, err := CheckOverlaps(schedules, clientID)
		if err != nil {
			return stats, err
		}
		stats.Overlaps = append(stats.Overlaps, overlaps...)
	}

	slog.Info("dataset imported", "rates", stats.Rates, "visits", stats.Visits, "overlaps", len(stats.Overlaps))
	return stats, nil
}

// store writes rates first, then visits, and returns the clients whose
// schedules changed in first-seen order.
func store(database *sql.DB, doc *Document) (stats Stats, clients []string, err error) {
	tx, err := database.Begin()
	if err != nil {
		return stats, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	schedules := schedule.NewRepository(tx)
	visits := visit.NewRepository(tx)
	seen := map[string]bool{}

	for i, e := range doc.Rates {
		s, err := e.ToSchedule()
		if err != nil {
			return stats, nil, err
		}
		if _, err := schedules.Add(s); err != nil {
			return stats, nil, fmt.Errorf("rate %d (%s): %w", i+1, e.ID, err)
		}
		if !seen[s.ClientID] {
			seen[s.ClientID] = true
			clients = append(clients, s.ClientID)
		}
		stats.Rates++
	}

	for i, e := range doc.Visits {
		if _, err := visits.Add(e.ToVisit()); err != nil {
			return stats, nil, fmt.Errorf("visit %d (%s): %w", i+1, e.ID, err)
		}
		stats.Visits++
	}

	if err = tx.Commit(); err != nil {
		return stats, nil, fmt.Errorf("committing import: %w", err)
	}
	return stats, clients, nil
}

// CheckOverlaps reports schedule pairs for a client that could both match a
// visit, logging each one.
func CheckOverlaps(schedules *schedule.Repository, clientID string) ([]billing.Overlap, error) {
	list, err := schedules.ListByClient(clientID)
	if err != nil {
		return nil, err
	}
	rates, err := schedule.ToBillingAll(list)
	if err != nil {
		return nil, err
	}

	overlaps := billing.OverlappingSchedules(rates)
	for _, o := range overlaps {
		slog.Warn("overlapping rate schedules; first in priority order wins",
			"client_id", clientID, "first", o.First, "second", o.Second)
	}
	return overlaps, nil
}
