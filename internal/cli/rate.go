package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/billing"
	"github.com/evcraddock/care-billing/internal/dataset"
	"github.com/evcraddock/care-billing/internal/schedule"
)

func newRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Manage client rate schedules",
	}
	cmd.AddCommand(
		newRateAddCmd(),
		newRateActiveCmd("enable", true),
		newRateActiveCmd("disable", false),
		newRateRemoveCmd(),
	)
	return cmd
}

type rateFlags struct {
	id         string
	name       string
	start      string
	end        string
	days       []string
	from       string
	until      string
	chargeType string
	base       string
	tiers      [4]string
	multiplier string
	vat        bool
	inactive   bool
	priority   int
}

func newRateAddCmd() *cobra.Command {
	var f rateFlags

	cmd := &cobra.Command{
		Use:   "add <client>",
		Short: "Add a rate schedule for a client",
		Long: `Add a rate schedule for a client.

Days: mon..sun or monday..sunday, plus bank_holiday
Charge types: ` + chargeTypeList() + `

Examples:
  cb rate add c1 --start 2026-01-01 --days mon,tue,wed,thu,fri --from 07:00 --until 19:00 --type hourly --base 20 --vat
  cb rate add c1 --start 2026-01-01 --days sat,sun --from 07:00 --until 19:00 --type pro_rata --base 24 --rate15 8 --multiplier 1.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.toSchedule(args[0])
			if err != nil {
				return err
			}
			return runRateAdd(cmd, s)
		},
	}

	cmd.Flags().StringVar(&f.id, "id", "", "schedule ID (default: generated)")
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.start, "start", "", "first date the schedule applies (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last date the schedule applies (default: open-ended)")
	cmd.Flags().StringSliceVar(&f.days, "days", nil, "days the schedule covers, comma separated")
	cmd.Flags().StringVar(&f.from, "from", "", "window start time (HH:MM)")
	cmd.Flags().StringVar(&f.until, "until", "", "window end time (HH:MM)")
	cmd.Flags().StringVar(&f.chargeType, "type", string(billing.ChargeHourly), "charge type")
	cmd.Flags().StringVar(&f.base, "base", "", "base hourly rate")
	for i, mins := range []int{15, 30, 45, 60} {
		cmd.Flags().StringVar(&f.tiers[i], fmt.Sprintf("rate%d", mins), "", fmt.Sprintf("rate for visits up to %d minutes", mins))
	}
	cmd.Flags().StringVar(&f.multiplier, "multiplier", "", "bank holiday multiplier (default: 1)")
	cmd.Flags().BoolVar(&f.vat, "vat", false, "charge VAT on this schedule")
	cmd.Flags().BoolVar(&f.inactive, "inactive", false, "store the schedule disabled")
	cmd.Flags().IntVar(&f.priority, "priority", 0, "higher priority schedules are matched first")

	for _, name := range []string{"start", "days", "from", "until", "base"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (f rateFlags) toSchedule(clientID string) (*schedule.Schedule, error) {
	base, err := parseDecimal("base", f.base)
	if err != nil {
		return nil, err
	}

	s := &schedule.Schedule{
		ID:         f.id,
		ClientID:   clientID,
		Name:       f.name,
		StartDate:  f.start,
		IsActive:   !f.inactive,
		Days:       f.days,
		TimeFrom:   f.from,
		TimeUntil:  f.until,
		ChargeType: billing.ChargeType(strings.ToLower(f.chargeType)),
		BaseRate:   base,
		IsVatable:  f.vat,
		Priority:   f.priority,
	}
	if f.end != "" {
		s.EndDate = &f.end
	}

	tiers := []**decimal.Decimal{&s.Rate15, &s.Rate30, &s.Rate45, &s.Rate60}
	for i, raw := range f.tiers {
		if *tiers[i], err = parseOptionalDecimal(fmt.Sprintf("rate%d", 15*(i+1)), raw); err != nil {
			return nil, err
		}
	}
	if s.BankHolidayMultiplier, err = parseOptionalDecimal("multiplier", f.multiplier); err != nil {
		return nil, err
	}
	return s, nil
}

func runRateAdd(cmd *cobra.Command, s *schedule.Schedule) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	repo := schedule.NewRepository(database)
	saved, err := repo.Add(s)
	if err != nil {
		return err
	}

	overlaps, err := dataset.CheckOverlaps(repo, saved.ClientID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, map[string]interface{}{
			"schedule": saved,
			"overlaps": overlaps,
		})
	}

	fmt.Fprintf(out, "Rate schedule added: %s (%s, %s)\n", saved.ID, saved.ChargeType.Label(), formatMoney(saved.BaseRate))
	for _, o := range overlaps {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: schedules %s and %s overlap; %s is matched first\n", o.First, o.Second, o.First)
	}
	return nil
}

func newRateActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a rate schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			if err := schedule.NewRepository(database).SetActive(args[0], active); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":        args[0],
					"is_active": active,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rate schedule %s %sd.\n", args[0], use)
			return nil
		},
	}
}

func newRateRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a rate schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			if err := schedule.NewRepository(database).Delete(args[0]); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      args[0],
					"removed": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rate schedule %s removed.\n", args[0])
			return nil
		},
	}
}

func parseDecimal(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: must be a number", name, raw)
	}
	return d, nil
}

func parseOptionalDecimal(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := parseDecimal(name, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func chargeTypeList() string {
	names := make([]string, len(billing.ValidChargeTypes))
	for i, c := range billing.ValidChargeTypes {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
