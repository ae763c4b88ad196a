package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/billing"
	"github.com/evcraddock/care-billing/internal/invoice"
	"github.com/evcraddock/care-billing/internal/schedule"
	"github.com/evcraddock/care-billing/internal/visit"
)

type billOptions struct {
	period invoice.Period
	actual bool
	save   bool
	note   string
}

func newBillCmd() *cobra.Command {
	var opts billOptions

	cmd := &cobra.Command{
		Use:   "bill <client>",
		Short: "Price a client's visits for a period",
		Long: `Price every visit a client had in a date range against the client's
rate schedules. Visits that match no schedule, or whose times are
inconsistent, are listed as skipped and do not stop the run.

Examples:
  cb bill c1 --from 2026-01-01 --to 2026-01-31
  cb bill c1 --from 2026-01-01 --to 2026-01-31 --actual --save --note "January"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("actual") {
				byActual, err := getBillByActual()
				if err != nil {
					return err
				}
				opts.actual = byActual
			}
			return runBill(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.period.From, "from", "", "first visit date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.period.To, "to", "", "last visit date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.actual, "actual", false, "bill recorded times instead of planned times")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the result as an invoice")
	cmd.Flags().StringVar(&opts.note, "note", "", "note stored with a saved invoice")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runBill(cmd *cobra.Command, clientID string, opts billOptions) error {
	if err := validateRange(opts.period.From, opts.period.To); err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	stored, err := visit.NewRepository(database).ListByClient(clientID, visit.ListOptions{
		From: opts.period.From,
		To:   opts.period.To,
	})
	if err != nil {
		return err
	}
	visits := make([]billing.Visit, 0, len(stored))
	for _, v := range stored {
		bv, err := v.ToBilling()
		if err != nil {
			return fmt.Errorf("visit %s: %w", v.ID, err)
		}
		visits = append(visits, bv)
	}

	schedules, err := schedule.NewRepository(database).ListByClient(clientID)
	if err != nil {
		return err
	}
	rates, err := schedule.ToBillingAll(schedules)
	if err != nil {
		return err
	}

	res := billing.NewCalculator(opts.actual).CalculateBatch(visits, map[string][]billing.RateSchedule{
		clientID: rates,
	})

	out := cmd.OutOrStdout()
	if opts.save {
		inv, err := invoice.NewRepository(database).Save(clientID, opts.period, opts.actual, opts.note, res)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(out, inv)
		}
		if err := printInvoice(out, inv); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", res.Report())
		return nil
	}

	if isJSON() {
		return printJSON(out, map[string]interface{}{
			"client_id":      clientID,
			"period":         opts.period,
			"bill_by_actual": opts.actual,
			"summary":        res.Summary,
			"lines":          res.Lines,
			"skipped":        res.Skipped,
		})
	}

	if err := printLineTable(out, res.Lines); err != nil {
		return err
	}
	fmt.Fprintln(out)
	printSummary(out, res.Summary)
	printSkipped(out, res.Skipped)
	fmt.Fprintf(out, "\n%s\n", res.Report())
	return nil
}

// validateRange checks that optional YYYY-MM-DD bounds parse and are in order.
func validateRange(from, to string) error {
	for _, d := range []struct{ name, value string }{{"from", from}, {"to", to}} {
		if d.value == "" {
			continue
		}
		if _, err := billing.ParseDate(d.value); err != nil {
			return fmt.Errorf("invalid --%s: %w", d.name, err)
		}
	}
	// YYYY-MM-DD compares correctly as text.
	if from != "" && to != "" && to < from {
		return fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return nil
}
