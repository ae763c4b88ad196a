package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/visit"
)

func newVisitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Record or remove care visits",
	}
	cmd.AddCommand(newVisitAddCmd(), newVisitRemoveCmd())
	return cmd
}

func newVisitAddCmd() *cobra.Command {
	var (
		id          string
		actualStart string
		actualEnd   string
		bankHoliday bool
		notes       string
	)

	cmd := &cobra.Command{
		Use:   "add <client> <date> <start> <end>",
		Short: "Record a care visit",
		Long: `Record a care visit for a client.

Date format: YYYY-MM-DD
Time format: HH:MM or HH:MM:SS

Examples:
  cb visit add c1 2026-01-05 09:00 10:15
  cb visit add c1 2026-12-25 09:00 10:00 --bank-holiday
  cb visit add c1 2026-01-06 09:00 10:00 --actual-start 09:05 --actual-end 10:20`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := &visit.Visit{
				ID:            id,
				ClientID:      args[0],
				VisitDate:     args[1],
				PlannedStart:  args[2],
				PlannedEnd:    args[3],
				IsBankHoliday: bankHoliday,
				Notes:         notes,
			}
			if actualStart != "" {
				v.ActualStart = &actualStart
			}
			if actualEnd != "" {
				v.ActualEnd = &actualEnd
			}
			return runVisitAdd(cmd, v)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "visit ID (default: generated)")
	cmd.Flags().StringVar(&actualStart, "actual-start", "", "recorded start time")
	cmd.Flags().StringVar(&actualEnd, "actual-end", "", "recorded end time")
	cmd.Flags().BoolVar(&bankHoliday, "bank-holiday", false, "visit falls on a bank holiday")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "optional notes about the visit")

	return cmd
}

func runVisitAdd(cmd *cobra.Command, v *visit.Visit) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	saved, err := visit.NewRepository(database).Add(v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, saved)
	}

	fmt.Fprintf(out, "Visit recorded: %s %s-%s (%s)\n", saved.VisitDate, saved.PlannedStart, saved.PlannedEnd, saved.ID)
	if saved.Notes != "" {
		fmt.Fprintf(out, "  %s\n", saved.Notes)
	}
	return nil
}

func newVisitRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			if err := visit.NewRepository(database).Delete(args[0]); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"id":      args[0],
					"removed": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Visit %s removed.\n", args[0])
			return nil
		},
	}
}
