package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/visit"
)

func newVisitsCmd() *cobra.Command {
	var opts visit.ListOptions

	cmd := &cobra.Command{
		Use:   "visits <client>",
		Short: "List visits for a client",
		Long:  "Show recorded visits for a client in date order, optionally within a date range.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisits(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last date to include (YYYY-MM-DD)")

	return cmd
}

func runVisits(cmd *cobra.Command, clientID string, opts visit.ListOptions) error {
	if err := validateRange(opts.From, opts.To); err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	visits, err := visit.NewRepository(database).ListByClient(clientID, opts)
	if err != nil {
		return err
	}

	if isJSON() {
		if visits == nil {
			visits = []*visit.Visit{}
		}
		return printJSON(cmd.OutOrStdout(), visits)
	}
	return printVisitTable(cmd.OutOrStdout(), visits)
}
