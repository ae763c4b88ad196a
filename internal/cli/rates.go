package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/schedule"
)

func newRatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates <client>",
		Short: "List rate schedules for a client",
		Long:  "Show a client's rate schedules in the order they are matched: priority first, then insertion order.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRates,
	}
}

func runRates(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	schedules, err := schedule.NewRepository(database).ListByClient(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		if schedules == nil {
			schedules = []*schedule.Schedule{}
		}
		return printJSON(cmd.OutOrStdout(), schedules)
	}
	return printScheduleTable(cmd.OutOrStdout(), schedules)
}
