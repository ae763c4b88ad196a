package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/dataset"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import visits and rate schedules from a YAML file",
		Long: `Import visits and rate schedules from a YAML file.

The file has two top-level lists, rates and visits. Rates are stored
first. The whole file is stored in one transaction: an invalid entry
aborts the import and nothing is stored.

Example:
  rates:
    - id: weekday
      client: c1
      start_date: 2026-01-01
      days: [mon, tue, wed, thu, fri]
      from: "07:00"
      until: "19:00"
      type: hourly
      base_rate: 20
      vat: true
  visits:
    - client: c1
      date: 2026-01-05
      start: "09:00"
      end: "10:15"`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	doc, err := dataset.Load(args[0])
	if err != nil {
		return err
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	stats, err := dataset.Import(database, doc)
	if err != nil {
		return fmt.Errorf("importing %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, stats)
	}

	fmt.Fprintf(out, "Imported %d rate schedules and %d visits.\n", stats.Rates, stats.Visits)
	for _, o := range stats.Overlaps {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: schedules %s and %s overlap; %s is matched first\n", o.First, o.Second, o.First)
	}
	return nil
}
