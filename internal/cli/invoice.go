package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/invoice"
)

func newInvoiceCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "invoice <id>",
		Short: "Show a saved invoice",
		Long:  "Show a saved invoice with its line items and skipped visits, or delete it with --delete.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoice(cmd, args[0], remove)
		},
	}

	cmd.Flags().BoolVar(&remove, "delete", false, "delete the invoice instead of showing it")

	return cmd
}

func runInvoice(cmd *cobra.Command, id string, remove bool) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	repo := invoice.NewRepository(database)
	out := cmd.OutOrStdout()

	if remove {
		if err := repo.Delete(id); err != nil {
			return err
		}
		if isJSON() {
			return printJSON(out, map[string]interface{}{
				"id":      id,
				"removed": true,
			})
		}
		fmt.Fprintf(out, "Invoice %s deleted.\n", id)
		return nil
	}

	inv, err := repo.GetByID(id)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(out, inv)
	}
	return printInvoice(out, inv)
}
