package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/invoice"
)

func newInvoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoices <client>",
		Short: "List saved invoices for a client",
		Args:  cobra.ExactArgs(1),
		RunE:  runInvoices,
	}
}

func runInvoices(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	invoices, err := invoice.NewRepository(database).ListByClient(args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		if invoices == nil {
			invoices = []*invoice.Invoice{}
		}
		return printJSON(cmd.OutOrStdout(), invoices)
	}
	return printInvoiceTable(cmd.OutOrStdout(), invoices)
}
