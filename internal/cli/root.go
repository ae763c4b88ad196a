// Package cli defines the cobra command tree for care-billing.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/care-billing/internal/db"
	"github.com/evcraddock/care-billing/internal/logging"
)

var (
	flagFormat  string
	flagDB      string
	flagVerbose bool
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cb",
		Short:         "Bill care visits against client rate schedules",
		Long:          "A tool to record care visits and client rate schedules, price visits into invoice line items with VAT, and keep saved invoices.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.care-billing/billing.db)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug detail to stderr")

	root.AddCommand(
		newVisitCmd(),
		newVisitsCmd(),
		newRateCmd(),
		newRatesCmd(),
		newImportCmd(),
		newBillCmd(),
		newInvoicesCmd(),
		newInvoiceCmd(),
		newVersionCmd(),
	)

	return root
}

func setupLogging() error {
	if flagFormat != "text" && flagFormat != "json" {
		return fmt.Errorf("invalid format %q (must be text or json)", flagFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := logging.LevelFromEnv(slog.LevelWarn)
	if flagVerbose {
		level = slog.LevelDebug
	}
	logging.Setup(cfg.devLogging(), level)
	return nil
}

// openDB opens the SQLite database from --db, CB_DB, the config file, or
// the default path, in that order.
func openDB() (*sql.DB, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	slog.Debug("opening database", "path", path)
	return db.Open(path)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
