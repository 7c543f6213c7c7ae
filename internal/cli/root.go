// internal/cli/root.go
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"libracatalog/internal/catalog"
	"libracatalog/internal/clients"
	"libracatalog/internal/config"
	"libracatalog/internal/telemetry"
)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the catalog command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "In-memory book catalog with borrow and return",
		Long: `Catalog keeps a set of books keyed by ISBN and tracks whether each one is
available or borrowed.

Run the demonstration, serve the catalog over HTTP, or drive a running
server from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = telemetry.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	cmd.AddCommand(
		newDemoCmd(a),
		newServeCmd(a),
		newAddCmd(a),
		newBorrowCmd(a),
		newReturnCmd(a),
		newListCmd(a),
		newHistoryCmd(a),
		newEventsCmd(a),
	)

	return cmd
}

// remote returns a client for --url, falling back to CATALOG_URL.
func (a *app) remote(cmd *cobra.Command) catalog.Service {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = a.cfg.CatalogURL
	}
	return clients.NewCatalogClient(url, nil)
}

func addURLFlag(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "Catalog server URL (default $CATALOG_URL)")
}
