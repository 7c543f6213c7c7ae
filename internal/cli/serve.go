// internal/cli/serve.go
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"libracatalog/internal/catalog"
	"libracatalog/internal/config"
	"libracatalog/internal/eventstore"
	"libracatalog/internal/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Starts an empty catalog, optionally seeded from $CATALOG_SEED_FILE, and
serves it over HTTP. Every successful add, borrow and return is journaled,
in memory by default or to Postgres when $JOURNAL_DSN is set.`,
		Example: `  # Start server on default port 8081
  catalog serve

  # Start server on custom port with a seed file
  CATALOG_SEED_FILE=books.yaml catalog serve --port 3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if port == "" {
				port = a.cfg.Port
			}

			shutdownTracing, err := telemetry.SetupTracing(ctx, a.cfg.OTLPEndpoint, a.cfg.ServiceName)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					a.logger.Error("Tracer shutdown failed", "err", err)
				}
			}()

			journal, db, err := openJournal(ctx, a.cfg.JournalDSN)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			c := catalog.New(catalog.WithJournal(journal))
			if a.cfg.SeedFile != "" {
				if err := seedCatalog(ctx, c, a.cfg.SeedFile); err != nil {
					return err
				}
				a.logger.Info("Catalog seeded", "file", a.cfg.SeedFile)
			}

			var limiter *rate.Limiter
			if a.cfg.RateLimitRPS > 0 {
				limiter = rate.NewLimiter(rate.Limit(a.cfg.RateLimitRPS), a.cfg.RateLimitBurst)
			}

			return serve(ctx, a.logger, ":"+port, catalog.NewRouter(c, a.logger, limiter))
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $PORT or 8081)")

	return cmd
}

func openJournal(ctx context.Context, dsn string) (eventstore.Journal, *sql.DB, error) {
	if dsn == "" {
		return eventstore.NewMemoryJournal(), nil, nil
	}
	db, err := eventstore.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return eventstore.NewPostgresJournal(db), db, nil
}

func seedCatalog(ctx context.Context, svc catalog.Service, path string) error {
	seed, err := config.LoadSeed(path)
	if err != nil {
		return err
	}
	for _, b := range seed.Books {
		if err := svc.AddItem(ctx, catalog.NewItem(b.ISBN, b.Title, b.Author, b.Year)); err != nil {
			return fmt.Errorf("seed %s: %w", b.ISBN, err)
		}
		if b.Borrowed {
			if err := svc.BorrowItem(ctx, b.ISBN); err != nil {
				return fmt.Errorf("seed %s: %w", b.ISBN, err)
			}
		}
	}
	return nil
}

func serve(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Catalog available", "addr", addr, "url", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "err", err)
			return err
		}
		logger.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
