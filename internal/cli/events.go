// internal/cli/events.go
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"libracatalog/internal/eventstore"
)

func newEventsCmd(a *app) *cobra.Command {
	var (
		after     int64
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the journal across all books",
		Long: `Reads the journal at $JOURNAL_DSN directly, oldest event first, and prints
one line per event. Without $JOURNAL_DSN there is no durable journal to read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JournalDSN == "" {
				return fmt.Errorf("JOURNAL_DSN is not set")
			}
			journal, db, err := openJournal(cmd.Context(), a.cfg.JournalDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			return printEvents(cmd.Context(), cmd.OutOrStdout(), journal, after, batchSize)
		},
	}

	cmd.Flags().Int64Var(&after, "after", 0, "Only print events with a greater id")
	cmd.Flags().IntVar(&batchSize, "batch", 100, "Events read per query")

	return cmd
}

func printEvents(ctx context.Context, out io.Writer, journal eventstore.Journal, after int64, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	for {
		events, err := journal.StreamEvents(ctx, after, batchSize)
		if err != nil {
			return fmt.Errorf("failed to stream events: %w", err)
		}
		for _, e := range events {
			fmt.Fprintf(out, "%d %s v%d %s %s %s\n", e.ID, e.AggregateID, e.Version, e.CreatedAt.Format(time.RFC3339), e.EventType, e.EventData)
			after = e.ID
		}
		if len(events) < batchSize {
			return nil
		}
	}
}
