package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/searchmap/internal/cli/ui"
	"github.com/conduit-lang/searchmap/internal/outbox"
)

// openDB opens the outbox database. Tests replace it.
var openDB = func(ctx context.Context, databaseURL string) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid outbox.database_url: %w", err)
	}
	db := stdlib.OpenDB(*connConfig)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", redactURL(databaseURL), err)
	}
	return db, nil
}

func newOutboxCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and repair the change event outbox",
		Example: `  # Create the outbox table
  searchmap outbox init

  # Show event counts
  searchmap outbox status

  # List failed events and retry them
  searchmap outbox failed
  searchmap outbox retry`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the outbox table",
		RunE: withQueue(opts, func(cmd *cobra.Command, q *outbox.Queue) error {
			if err := q.CreateTable(cmd.Context()); err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Outbox table %s is ready", q.Table()), color.NoColor)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show event counts per status",
		RunE: withQueue(opts, func(cmd *cobra.Command, q *outbox.Queue) error {
			stats, err := q.Stats(cmd.Context())
			if err != nil {
				return err
			}
			table := ui.NewTable(cmd.OutOrStdout(), color.NoColor, "STATUS", "EVENTS")
			table.AddRow(string(outbox.StatusPending), fmt.Sprint(stats.Pending))
			table.AddRow(string(outbox.StatusRunning), fmt.Sprint(stats.Running))
			table.AddRow(string(outbox.StatusCompleted), fmt.Sprint(stats.Completed))
			table.AddRow(string(outbox.StatusFailed), fmt.Sprint(stats.Failed))
			table.Render()
			if stats.Failed > 0 {
				fmt.Fprint(cmd.OutOrStdout(), ui.Warning(
					fmt.Sprintf("%d failed events; run 'searchmap outbox retry' after fixing the cause", stats.Failed),
					color.NoColor))
			}
			return nil
		}),
	})

	var limit int
	failed := &cobra.Command{
		Use:   "failed",
		Short: "List failed events",
		RunE: withQueue(opts, func(cmd *cobra.Command, q *outbox.Queue) error {
			events, err := q.ListFailed(cmd.Context(), limit)
			if err != nil {
				return err
			}
			table := ui.NewTable(cmd.OutOrStdout(), color.NoColor, "ID", "ENTITY", "OPERATION", "ATTEMPTS", "ERROR")
			for _, e := range events {
				errMsg := ""
				if e.Error != nil {
					errMsg = *e.Error
				}
				table.AddRow(e.ID.String(), e.EntityType+"#"+e.EntityID, string(e.Operation),
					fmt.Sprintf("%d/%d", e.Attempts, e.MaxAttempts), errMsg)
			}
			table.Render()
			return nil
		}),
	}
	failed.Flags().IntVar(&limit, "limit", 50, "maximum number of events to list")
	cmd.AddCommand(failed)

	cmd.AddCommand(&cobra.Command{
		Use:   "retry",
		Short: "Move failed events back to pending",
		RunE: withQueue(opts, func(cmd *cobra.Command, q *outbox.Queue) error {
			n, err := q.RetryFailed(cmd.Context())
			if err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d events scheduled for retry", n), color.NoColor)
			return nil
		}),
	})

	var olderThan time.Duration
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete completed events",
		RunE: withQueue(opts, func(cmd *cobra.Command, q *outbox.Queue) error {
			n, err := q.PurgeCompleted(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%d completed events deleted", n), color.NoColor)
			return nil
		}),
	}
	purge.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "only delete events completed before this age")
	cmd.AddCommand(purge)

	return cmd
}

// withQueue loads the configuration and opens the outbox before running fn
func withQueue(opts *globalOptions, fn func(cmd *cobra.Command, q *outbox.Queue) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := opts.load(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if cfg.Outbox.DatabaseURL == "" {
			err := fmt.Errorf("outbox.database_url is not set")
			fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err, color.NoColor))
			return err
		}

		db, err := openDB(cmd.Context(), cfg.Outbox.DatabaseURL)
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.OutboxError(err, color.NoColor))
			return err
		}
		defer db.Close()

		q, err := outbox.NewQueue(db, cfg.Outbox.Table)
		if err != nil {
			return err
		}
		if err := fn(cmd, q); err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.OutboxError(err, color.NoColor))
			return err
		}
		return nil
	}
}
