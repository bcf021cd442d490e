package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/jobs"
)

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := db.New(cmd.Context(), c.cfg.PGDSN, db.Options{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()
			applied, err := db.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			return nil
		},
	}
}

func (c *cli) sweepOverdueCommand() *cobra.Command {
	var (
		asOf    string
		enqueue bool
	)
	cmd := &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Flag sent invoices and bills past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if asOf != "" {
				parsed, err := time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				at = parsed
			}
			if enqueue {
				client := jobs.NewClient(asynq.RedisClientOpt{Addr: c.cfg.RedisAddr})
				defer client.Close()
				info, err := client.EnqueueOverdueSweep(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.ID, info.Queue)
				return nil
			}
			pool, err := db.New(cmd.Context(), c.cfg.PGDSN, db.Options{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()
			n, err := jobs.NewOverdueSweepJob(documents.NewStore(pool), timeline.NewRecorder(timeline.NewRepository(pool), c.logger, 0), c.logger, nil).Run(cmd.Context(), at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d documents marked overdue\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference time (RFC3339), defaults to now")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "hand the sweep to the worker instead of running it inline")
	return cmd
}

func (c *cli) cleanupIdempotencyCommand() *cobra.Command {
	var retention time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup-idempotency",
		Short: "Delete idempotency keys older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if retention <= 0 {
				return fmt.Errorf("--retention must be positive")
			}
			pool, err := db.New(cmd.Context(), c.cfg.PGDSN, db.Options{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()
			n, err := shared.NewIdempotencyStore(pool).Cleanup(cmd.Context(), retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d keys deleted\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 72*time.Hour, "keep keys younger than this")
	return cmd
}

func (c *cli) timelineCommand() *cobra.Command {
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "timeline ORDER_ID",
		Short: "Print an order's audit trail as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := db.New(cmd.Context(), c.cfg.PGDSN, db.Options{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()
			recorder := timeline.NewRecorder(timeline.NewRepository(pool), c.logger, 0)
			result, err := recorder.Query(cmd.Context(), args[0], shared.Page{Page: page, PageSize: perPage})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 20, "entries per page")
	return cmd
}
