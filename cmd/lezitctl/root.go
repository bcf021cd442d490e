package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/app"
)

// cli carries state shared by subcommands once the root pre-run has loaded
// configuration.
type cli struct {
	envFile string
	cfg     *app.Config
	logger  *slog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "lezitctl",
		Short:         "Operational tooling for the order lifecycle engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = app.NewLogger(cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		c.migrateCommand(),
		c.sweepOverdueCommand(),
		c.cleanupIdempotencyCommand(),
		c.timelineCommand(),
	)
	return root
}
