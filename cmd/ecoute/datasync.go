package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/ecoute/internal/database"
	"github.com/at-ishikawa/ecoute/internal/datasync"
)

func newDatasyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasync",
		Short: "Copy the CSV stores into other storage",
	}
	cmd.AddCommand(newDatasyncMySQLCommand())
	return cmd
}

func newDatasyncMySQLCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "mysql",
		Short: "Mirror sentences and attempts into MySQL tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sentences, attempts, err := openRepositories(cfg)
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() { _ = db.Close() }()

			mirror := datasync.NewMirror(db, sentences, attempts, cmd.OutOrStdout())
			if _, err := mirror.Sync(cmd.Context(), datasync.SyncOptions{DryRun: dryRun}); err != nil {
				return fmt.Errorf("mirror.Sync() > %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report counts without modifying the database")
	return cmd
}
