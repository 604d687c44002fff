package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/ecoute/internal/sentence"
	"github.com/at-ishikawa/ecoute/internal/timestamp"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace every sentence with the rows of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repository, _, err := openRepositories(cfg)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("os.ReadFile(%s) > %w", args[0], err)
			}
			sentences, err := sentence.ParseImport(data, timestamp.Now(), uuid.NewString)
			if err != nil {
				return fmt.Errorf("sentence.ParseImport(%s) > %w", args[0], err)
			}

			existing, err := repository.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("repository.FindAll() > %w", err)
			}
			if err := repository.ReplaceAll(ctx, sentences); err != nil {
				return fmt.Errorf("repository.ReplaceAll() > %w", err)
			}
			slog.Default().Warn("sentences replaced by import",
				slog.Int("previous", len(existing)),
				slog.Int("imported", len(sentences)),
			)

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sentences\n", len(sentences))
			return nil
		},
	}
}
