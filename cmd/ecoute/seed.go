package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/ecoute/internal/seed"
	"github.com/at-ishikawa/ecoute/internal/timestamp"
)

func newSeedCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the sentence store with the bundled sentence bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sentences, _, err := openRepositories(cfg)
			if err != nil {
				return err
			}
			bank, err := seed.DefaultBank()
			if err != nil {
				return fmt.Errorf("seed.DefaultBank() > %w", err)
			}

			n, err := seed.Seed(cmd.Context(), sentences, bank, force, timestamp.Now(), uuid.NewString)
			if err != nil {
				return fmt.Errorf("seed.Seed() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d sentences into %s\n", n, cfg.Data.SentencesPath())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace existing sentences")
	return cmd
}
