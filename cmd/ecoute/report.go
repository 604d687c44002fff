package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/cli"
	"github.com/at-ishikawa/ecoute/internal/statistics"
)

func newReportCommand() *cobra.Command {
	var filter attempt.Filter

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show attempt statistics per sentence, weakest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sentenceRepository, attemptRepository, err := openRepositories(cfg)
			if err != nil {
				return err
			}

			sentences, err := sentenceRepository.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("sentenceRepository.FindAll() > %w", err)
			}
			attempts, err := attemptRepository.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("attemptRepository.FindAll() > %w", err)
			}

			result := statistics.CalculateStatistics(sentences, filter.Apply(attempts))
			return cli.NewReportCLI(cmd.OutOrStdout()).Write(result)
		},
	}
	cmd.Flags().StringVar(&filter.SentenceID, "sentence-id", "", "Only include attempts of this sentence")
	cmd.Flags().StringVar(&filter.TargetLang, "target-lang", "", "Only include attempts in this language")
	return cmd
}
