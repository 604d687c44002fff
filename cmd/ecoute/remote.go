package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/client"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

func newRemoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with a running API server",
	}

	sentencesCommand := &cobra.Command{
		Use:   "sentences",
		Short: "Manage sentences on the server",
	}
	sentencesCommand.AddCommand(
		newRemoteSentencesListCommand(),
		newRemoteSentencesImportCommand(),
		newRemoteSentencesExportCommand(),
	)

	attemptsCommand := &cobra.Command{
		Use:   "attempts",
		Short: "Browse attempts on the server",
	}
	attemptsCommand.AddCommand(newRemoteAttemptsListCommand())

	cmd.AddCommand(sentencesCommand, attemptsCommand)
	return cmd
}

func newRemoteSentencesListCommand() *cobra.Command {
	var params client.ListSentencesParams
	var difficulty string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sentences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			apiClient := newAPIClient(cfg)
			defer func() { _ = apiClient.Close() }()

			params.Difficulty = sentence.Difficulty(difficulty)
			sentences, err := apiClient.ListSentences(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("apiClient.ListSentences() > %w", err)
			}

			if len(sentences) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No sentences found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tLANG\tDIFFICULTY\tSENTENCE\tTRANSLATION")
			for _, s := range sentences {
				translation := ""
				if s.TranslationText != nil {
					translation = *s.TranslationText
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.TargetLang, s.Difficulty, s.SentenceText, translation)
			}
			return w.Flush()
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&params.Limit, "limit", 0, "Maximum number of sentences. The server default applies when 0")
	flags.IntVar(&params.Offset, "offset", 0, "Number of sentences to skip")
	flags.StringVar(&difficulty, "difficulty", "", "easy, medium or hard")
	flags.StringVar(&params.Search, "search", "", "Case-insensitive text search")
	flags.StringVar(&params.TargetLang, "target-lang", "", "Target language")
	flags.StringVar(&params.TranslationLang, "translation-lang", "", "Translation language")
	return cmd
}

func newRemoteSentencesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upload a CSV file, replacing every sentence on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("os.ReadFile(%s) > %w", args[0], err)
			}

			apiClient := newAPIClient(cfg)
			defer func() { _ = apiClient.Close() }()

			n, err := apiClient.ImportSentences(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return fmt.Errorf("apiClient.ImportSentences() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sentences\n", n)
			return nil
		},
	}
}

func newRemoteSentencesExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every sentence as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			apiClient := newAPIClient(cfg)
			defer func() { _ = apiClient.Close() }()

			data, err := apiClient.ExportSentences(cmd.Context())
			if err != nil {
				return fmt.Errorf("apiClient.ExportSentences() > %w", err)
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("os.WriteFile(%s) > %w", output, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file. Written to stdout when empty")
	return cmd
}

func newRemoteAttemptsListCommand() *cobra.Command {
	var filter attempt.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			apiClient := newAPIClient(cfg)
			defer func() { _ = apiClient.Close() }()

			attempts, err := apiClient.ListAttempts(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("apiClient.ListAttempts() > %w", err)
			}

			if len(attempts) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No attempts found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "CREATED_AT\tSENTENCE_ID\tLANG\tSCORE\tWORDS\tASR_TEXT")
			for _, a := range attempts {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d/%d\t%s\n",
					a.CreatedAt, a.SentenceID, a.TargetLang, a.Score, a.WordsCorrect, a.WordsTotal, a.ASRText)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&filter.SentenceID, "sentence-id", "", "Only list attempts of this sentence")
	cmd.Flags().StringVar(&filter.TargetLang, "target-lang", "", "Only list attempts in this language")
	return cmd
}
