package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/ecoute/internal/pdf"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

type ExportFormat string

func (f *ExportFormat) Set(val string) error {
	for _, format := range allExportFormats {
		if val == string(format) {
			*f = format
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s", val)
}

func (f ExportFormat) String() string {
	return string(f)
}

func (f *ExportFormat) Type() string {
	return "format"
}

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var (
	_                pflag.Value = (*ExportFormat)(nil)
	allExportFormats             = []ExportFormat{ExportFormatCSV, ExportFormatPDF}
)

const studySheetTitle = "Practice sentences"

func newExportCommand() *cobra.Command {
	format := ExportFormatCSV
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every sentence as CSV or as a PDF study sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repository, _, err := openRepositories(cfg)
			if err != nil {
				return err
			}
			sentences, err := repository.FindAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("repository.FindAll() > %w", err)
			}

			switch format {
			case ExportFormatPDF:
				if output == "" {
					output = "sentences.pdf"
				}
				path, err := pdf.WriteStudySheet(output, studySheetTitle, sentences)
				if err != nil {
					return fmt.Errorf("pdf.WriteStudySheet() > %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sentences to %s\n", len(sentences), path)
			case ExportFormatCSV:
				fallthrough
			default:
				var buf bytes.Buffer
				if err := sentence.WriteCSV(&buf, sentences); err != nil {
					return fmt.Errorf("sentence.WriteCSV() > %w", err)
				}
				if output == "" {
					_, err := cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("os.WriteFile(%s) > %w", output, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sentences to %s\n", len(sentences), output)
			}
			return nil
		},
	}
	cmd.Flags().Var(&format, "format", fmt.Sprintf("Output format. Possible values are %v", allExportFormats))
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file. CSV is written to stdout when empty")
	return cmd
}
