package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/at-ishikawa/ecoute/internal/statistics"
)

const (
	weakScore     = 0.5
	moderateScore = 0.8
)

// ReportCLI prints attempt statistics as a table
type ReportCLI struct {
	stdoutWriter io.Writer
	bold         *color.Color
	red          *color.Color
	yellow       *color.Color
	green        *color.Color
}

func NewReportCLI(stdoutWriter io.Writer) *ReportCLI {
	return &ReportCLI{
		stdoutWriter: stdoutWriter,
		bold:         color.New(color.Bold),
		red:          color.New(color.FgRed),
		yellow:       color.New(color.FgYellow),
		green:        color.New(color.FgGreen),
	}
}

func (r *ReportCLI) scoreColor(score float64) *color.Color {
	switch {
	case score < weakScore:
		return r.red
	case score < moderateScore:
		return r.yellow
	default:
		return r.green
	}
}

// Write prints one row per sentence, weakest first, followed by a summary line.
func (r *ReportCLI) Write(result statistics.StatisticsResult) error {
	if len(result.Sentences) == 0 {
		if _, err := fmt.Fprintln(r.stdoutWriter, "No attempts recorded yet."); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
		return nil
	}

	w := tabwriter.NewWriter(r.stdoutWriter, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "SENTENCE\tLANG\tATTEMPTS\tBEST\tLATEST\tACCURACY\tMEAN"); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	for _, s := range result.Sentences {
		text := s.SentenceText
		if text == "" {
			text = fmt.Sprintf("(deleted %s)", s.SentenceID)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.0f%%\t%s\n",
			text,
			s.TargetLang,
			s.Attempts,
			s.BestScore,
			s.LatestScore,
			s.Accuracy()*100,
			r.scoreColor(s.MeanScore).Sprintf("%.2f", s.MeanScore),
		); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("tabwriter.Flush() > %w", err)
	}

	aggregate := result.Aggregate
	if _, err := r.bold.Fprintf(r.stdoutWriter, "\n%d attempts on %d sentences, mean score %.2f, accuracy %.0f%%\n",
		aggregate.Attempts,
		aggregate.Sentences,
		aggregate.MeanScore,
		aggregate.Accuracy()*100,
	); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	return nil
}
