// Package pdf renders printable study sheets.
package pdf

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"

	"github.com/at-ishikawa/ecoute/internal/sentence"
)

var difficultyHeadings = []struct {
	difficulty sentence.Difficulty
	heading    string
}{
	{difficulty: sentence.DifficultyEasy, heading: "Easy"},
	{difficulty: sentence.DifficultyMedium, heading: "Medium"},
	{difficulty: sentence.DifficultyHard, heading: "Hard"},
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

// RenderMarkdown lays the sentences out as one table per difficulty.
// Empty difficulties are left out.
func RenderMarkdown(title string, sentences []sentence.Sentence) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", title)

	for _, h := range difficultyHeadings {
		var rows []sentence.Sentence
		for _, s := range sentences {
			if s.Difficulty == h.difficulty {
				rows = append(rows, s)
			}
		}
		if len(rows) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "## %s\n\n", h.heading)
		buf.WriteString("| # | Sentence | Translation | Tags |\n")
		buf.WriteString("|---|---|---|---|\n")
		for i, s := range rows {
			translation := ""
			if s.TranslationText != nil {
				translation = *s.TranslationText
			}
			fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n",
				i+1,
				cellReplacer.Replace(s.SentenceText),
				cellReplacer.Replace(translation),
				cellReplacer.Replace(s.Tags),
			)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// WriteStudySheet converts the sentences into a PDF at pdfPath and returns its absolute path.
func WriteStudySheet(pdfPath string, title string, sentences []sentence.Sentence) (string, error) {
	if !strings.HasSuffix(pdfPath, ".pdf") {
		return "", fmt.Errorf("output file must have .pdf extension: %s", pdfPath)
	}

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(RenderMarkdown(title, sentences)); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}
	return absPath, nil
}
