package attempt

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/at-ishikawa/ecoute/internal/csvstore"
	"github.com/at-ishikawa/ecoute/internal/timestamp"
)

const (
	ColumnID           = "id"
	ColumnSentenceID   = "sentence_id"
	ColumnTargetLang   = "target_lang"
	ColumnASRLang      = "asr_lang"
	ColumnASRText      = "asr_text"
	ColumnScore        = "score"
	ColumnWordsTotal   = "words_total"
	ColumnWordsCorrect = "words_correct"
	ColumnDiffJSON     = "diff_json"
	ColumnDurationMS   = "duration_ms"
	ColumnCreatedAt    = "created_at"

	DefaultTargetLang = "fr-FR"
)

// Columns is the column order of the attempts file.
var Columns = []string{
	ColumnID,
	ColumnSentenceID,
	ColumnTargetLang,
	ColumnASRLang,
	ColumnASRText,
	ColumnScore,
	ColumnWordsTotal,
	ColumnWordsCorrect,
	ColumnDiffJSON,
	ColumnDurationMS,
	ColumnCreatedAt,
}

// ToRow renders a as a row. The diff is stored as a JSON array.
func ToRow(a Attempt) csvstore.Row {
	return csvstore.Row{
		ColumnID:           a.ID,
		ColumnSentenceID:   a.SentenceID,
		ColumnTargetLang:   a.TargetLang,
		ColumnASRLang:      a.ASRLang,
		ColumnASRText:      a.ASRText,
		ColumnScore:        strconv.FormatFloat(a.Score, 'f', -1, 64),
		ColumnWordsTotal:   strconv.Itoa(a.WordsTotal),
		ColumnWordsCorrect: strconv.Itoa(a.WordsCorrect),
		ColumnDiffJSON:     encodeDiff(a.Diff),
		ColumnDurationMS:   strconv.Itoa(a.DurationMS),
		ColumnCreatedAt:    a.CreatedAt,
	}
}

// FromRow decodes a row. Unreadable numbers become 0 and an unreadable diff
// becomes an empty one, so a damaged column never hides the rest of the row.
func FromRow(row csvstore.Row) Attempt {
	a := Attempt{
		ID:           row[ColumnID],
		SentenceID:   row[ColumnSentenceID],
		TargetLang:   row[ColumnTargetLang],
		ASRLang:      row[ColumnASRLang],
		ASRText:      row[ColumnASRText],
		Score:        parseFloat(row[ColumnScore]),
		WordsTotal:   parseInt(row[ColumnWordsTotal]),
		WordsCorrect: parseInt(row[ColumnWordsCorrect]),
		Diff:         decodeDiff(row[ColumnID], row[ColumnDiffJSON]),
		DurationMS:   parseInt(row[ColumnDurationMS]),
		CreatedAt:    row[ColumnCreatedAt],
	}
	if a.TargetLang == "" {
		a.TargetLang = DefaultTargetLang
	}
	if a.ASRLang == "" {
		a.ASRLang = a.TargetLang
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == "" {
		a.CreatedAt = timestamp.Now()
	}
	return a
}

func encodeDiff(diff []DiffToken) string {
	if len(diff) == 0 {
		return "[]"
	}
	b, err := json.Marshal(diff)
	if err != nil {
		// DiffToken only holds strings, so this cannot happen.
		return "[]"
	}
	return string(b)
}

func decodeDiff(id, value string) []DiffToken {
	diff := []DiffToken{}
	if value == "" {
		return diff
	}
	if err := json.Unmarshal([]byte(value), &diff); err != nil {
		slog.Default().Debug("unreadable diff_json",
			slog.String("id", id),
			slog.Any("error", err),
		)
		return []DiffToken{}
	}
	if diff == nil {
		return []DiffToken{}
	}
	for _, token := range diff {
		if !token.Op.Valid() {
			slog.Default().Debug("unknown diff op",
				slog.String("id", id),
				slog.String("op", string(token.Op)),
			)
			return []DiffToken{}
		}
	}
	return diff
}

func parseInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
