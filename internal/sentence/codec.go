package sentence

import (
	"github.com/google/uuid"

	"github.com/at-ishikawa/ecoute/internal/csvstore"
	"github.com/at-ishikawa/ecoute/internal/timestamp"
)

const (
	ColumnID              = "id"
	ColumnTargetLang      = "target_lang"
	ColumnSentenceText    = "sentence_text"
	ColumnTranslationLang = "translation_lang"
	ColumnTranslationText = "translation_text"
	ColumnDifficulty      = "difficulty"
	ColumnTags            = "tags"
	ColumnCreatedAt       = "created_at"
	ColumnUpdatedAt       = "updated_at"
)

// Columns is the column order of the sentences file.
var Columns = []string{
	ColumnID,
	ColumnTargetLang,
	ColumnSentenceText,
	ColumnTranslationLang,
	ColumnTranslationText,
	ColumnDifficulty,
	ColumnTags,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

// ToRow renders s as a row. A missing translation renders as "".
func ToRow(s Sentence) csvstore.Row {
	translation := ""
	if s.TranslationText != nil {
		translation = *s.TranslationText
	}
	return csvstore.Row{
		ColumnID:              s.ID,
		ColumnTargetLang:      s.TargetLang,
		ColumnSentenceText:    s.SentenceText,
		ColumnTranslationLang: s.TranslationLang,
		ColumnTranslationText: translation,
		ColumnDifficulty:      string(s.Difficulty),
		ColumnTags:            s.Tags,
		ColumnCreatedAt:       s.CreatedAt,
		ColumnUpdatedAt:       s.UpdatedAt,
	}
}

// FromRow decodes a row, filling empty columns with defaults: a new id,
// fr-FR / zh-CN languages, medium difficulty and the current time.
func FromRow(row csvstore.Row) Sentence {
	s := Sentence{
		ID:              row[ColumnID],
		TargetLang:      orDefault(row[ColumnTargetLang], DefaultTargetLang),
		SentenceText:    row[ColumnSentenceText],
		TranslationLang: orDefault(row[ColumnTranslationLang], DefaultTranslationLang),
		Difficulty:      Difficulty(orDefault(row[ColumnDifficulty], string(DefaultDifficulty))),
		Tags:            row[ColumnTags],
		CreatedAt:       row[ColumnCreatedAt],
		UpdatedAt:       row[ColumnUpdatedAt],
	}
	if translation := row[ColumnTranslationText]; translation != "" {
		s.TranslationText = &translation
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt == "" || s.UpdatedAt == "" {
		now := timestamp.Now()
		s.CreatedAt = orDefault(s.CreatedAt, now)
		s.UpdatedAt = orDefault(s.UpdatedAt, now)
	}
	return s
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
