// Package sentence provides the practice sentence model, its CSV row codec
// and repositories.
package sentence

import (
	"strings"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

const (
	DefaultTargetLang      = "fr-FR"
	DefaultTranslationLang = "zh-CN"
	DefaultDifficulty      = DifficultyMedium
)

// Sentence is a practice sentence in a target language with an optional translation.
type Sentence struct {
	ID              string     `json:"id"`
	TargetLang      string     `json:"target_lang"`
	SentenceText    string     `json:"sentence_text"`
	TranslationLang string     `json:"translation_lang"`
	TranslationText *string    `json:"translation_text"`
	Difficulty      Difficulty `json:"difficulty"`
	Tags            string     `json:"tags"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
}

// Patch holds the fields of a partial update. Nil fields keep their current value.
type Patch struct {
	TargetLang      *string
	SentenceText    *string
	TranslationLang *string
	// An empty string clears the translation.
	TranslationText *string
	Difficulty      *Difficulty
	Tags            *string
}

// ApplyTo merges the patch over s and stamps UpdatedAt with now.
func (p Patch) ApplyTo(s *Sentence, now string) {
	if p.TargetLang != nil {
		s.TargetLang = *p.TargetLang
	}
	if p.SentenceText != nil {
		s.SentenceText = *p.SentenceText
	}
	if p.TranslationLang != nil {
		s.TranslationLang = *p.TranslationLang
	}
	if p.TranslationText != nil {
		if *p.TranslationText == "" {
			s.TranslationText = nil
		} else {
			text := *p.TranslationText
			s.TranslationText = &text
		}
	}
	if p.Difficulty != nil {
		s.Difficulty = *p.Difficulty
	}
	if p.Tags != nil {
		s.Tags = *p.Tags
	}
	s.UpdatedAt = now
}

// Filter narrows a list of sentences. Zero values match everything.
type Filter struct {
	Difficulty      Difficulty
	TargetLang      string
	TranslationLang string
	// Search is matched case-insensitively against the sentence and its translation.
	Search string
	Offset int
	// Limit <= 0 means no limit.
	Limit int
}

// Apply returns the matching sentences in their original order, paginated by Offset and Limit.
func (f Filter) Apply(sentences []Sentence) []Sentence {
	search := strings.ToLower(f.Search)

	filtered := make([]Sentence, 0, len(sentences))
	for _, s := range sentences {
		if f.Difficulty != "" && s.Difficulty != f.Difficulty {
			continue
		}
		if f.TargetLang != "" && s.TargetLang != f.TargetLang {
			continue
		}
		if f.TranslationLang != "" && s.TranslationLang != f.TranslationLang {
			continue
		}
		if search != "" {
			translation := ""
			if s.TranslationText != nil {
				translation = *s.TranslationText
			}
			haystack := strings.ToLower(s.SentenceText + " " + translation)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		filtered = append(filtered, s)
	}

	if f.Offset >= len(filtered) {
		return []Sentence{}
	}
	filtered = filtered[max(f.Offset, 0):]
	if f.Limit > 0 && f.Limit < len(filtered) {
		filtered = filtered[:f.Limit]
	}
	return filtered
}
