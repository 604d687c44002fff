// Package seed holds the bundled practice sentence bank.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/ecoute/internal/sentence"
)

//go:embed seed.yml
var defaultBank []byte

var ErrStoreNotEmpty = errors.New("sentence store is not empty")

type Bank struct {
	TargetLang      string  `yaml:"target_lang"`
	TranslationLang string  `yaml:"translation_lang"`
	Sentences       []Entry `yaml:"sentences"`
}

type Entry struct {
	Text        string              `yaml:"text"`
	Translation string              `yaml:"translation"`
	Difficulty  sentence.Difficulty `yaml:"difficulty"`
	Tags        string              `yaml:"tags"`
}

// DefaultBank returns the bank compiled into the binary.
func DefaultBank() (*Bank, error) {
	return Parse(defaultBank)
}

func Parse(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal() > %w", err)
	}
	if bank.TargetLang == "" {
		bank.TargetLang = sentence.DefaultTargetLang
	}
	if bank.TranslationLang == "" {
		bank.TranslationLang = sentence.DefaultTranslationLang
	}
	for i, entry := range bank.Sentences {
		if entry.Text == "" {
			return nil, fmt.Errorf("sentences[%d]: text is required", i)
		}
		if entry.Difficulty == "" {
			bank.Sentences[i].Difficulty = sentence.DefaultDifficulty
		} else if !entry.Difficulty.Valid() {
			return nil, fmt.Errorf("sentences[%d]: invalid difficulty %q", i, entry.Difficulty)
		}
	}
	return &bank, nil
}

// Records turns every entry into a new sentence created at now.
func (b *Bank) Records(now string, newID func() string) []sentence.Sentence {
	sentences := make([]sentence.Sentence, 0, len(b.Sentences))
	for _, entry := range b.Sentences {
		s := sentence.Sentence{
			ID:              newID(),
			TargetLang:      b.TargetLang,
			SentenceText:    entry.Text,
			TranslationLang: b.TranslationLang,
			Difficulty:      entry.Difficulty,
			Tags:            entry.Tags,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if entry.Translation != "" {
			translation := entry.Translation
			s.TranslationText = &translation
		}
		sentences = append(sentences, s)
	}
	return sentences
}

// Seed replaces the stored sentences with the bank.
// A store that already has sentences is left untouched unless force is set.
func Seed(ctx context.Context, repository sentence.Repository, bank *Bank, force bool, now string, newID func() string) (int, error) {
	existing, err := repository.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository.FindAll() > %w", err)
	}
	if len(existing) > 0 {
		if !force {
			return 0, fmt.Errorf("%w: %d sentences", ErrStoreNotEmpty, len(existing))
		}
		slog.Default().Warn("discarding existing sentences",
			slog.Int("count", len(existing)),
		)
	}

	sentences := bank.Records(now, newID)
	if err := repository.ReplaceAll(ctx, sentences); err != nil {
		return 0, fmt.Errorf("repository.ReplaceAll() > %w", err)
	}
	return len(sentences), nil
}
