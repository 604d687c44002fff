package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

func TestCalculateStatistics(t *testing.T) {
	sentences := []sentence.Sentence{
		{ID: "s1", SentenceText: "Bonjour"},
		{ID: "s2", SentenceText: "Je voudrais un café"},
		{ID: "s3", SentenceText: "Never practiced"},
	}

	tests := []struct {
		name     string
		attempts []attempt.Attempt
		want     StatisticsResult
	}{
		{
			name:     "no attempts",
			attempts: nil,
			want: StatisticsResult{
				Sentences: []SentenceStatistics{},
			},
		},
		{
			name: "weakest sentence first",
			attempts: []attempt.Attempt{
				{SentenceID: "s1", TargetLang: "fr-FR", Score: 1, WordsTotal: 1, WordsCorrect: 1, CreatedAt: "2025-01-01T10:00:00"},
				{SentenceID: "s2", TargetLang: "fr-FR", Score: 0.25, WordsTotal: 4, WordsCorrect: 1, CreatedAt: "2025-01-01T10:01:00"},
				{SentenceID: "s2", TargetLang: "fr-FR", Score: 0.75, WordsTotal: 4, WordsCorrect: 3, CreatedAt: "2025-01-02T10:00:00"},
				{SentenceID: "s1", TargetLang: "fr-FR", Score: 0.5, WordsTotal: 1, WordsCorrect: 0, CreatedAt: "2025-01-03T10:00:00"},
			},
			want: StatisticsResult{
				Sentences: []SentenceStatistics{
					{
						SentenceID: "s2", SentenceText: "Je voudrais un café", TargetLang: "fr-FR",
						Attempts: 2, MeanScore: 0.5, BestScore: 0.75, LatestScore: 0.75, LatestAt: "2025-01-02T10:00:00",
						WordsTotal: 8, WordsCorrect: 4,
					},
					{
						SentenceID: "s1", SentenceText: "Bonjour", TargetLang: "fr-FR",
						Attempts: 2, MeanScore: 0.75, BestScore: 1, LatestScore: 0.5, LatestAt: "2025-01-03T10:00:00",
						WordsTotal: 2, WordsCorrect: 1,
					},
				},
				Aggregate: AggregateStatistics{
					Sentences: 2, Attempts: 4, MeanScore: 0.625, WordsTotal: 10, WordsCorrect: 5,
				},
			},
		},
		{
			name: "ties are ordered by sentence id and same timestamps keep the later attempt",
			attempts: []attempt.Attempt{
				{SentenceID: "gone", TargetLang: "es-ES", Score: 0, CreatedAt: "2025-01-01T10:00:00"},
				{SentenceID: "s1", TargetLang: "fr-FR", Score: 0.5, CreatedAt: "2025-01-01T10:00:00"},
				{SentenceID: "gone", TargetLang: "es-ES", Score: 1, CreatedAt: "2025-01-01T10:00:00"},
				{SentenceID: "s1", TargetLang: "fr-FR", Score: 0.5, CreatedAt: "2025-01-01T09:00:00"},
			},
			want: StatisticsResult{
				Sentences: []SentenceStatistics{
					{
						SentenceID: "gone", TargetLang: "es-ES",
						Attempts: 2, MeanScore: 0.5, BestScore: 1, LatestScore: 1, LatestAt: "2025-01-01T10:00:00",
					},
					{
						SentenceID: "s1", SentenceText: "Bonjour", TargetLang: "fr-FR",
						Attempts: 2, MeanScore: 0.5, BestScore: 0.5, LatestScore: 0.5, LatestAt: "2025-01-01T10:00:00",
					},
				},
				Aggregate: AggregateStatistics{Sentences: 2, Attempts: 4, MeanScore: 0.5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateStatistics(sentences, tt.attempts)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.0, SentenceStatistics{}.Accuracy())
	assert.Equal(t, 0.75, SentenceStatistics{WordsTotal: 4, WordsCorrect: 3}.Accuracy())
	assert.Equal(t, 0.0, AggregateStatistics{}.Accuracy())
	assert.Equal(t, 0.5, AggregateStatistics{WordsTotal: 10, WordsCorrect: 5}.Accuracy())
}
