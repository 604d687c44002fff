package statistics

import (
	"sort"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

// SentenceStatistics holds the attempt statistics of one sentence
type SentenceStatistics struct {
	SentenceID   string
	SentenceText string // empty when the sentence no longer exists
	TargetLang   string
	Attempts     int
	MeanScore    float64
	BestScore    float64
	LatestScore  float64
	LatestAt     string
	WordsTotal   int
	WordsCorrect int
}

// Accuracy is the share of correct words, 0 when no words were scored
func (s SentenceStatistics) Accuracy() float64 {
	if s.WordsTotal == 0 {
		return 0
	}
	return float64(s.WordsCorrect) / float64(s.WordsTotal)
}

// AggregateStatistics holds totals across every attempt
type AggregateStatistics struct {
	Sentences    int
	Attempts     int
	MeanScore    float64
	WordsTotal   int
	WordsCorrect int
}

func (a AggregateStatistics) Accuracy() float64 {
	if a.WordsTotal == 0 {
		return 0
	}
	return float64(a.WordsCorrect) / float64(a.WordsTotal)
}

// StatisticsResult holds both per-sentence and aggregate statistics
type StatisticsResult struct {
	Sentences []SentenceStatistics
	Aggregate AggregateStatistics
}

type sentenceData struct {
	stats    SentenceStatistics
	scoreSum float64
}

// CalculateStatistics groups attempts by sentence.
// Sentences without attempts are left out. The weakest sentence, by mean score, comes first.
func CalculateStatistics(sentences []sentence.Sentence, attempts []attempt.Attempt) StatisticsResult {
	texts := make(map[string]string, len(sentences))
	for _, s := range sentences {
		texts[s.ID] = s.SentenceText
	}

	data := make(map[string]*sentenceData)
	var aggregate AggregateStatistics
	var scoreSum float64
	for _, a := range attempts {
		d, ok := data[a.SentenceID]
		if !ok {
			d = &sentenceData{stats: SentenceStatistics{
				SentenceID:   a.SentenceID,
				SentenceText: texts[a.SentenceID],
				TargetLang:   a.TargetLang,
				BestScore:    a.Score,
			}}
			data[a.SentenceID] = d
		}
		processAttempt(d, a)

		aggregate.Attempts++
		aggregate.WordsTotal += a.WordsTotal
		aggregate.WordsCorrect += a.WordsCorrect
		scoreSum += a.Score
	}

	result := buildResult(data)
	aggregate.Sentences = len(result)
	if aggregate.Attempts > 0 {
		aggregate.MeanScore = scoreSum / float64(aggregate.Attempts)
	}
	return StatisticsResult{
		Sentences: result,
		Aggregate: aggregate,
	}
}

func processAttempt(d *sentenceData, a attempt.Attempt) {
	d.stats.Attempts++
	d.scoreSum += a.Score
	d.stats.WordsTotal += a.WordsTotal
	d.stats.WordsCorrect += a.WordsCorrect
	if a.Score > d.stats.BestScore {
		d.stats.BestScore = a.Score
	}
	// Attempts are stored in creation order, so ties keep the later one
	if a.CreatedAt >= d.stats.LatestAt {
		d.stats.LatestAt = a.CreatedAt
		d.stats.LatestScore = a.Score
	}
}

func buildResult(data map[string]*sentenceData) []SentenceStatistics {
	result := make([]SentenceStatistics, 0, len(data))
	for _, d := range data {
		d.stats.MeanScore = d.scoreSum / float64(d.stats.Attempts)
		result = append(result, d.stats)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].MeanScore != result[j].MeanScore {
			return result[i].MeanScore < result[j].MeanScore
		}
		return result[i].SentenceID < result[j].SentenceID
	})
	return result
}
