// Package attempt provides the practice attempt model, its CSV row codec and
// repositories. Attempts are immutable once stored.
package attempt

// DiffOp tags one step of the word alignment between the reference sentence
// and the recognized text.
type DiffOp string

const (
	DiffOpMatch        DiffOp = "match"
	DiffOpSubstitution DiffOp = "sub"
	DiffOpDeletion     DiffOp = "del"
	DiffOpInsertion    DiffOp = "ins"
)

func (op DiffOp) Valid() bool {
	switch op {
	case DiffOpMatch, DiffOpSubstitution, DiffOpDeletion, DiffOpInsertion:
		return true
	}
	return false
}

// DiffToken is one aligned word. Ref is absent for insertions and Hyp for deletions.
type DiffToken struct {
	Op  DiffOp  `json:"op" validate:"required,oneof=match sub del ins"`
	Ref *string `json:"ref,omitempty"`
	Hyp *string `json:"hyp,omitempty"`
}

// Attempt is one spoken try at a sentence, scored by the caller.
type Attempt struct {
	ID           string      `json:"id"`
	SentenceID   string      `json:"sentence_id"`
	TargetLang   string      `json:"target_lang"`
	ASRLang      string      `json:"asr_lang"`
	ASRText      string      `json:"asr_text"`
	Score        float64     `json:"score"`
	WordsTotal   int         `json:"words_total"`
	WordsCorrect int         `json:"words_correct"`
	Diff         []DiffToken `json:"diff_json"`
	DurationMS   int         `json:"duration_ms"`
	CreatedAt    string      `json:"created_at"`
}

// Filter narrows a list of attempts. Zero values match everything.
type Filter struct {
	SentenceID string
	TargetLang string
}

// Apply returns the matching attempts in their original order.
func (f Filter) Apply(attempts []Attempt) []Attempt {
	filtered := make([]Attempt, 0, len(attempts))
	for _, a := range attempts {
		if f.SentenceID != "" && a.SentenceID != f.SentenceID {
			continue
		}
		if f.TargetLang != "" && a.TargetLang != f.TargetLang {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}
