package server

import (
	"fmt"
	"net/http"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/timestamp"
)

type createAttemptRequest struct {
	SentenceID   string              `json:"sentence_id" validate:"required"`
	TargetLang   string              `json:"target_lang" validate:"required,min=2"`
	ASRLang      string              `json:"asr_lang" validate:"required,min=2"`
	ASRText      string              `json:"asr_text"`
	Score        *float64            `json:"score" validate:"required,gte=0,lte=1"`
	WordsTotal   int                 `json:"words_total" validate:"gte=0"`
	WordsCorrect int                 `json:"words_correct" validate:"gte=0"`
	Diff         []attempt.DiffToken `json:"diff_json" validate:"dive"`
	DurationMS   int                 `json:"duration_ms" validate:"gte=0"`
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.attempts.FindAll(r.Context())
	if err != nil {
		writeInternal(w, r, fmt.Errorf("attempts.FindAll() > %w", err))
		return
	}
	filter := attempt.Filter{
		SentenceID: r.URL.Query().Get("sentence_id"),
		TargetLang: r.URL.Query().Get("target_lang"),
	}
	writeJSON(w, http.StatusOK, filter.Apply(attempts))
}

func (h *Handler) createAttempt(w http.ResponseWriter, r *http.Request) {
	var req createAttemptRequest
	if !h.decodeAndValidate(w, r, &req, func() {
		if req.TargetLang == "" {
			req.TargetLang = h.targetLang
		}
		if req.ASRLang == "" {
			req.ASRLang = req.TargetLang
		}
	}) {
		return
	}

	a := attempt.Attempt{
		ID:           h.newID(),
		SentenceID:   req.SentenceID,
		TargetLang:   req.TargetLang,
		ASRLang:      req.ASRLang,
		ASRText:      req.ASRText,
		Score:        *req.Score,
		WordsTotal:   req.WordsTotal,
		WordsCorrect: req.WordsCorrect,
		Diff:         req.Diff,
		DurationMS:   req.DurationMS,
		CreatedAt:    timestamp.Format(h.now()),
	}
	if a.Diff == nil {
		a.Diff = []attempt.DiffToken{}
	}
	if err := h.attempts.Create(r.Context(), &a); err != nil {
		writeInternal(w, r, fmt.Errorf("attempts.Create() > %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
