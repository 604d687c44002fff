// Package server provides the JSON HTTP API over the sentence and attempt
// repositories.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

// DefaultMaxUploadBytes bounds the size of an imported file.
const DefaultMaxUploadBytes = 10 << 20

// Handler serves the API. All routes are relative to the handler's mount point.
type Handler struct {
	sentences sentence.Repository
	attempts  attempt.Repository

	validate *validator.Validate
	trans    ut.Translator

	now             func() time.Time
	newID           func() string
	targetLang      string
	translationLang string
	maxUploadBytes  int64

	mux *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock replaces time.Now for timestamps and export file names.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithIDGenerator replaces the random UUID generator for new records.
func WithIDGenerator(newID func() string) Option {
	return func(h *Handler) {
		h.newID = newID
	}
}

// WithDefaultLanguages sets the languages used when a request omits them.
func WithDefaultLanguages(targetLang, translationLang string) Option {
	return func(h *Handler) {
		if targetLang != "" {
			h.targetLang = targetLang
		}
		if translationLang != "" {
			h.translationLang = translationLang
		}
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler wires the routes to the given repositories.
func NewHandler(sentences sentence.Repository, attempts attempt.Repository, opts ...Option) (*Handler, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("newValidator() > %w", err)
	}

	h := &Handler{
		sentences:       sentences,
		attempts:        attempts,
		validate:        validate,
		trans:           trans,
		now:             time.Now,
		newID:           uuid.NewString,
		targetLang:      sentence.DefaultTargetLang,
		translationLang: sentence.DefaultTranslationLang,
		maxUploadBytes:  DefaultMaxUploadBytes,
		mux:             http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("GET /sentences", h.listSentences)
	h.mux.HandleFunc("POST /sentences", h.createSentence)
	h.mux.HandleFunc("PUT /sentences/{id}", h.updateSentence)
	h.mux.HandleFunc("DELETE /sentences/{id}", h.deleteSentence)
	h.mux.HandleFunc("GET /export/sentences", h.exportSentences)
	h.mux.HandleFunc("POST /import/sentences", h.importSentences)
	h.mux.HandleFunc("GET /attempts", h.listAttempts)
	h.mux.HandleFunc("POST /attempts", h.createAttempt)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rw, r)

	slog.Default().Info("request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rw.status),
		slog.Duration("duration", time.Since(start)),
	)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
