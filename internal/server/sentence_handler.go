package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"github.com/at-ishikawa/ecoute/internal/sentence"
	"github.com/at-ishikawa/ecoute/internal/timestamp"
)

const defaultListLimit = 100

type createSentenceRequest struct {
	TargetLang      string              `json:"target_lang" validate:"required,min=2"`
	SentenceText    string              `json:"sentence_text" validate:"required"`
	TranslationLang string              `json:"translation_lang" validate:"required,min=2"`
	TranslationText *string             `json:"translation_text"`
	Difficulty      sentence.Difficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Tags            string              `json:"tags"`
}

// updateSentenceRequest only changes the fields present in the body.
type updateSentenceRequest struct {
	TargetLang      *string              `json:"target_lang" validate:"omitnil,min=2"`
	SentenceText    *string              `json:"sentence_text" validate:"omitnil,min=1"`
	TranslationLang *string              `json:"translation_lang" validate:"omitnil,min=2"`
	TranslationText *string              `json:"translation_text"`
	Difficulty      *sentence.Difficulty `json:"difficulty" validate:"omitnil,oneof=easy medium hard"`
	Tags            *string              `json:"tags"`
}

func (r updateSentenceRequest) patch() sentence.Patch {
	return sentence.Patch{
		TargetLang:      r.TargetLang,
		SentenceText:    r.SentenceText,
		TranslationLang: r.TranslationLang,
		TranslationText: r.TranslationText,
		Difficulty:      r.Difficulty,
		Tags:            r.Tags,
	}
}

type listSentencesQuery struct {
	Limit           int                 `query:"limit" validate:"gte=1,lte=500"`
	Offset          int                 `query:"offset" validate:"gte=0"`
	Difficulty      sentence.Difficulty `query:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Search          string              `query:"search"`
	TargetLang      string              `query:"target_lang"`
	TranslationLang string              `query:"translation_lang"`
}

type importSentencesResponse struct {
	Imported int `json:"imported"`
}

func (h *Handler) listSentences(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	query := listSentencesQuery{
		Limit:           defaultListLimit,
		Difficulty:      sentence.Difficulty(values.Get("difficulty")),
		Search:          values.Get("search"),
		TargetLang:      values.Get("target_lang"),
		TranslationLang: values.Get("translation_lang"),
	}

	var violations []*errdetails.BadRequest_FieldViolation
	for _, param := range []struct {
		name   string
		target *int
	}{
		{name: "limit", target: &query.Limit},
		{name: "offset", target: &query.Offset},
	} {
		raw := values.Get(param.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			violations = append(violations, &errdetails.BadRequest_FieldViolation{
				Field:       param.name,
				Description: fmt.Sprintf("%s must be an integer", param.name),
			})
			continue
		}
		*param.target = n
	}
	if len(violations) > 0 {
		writeValidationFailed(w, violations)
		return
	}
	violations, err := h.validateStruct(query)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if len(violations) > 0 {
		writeValidationFailed(w, violations)
		return
	}

	sentences, err := h.sentences.FindAll(r.Context())
	if err != nil {
		writeInternal(w, r, fmt.Errorf("sentences.FindAll() > %w", err))
		return
	}
	filter := sentence.Filter{
		Difficulty:      query.Difficulty,
		TargetLang:      query.TargetLang,
		TranslationLang: query.TranslationLang,
		Search:          query.Search,
		Offset:          query.Offset,
		Limit:           query.Limit,
	}
	writeJSON(w, http.StatusOK, filter.Apply(sentences))
}

func (h *Handler) createSentence(w http.ResponseWriter, r *http.Request) {
	var req createSentenceRequest
	if !h.decodeAndValidate(w, r, &req, func() {
		req.SentenceText = strings.TrimSpace(req.SentenceText)
		if req.TargetLang == "" {
			req.TargetLang = h.targetLang
		}
		if req.TranslationLang == "" {
			req.TranslationLang = h.translationLang
		}
		if req.Difficulty == "" {
			req.Difficulty = sentence.DefaultDifficulty
		}
	}) {
		return
	}

	now := timestamp.Format(h.now())
	s := sentence.Sentence{
		ID:              h.newID(),
		TargetLang:      req.TargetLang,
		SentenceText:    req.SentenceText,
		TranslationLang: req.TranslationLang,
		Difficulty:      req.Difficulty,
		Tags:            req.Tags,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.TranslationText != nil && *req.TranslationText != "" {
		s.TranslationText = req.TranslationText
	}
	if err := h.sentences.Create(r.Context(), &s); err != nil {
		writeInternal(w, r, fmt.Errorf("sentences.Create() > %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) updateSentence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateSentenceRequest
	if !h.decodeAndValidate(w, r, &req, func() {
		if req.SentenceText != nil {
			text := strings.TrimSpace(*req.SentenceText)
			req.SentenceText = &text
		}
	}) {
		return
	}

	existing, err := h.sentences.FindByID(r.Context(), id)
	if err != nil {
		writeInternal(w, r, fmt.Errorf("sentences.FindByID(%s) > %w", id, err))
		return
	}
	if existing == nil {
		writeNotFound(w, "Sentence not found")
		return
	}

	req.patch().ApplyTo(existing, timestamp.Format(h.now()))
	ok, err := h.sentences.Update(r.Context(), existing)
	if err != nil {
		writeInternal(w, r, fmt.Errorf("sentences.Update(%s) > %w", id, err))
		return
	}
	if !ok {
		// deleted between the read and the write
		writeNotFound(w, "Sentence not found")
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *Handler) deleteSentence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := h.sentences.Delete(r.Context(), id)
	if err != nil {
		writeInternal(w, r, fmt.Errorf("sentences.Delete(%s) > %w", id, err))
		return
	}
	if !ok {
		writeNotFound(w, "Sentence not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportSentences(w http.ResponseWriter, r *http.Request) {
	sentences, err := h.sentences.FindAll(r.Context())
	if err != nil {
		writeInternal(w, r, fmt.Errorf("sentences.FindAll() > %w", err))
		return
	}

	var buf bytes.Buffer
	if err := sentence.WriteCSV(&buf, sentences); err != nil {
		writeInternal(w, r, fmt.Errorf("sentence.WriteCSV() > %w", err))
		return
	}

	filename := fmt.Sprintf("sentences_export_%s.csv", h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Default().Warn("failed to write export", slog.Any("error", err))
	}
}

// importSentences replaces every stored sentence with the uploaded file.
func (h *Handler) importSentences(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeInvalidArgument(w, fmt.Sprintf("file exceeds %d bytes", maxBytesErr.Limit))
			return
		}
		writeInvalidArgument(w, "multipart field \"file\" is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		writeInvalidArgument(w, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	now := timestamp.Format(h.now())
	sentences, err := sentence.ParseImport(data, now, h.newID)
	if err != nil {
		writeInvalidArgument(w, err.Error())
		return
	}

	previous, err := h.sentences.FindAll(r.Context())
	if err != nil {
		writeInternal(w, r, fmt.Errorf("sentences.FindAll() > %w", err))
		return
	}
	if err := h.sentences.ReplaceAll(r.Context(), sentences); err != nil {
		writeInternal(w, r, fmt.Errorf("sentences.ReplaceAll() > %w", err))
		return
	}
	slog.Default().Warn("sentences replaced by import",
		slog.Int("previous", len(previous)),
		slog.Int("imported", len(sentences)),
	)
	writeJSON(w, http.StatusOK, importSentencesResponse{Imported: len(sentences)})
}
