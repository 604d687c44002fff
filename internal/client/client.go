// Package client is a typed HTTP client for the ecoute API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

const DefaultMaxRetryAttempts = 3

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("response error %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Client struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
	retryDelay       time.Duration
}

// NewClient creates a client for the API mounted at baseURL, e.g. http://localhost:8000/api.
func NewClient(baseURL string, timeout time.Duration, retryAttempts uint) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)
	httpClient.SetHeader("Accept", "application/json")
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}

	return &Client{
		httpClient:       httpClient,
		maxRetryAttempts: retryAttempts,
		retryDelay:       retry.DefaultDelay,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// isRetryableError retries transport failures, rate limiting and server errors.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// do sends the request built by newRequest, retrying retryable failures.
// newRequest is called once per attempt so request bodies can be re-read.
// Requests that are not idempotent are sent once: a create whose response was
// lost would otherwise be stored twice.
func (client *Client) do(ctx context.Context, idempotent bool, newRequest func(req *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	attempts := client.maxRetryAttempts + 1
	if !idempotent {
		attempts = 1
	}

	var response *resty.Response
	err := retry.Do(
		func() error {
			res, err := newRequest(client.httpClient.R().SetContext(ctx).SetError(&errorBody{}))
			if err == nil && res.IsError() {
				err = toAPIError(res)
			}
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			response = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(client.retryDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func toAPIError(response *resty.Response) error {
	apiErr := &APIError{StatusCode: response.StatusCode()}
	if body, ok := response.Error().(*errorBody); ok && body != nil && body.Code != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	} else {
		apiErr.Message = response.String()
	}
	return apiErr
}

// ListSentencesParams mirrors the query parameters of GET /sentences.
// Zero values are not sent.
type ListSentencesParams struct {
	Limit           int
	Offset          int
	Difficulty      sentence.Difficulty
	Search          string
	TargetLang      string
	TranslationLang string
}

func (p ListSentencesParams) query() map[string]string {
	query := map[string]string{}
	if p.Limit > 0 {
		query["limit"] = strconv.Itoa(p.Limit)
	}
	if p.Offset > 0 {
		query["offset"] = strconv.Itoa(p.Offset)
	}
	for key, value := range map[string]string{
		"difficulty":       string(p.Difficulty),
		"search":           p.Search,
		"target_lang":      p.TargetLang,
		"translation_lang": p.TranslationLang,
	} {
		if value != "" {
			query[key] = value
		}
	}
	return query
}

func (client *Client) ListSentences(ctx context.Context, params ListSentencesParams) ([]sentence.Sentence, error) {
	response, err := client.do(ctx, true, func(req *resty.Request) (*resty.Response, error) {
		return req.SetQueryParams(params.query()).
			SetResult(&[]sentence.Sentence{}).
			Get("/sentences")
	})
	if err != nil {
		return nil, fmt.Errorf("GET /sentences > %w", err)
	}
	return *response.Result().(*[]sentence.Sentence), nil
}

// CreateSentenceParams is the body of POST /sentences. Empty fields take server defaults.
type CreateSentenceParams struct {
	TargetLang      string              `json:"target_lang,omitempty"`
	SentenceText    string              `json:"sentence_text"`
	TranslationLang string              `json:"translation_lang,omitempty"`
	TranslationText *string             `json:"translation_text,omitempty"`
	Difficulty      sentence.Difficulty `json:"difficulty,omitempty"`
	Tags            string              `json:"tags,omitempty"`
}

func (client *Client) CreateSentence(ctx context.Context, params CreateSentenceParams) (*sentence.Sentence, error) {
	response, err := client.do(ctx, false, func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(params).
			SetResult(&sentence.Sentence{}).
			Post("/sentences")
	})
	if err != nil {
		return nil, fmt.Errorf("POST /sentences > %w", err)
	}
	return response.Result().(*sentence.Sentence), nil
}

// UpdateSentenceParams is the body of PUT /sentences/{id}. Nil fields are left unchanged.
type UpdateSentenceParams struct {
	TargetLang      *string              `json:"target_lang,omitempty"`
	SentenceText    *string              `json:"sentence_text,omitempty"`
	TranslationLang *string              `json:"translation_lang,omitempty"`
	TranslationText *string              `json:"translation_text,omitempty"`
	Difficulty      *sentence.Difficulty `json:"difficulty,omitempty"`
	Tags            *string              `json:"tags,omitempty"`
}

func (client *Client) UpdateSentence(ctx context.Context, id string, params UpdateSentenceParams) (*sentence.Sentence, error) {
	response, err := client.do(ctx, true, func(req *resty.Request) (*resty.Response, error) {
		return req.SetPathParam("id", id).
			SetBody(params).
			SetResult(&sentence.Sentence{}).
			Put("/sentences/{id}")
	})
	if err != nil {
		return nil, fmt.Errorf("PUT /sentences/%s > %w", id, err)
	}
	return response.Result().(*sentence.Sentence), nil
}

func (client *Client) DeleteSentence(ctx context.Context, id string) error {
	if _, err := client.do(ctx, true, func(req *resty.Request) (*resty.Response, error) {
		return req.SetPathParam("id", id).Delete("/sentences/{id}")
	}); err != nil {
		return fmt.Errorf("DELETE /sentences/%s > %w", id, err)
	}
	return nil
}

// ExportSentences downloads the CSV export.
func (client *Client) ExportSentences(ctx context.Context) ([]byte, error) {
	response, err := client.do(ctx, true, func(req *resty.Request) (*resty.Response, error) {
		return req.SetHeader("Accept", "text/csv").Get("/export/sentences")
	})
	if err != nil {
		return nil, fmt.Errorf("GET /export/sentences > %w", err)
	}
	return response.Bytes(), nil
}

type importResponse struct {
	Imported int `json:"imported"`
}

// ImportSentences uploads a CSV file, replacing every sentence on the server,
// and returns the number of sentences imported.
func (client *Client) ImportSentences(ctx context.Context, fileName string, data []byte) (int, error) {
	response, err := client.do(ctx, true, func(req *resty.Request) (*resty.Response, error) {
		return req.SetFileReader("file", fileName, bytes.NewReader(data)).
			SetResult(&importResponse{}).
			Post("/import/sentences")
	})
	if err != nil {
		return 0, fmt.Errorf("POST /import/sentences > %w", err)
	}
	return response.Result().(*importResponse).Imported, nil
}

func (client *Client) ListAttempts(ctx context.Context, filter attempt.Filter) ([]attempt.Attempt, error) {
	query := map[string]string{}
	if filter.SentenceID != "" {
		query["sentence_id"] = filter.SentenceID
	}
	if filter.TargetLang != "" {
		query["target_lang"] = filter.TargetLang
	}
	response, err := client.do(ctx, true, func(req *resty.Request) (*resty.Response, error) {
		return req.SetQueryParams(query).
			SetResult(&[]attempt.Attempt{}).
			Get("/attempts")
	})
	if err != nil {
		return nil, fmt.Errorf("GET /attempts > %w", err)
	}
	return *response.Result().(*[]attempt.Attempt), nil
}

// CreateAttemptParams is the body of POST /attempts.
type CreateAttemptParams struct {
	SentenceID   string              `json:"sentence_id"`
	TargetLang   string              `json:"target_lang,omitempty"`
	ASRLang      string              `json:"asr_lang,omitempty"`
	ASRText      string              `json:"asr_text"`
	Score        float64             `json:"score"`
	WordsTotal   int                 `json:"words_total"`
	WordsCorrect int                 `json:"words_correct"`
	Diff         []attempt.DiffToken `json:"diff_json"`
	DurationMS   int                 `json:"duration_ms"`
}

func (client *Client) CreateAttempt(ctx context.Context, params CreateAttemptParams) (*attempt.Attempt, error) {
	response, err := client.do(ctx, false, func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(params).
			SetResult(&attempt.Attempt{}).
			Post("/attempts")
	})
	if err != nil {
		return nil, fmt.Errorf("POST /attempts > %w", err)
	}
	return response.Result().(*attempt.Attempt), nil
}
