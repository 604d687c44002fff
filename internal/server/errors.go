package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/protobuf/encoding/protojson"
)

// ErrorCode tells clients which kind of failure occurred.
type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "invalid_argument"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeNotFound         ErrorCode = "not_found"
	CodeInternal         ErrorCode = "internal"
)

const internalErrorMessage = "internal server error"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Warn("failed to write response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, CodeNotFound, message)
}

func writeInvalidArgument(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, CodeInvalidArgument, message)
}

// writeInternal logs err and answers with an opaque message.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	slog.Default().Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	writeError(w, http.StatusInternalServerError, CodeInternal, internalErrorMessage)
}

// writeValidationFailed answers 422 with one field violation per invalid field.
func writeValidationFailed(w http.ResponseWriter, violations []*errdetails.BadRequest_FieldViolation) {
	response := ErrorResponse{
		Code:    CodeValidationFailed,
		Message: "request validation failed",
	}
	if len(violations) > 0 {
		response.Message = violations[0].GetDescription()
		details, err := protojson.Marshal(&errdetails.BadRequest{FieldViolations: violations})
		if err != nil {
			slog.Default().Warn("failed to marshal error details", slog.Any("error", err))
		} else {
			response.Details = details
		}
	}
	writeJSON(w, http.StatusUnprocessableEntity, response)
}
