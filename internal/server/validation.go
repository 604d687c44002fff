package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return validate, trans, nil
}

// fieldPath drops the struct name from a validator namespace,
// e.g. createAttemptRequest.diff_json[0].op -> diff_json[0].op.
func fieldPath(namespace string) string {
	if _, path, ok := strings.Cut(namespace, "."); ok {
		return path
	}
	return namespace
}

// validateStruct returns the field violations of v, or nil when it is valid.
func (h *Handler) validateStruct(v any) ([]*errdetails.BadRequest_FieldViolation, error) {
	err := h.validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, fmt.Errorf("validate.Struct() > %w", err)
	}

	violations := make([]*errdetails.BadRequest_FieldViolation, 0, len(validationErrors))
	for _, fe := range validationErrors {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       fieldPath(fe.Namespace()),
			Description: fe.Translate(h.trans),
		})
	}
	return violations, nil
}

// decodeAndValidate reads a JSON body into v and validates it. It writes the
// error response itself and reports whether the handler may continue.
// prepare runs between decoding and validation to fill defaults.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any, prepare func()) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			writeValidationFailed(w, []*errdetails.BadRequest_FieldViolation{{
				Field:       typeErr.Field,
				Description: fmt.Sprintf("%s cannot be a JSON %s", typeErr.Field, typeErr.Value),
			}})
		case errors.Is(err, io.EOF):
			writeInvalidArgument(w, "request body is empty")
		default:
			writeInvalidArgument(w, fmt.Sprintf("invalid JSON body: %v", err))
		}
		return false
	}
	if prepare != nil {
		prepare()
	}

	violations, err := h.validateStruct(v)
	if err != nil {
		writeInternal(w, r, err)
		return false
	}
	if len(violations) > 0 {
		writeValidationFailed(w, violations)
		return false
	}
	return true
}
