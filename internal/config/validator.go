package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// languageTagPattern accepts tags such as fr, fr-FR and zh-Hant-TW.
var languageTagPattern = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]{2,8})*$`)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("langtag", isLanguageTag); err != nil {
		return nil, nil, fmt.Errorf("failed to register langtag validation: %w", err)
	}
	if err := validate.RegisterTranslation("langtag", trans, func(ut ut.Translator) error {
		return ut.Add("langtag", "{0} must be a language tag such as fr-FR", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("langtag", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register langtag translation: %w", err)
	}
	if err := validate.RegisterTranslation("startswith", trans, func(ut ut.Translator) error {
		return ut.Add("startswith", "{0} must start with text '{1}'", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("startswith", fe.Field(), fe.Param())
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register startswith translation: %w", err)
	}

	return validate, trans, nil
}

func isLanguageTag(fl validator.FieldLevel) bool {
	return languageTagPattern.MatchString(fl.Field().String())
}
