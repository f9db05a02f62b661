// Package validate checks configuration values against their declared
// `validate` tags and reports failures as English field errors.
package validate

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	err := en_translations.RegisterDefaultTranslations(validate, translator)
	if err != nil {
		panic(err)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// Check validates the provided struct against its declared tags.
func Check(val any) error {
	return fieldErrors(validate.Struct(val), "")
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, val any, tag string) error {
	return fieldErrors(validate.Var(val, tag), field)
}

func fieldErrors(err error, field string) error {
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return err
	}

	var fields FieldErrors
	for _, verror := range verrors {
		name := verror.Namespace()
		if field != "" {
			name = field
		}
		fields = append(fields, FieldError{
			Field: name,
			Err:   customErrForTag(verror.Tag(), verror),
		})
	}

	return fields
}

// FieldError is a single failed validation.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// Fields returns the failed fields keyed by name.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, f := range fe {
		m[f.Field] = f.Err
	}
	return m
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	default:
		return strings.TrimSpace(verror.Translate(translator))
	}
}
