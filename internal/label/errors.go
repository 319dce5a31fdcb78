package label

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Code identifies the kind of a derivation failure.
type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeUnknownFormat Code = "UNKNOWN_FORMAT"
	CodeConfiguration Code = "CONFIGURATION"
)

// Error is returned by every failing operation in this package.
type Error struct {
	Code    Code
	Field   string
	Message string
	// Details maps field names to messages when several fields failed.
	Details map[string]string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + " " + e.Message
	}
	return e.Message
}

// Is matches any *Error with the same Code, so callers can test with the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnknownFormat = &Error{Code: CodeUnknownFormat, Message: "unknown format"}
	ErrConfiguration = &Error{Code: CodeConfiguration, Message: "configuration error"}
)

func validationErrorf(field, format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func configurationErrorf(field, format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Field: field, Message: fmt.Sprintf(format, args...)}
}

func unknownFormat(f Format) *Error {
	return &Error{Code: CodeUnknownFormat, Field: "format", Message: fmt.Sprintf("%q is not in the configured format table", string(f))}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// ValidateRecord checks the fields of r that derivation depends on.
func ValidateRecord(r Record) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{Code: CodeValidation, Message: err.Error()}
	}
	out := &Error{Code: CodeValidation, Details: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Details[fe.Field()] = "must not be empty"
	}
	first := verrs[0]
	out.Field = first.Field()
	out.Message = out.Details[first.Field()]
	return out
}
