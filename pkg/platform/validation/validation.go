// Package validation checks request structs against their `validate` tags and
// translates failures into domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	dErrors "healthfund/pkg/domain-errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON field names rather than Go field names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Struct validates v. Missing required fields yield a missing_fields error
// carrying missingMsg; any other rule failure yields a validation_error naming
// the first offending field.
func Struct(v any, missingMsg string) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return dErrors.New(dErrors.CodeMissingFields, missingMsg)
		}
	}
	fe := fieldErrs[0]
	return dErrors.New(dErrors.CodeValidation, describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid identifier", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
