// Package validation checks request structs against their `validate` tags and
// reports failures as Validation AppErrors.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"buildmatrix/internal/apperrors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their json names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s. Missing required fields are reported together as
// "Missing required fields: a, b"; any other failure lists each field with
// its reason.
func Struct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("Invalid request body")
	}

	var missing, messages []string
	for _, e := range verrs {
		if e.Tag() == "required" {
			missing = append(missing, e.Field())
			continue
		}
		messages = append(messages, e.Field()+" "+formatError(e))
	}
	if len(missing) > 0 {
		return apperrors.MissingFields(missing...)
	}
	return apperrors.Validation(strings.Join(messages, "; "))
}

func formatError(e validator.FieldError) string {
	switch e.Tag() {
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	default:
		return "is invalid"
	}
}
