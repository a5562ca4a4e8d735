package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/credential-auth/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report errors under the wire field name, not the Go field name
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Check validates a request struct and converts violations into a
// field-keyed validation error for the response envelope.
func Check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return apperrors.NewInternalError(err)
	}

	fields := make(map[string]string, len(violations))
	for _, violation := range violations {
		fields[violation.Field()] = message(violation)
	}
	return apperrors.NewValidationError(fields)
}

func message(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", violation.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", violation.Param())
	case "eqfield":
		return "does not match"
	default:
		return "is invalid"
	}
}
