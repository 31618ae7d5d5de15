// Package validator wires go-playground/validator into Gin's binding layer
// and formats validation failures into field-level messages.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init registers custom validations on Gin's binding validator.
func Init() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	if err := v.RegisterValidation("latitude_opt", validateOptionalLatitude); err != nil {
		return fmt.Errorf("register latitude_opt: %w", err)
	}
	if err := v.RegisterValidation("longitude_opt", validateOptionalLongitude); err != nil {
		return fmt.Errorf("register longitude_opt: %w", err)
	}
	return nil
}

func validateOptionalLatitude(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return v >= -90 && v <= 90
}

func validateOptionalLongitude(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return v >= -180 && v <= 180
}

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Format converts a binding error into field-level messages suitable
// for a 422 response. Non-validation errors yield a single generic entry.
func Format(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: "invalid request body"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "latitude_opt":
		return "must be between -90 and 90"
	case "longitude_opt":
		return "must be between -180 and 180"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
