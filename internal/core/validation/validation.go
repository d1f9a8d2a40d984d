// Package validation wraps go-playground/validator with JSON field names and
// readable messages for API responses.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"courier-portal/internal/core/shipping"

	"github.com/go-playground/validator/v10"
)

// Validator validates request DTOs.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator reporting fields by their json names. It also
// registers the "shipment_status" tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("shipment_status", func(fl validator.FieldLevel) bool {
		return shipping.Status(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

// Struct validates s and returns an error whose message lists every failing field.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), message(e)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "shipment_status":
		return "must be a valid shipment status"
	default:
		return "invalid value"
	}
}
