package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names in messages.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Money is compared numerically by gt/lte rules.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// validationMessage turns the first failed rule into a readable message.
func validationMessage(errs validator.ValidationErrors) string {
	for _, err := range errs {
		field := err.Field()
		param := err.Param()

		switch err.Tag() {
		case "required":
			return field + " is required"
		case "min":
			return field + " must be at least " + param + " characters long"
		case "max":
			return field + " must be at most " + param + " characters long"
		case "gt":
			return field + " must be greater than " + param
		case "lte":
			return field + " must be at most " + param
		case "email":
			return field + " must be a valid email address"
		case "url":
			return field + " must be a valid URL"
		default:
			return field + " is invalid"
		}
	}
	return "invalid request"
}
