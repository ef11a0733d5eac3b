package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	structCheck  *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		structCheck = validator.New()
		structCheck.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return structCheck
}

// StructValidator validates T using its `validate` struct tags and reports
// errors keyed by the JSON field name.
func StructValidator[T any]() ValidateFunc[T] {
	return func(values T) Errors {
		err := engine().Struct(values)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Errors{"_form": err.Error()}
		}
		out := make(Errors, len(verrs))
		for _, fe := range verrs {
			if _, seen := out[fe.Field()]; seen {
				continue
			}
			out[fe.Field()] = message(fe)
		}
		return out
	}
}

// Chain runs validators in order and merges their errors; earlier messages win.
func Chain[T any](validators ...ValidateFunc[T]) ValidateFunc[T] {
	return func(values T) Errors {
		out := Errors{}
		for _, v := range validators {
			for k, msg := range v(values) {
				if msg == "" {
					continue
				}
				if _, ok := out[k]; !ok {
					out[k] = msg
				}
			}
		}
		return out
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", humanField(fe.Field()))
	case "email":
		return "Please enter a valid email address"
	case "url", "http_url":
		return "Please enter a valid URL (including http:// or https://)"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "alphanum":
		return "Only letters and numbers are allowed"
	default:
		return fmt.Sprintf("%s is invalid", humanField(fe.Field()))
	}
}

func humanField(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
			r = r + ('a' - 'A')
		}
		if i == 0 && r >= 'a' && r <= 'z' {
			r = r - ('a' - 'A')
		}
		b.WriteRune(r)
	}
	return b.String()
}
