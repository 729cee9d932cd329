// Package validation wraps go-playground/validator with the store's custom
// rules and renders failures as {field, message} pairs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"fwstore/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	phonePattern      = regexp.MustCompile(`^[0-9+\-\s()]+$`)
)

// FieldError is one failed rule, keyed by the JSON name of the field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Struct when one or more rules fail.
type Errors []FieldError

// Error joins every field failure into one message.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field already failed a rule.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validator validates request structs.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "orderstatus", func(fl validator.FieldLevel) bool {
		return models.OrderStatus(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// StrongPassword reports whether p is at least 6 characters and mixes upper
// case, lower case and digits.
func StrongPassword(p string) bool {
	if len(p) < 6 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// Struct validates s. Rule failures come back as Errors; anything else, such as
// passing a non-struct, is returned unchanged.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(t, fe)})
	}
	return out
}

// message looks for a `msg` tag on the field. The tag holds either one message
// for every rule or "rule=message" pairs separated by "|".
func message(t reflect.Type, fe validator.FieldError) string {
	if t.Kind() == reflect.Struct {
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if msg := pickMessage(sf.Tag.Get("msg"), fe.Tag()); msg != "" {
				return msg
			}
		}
	}
	return defaultMessage(fe)
}

func pickMessage(tag, rule string) string {
	if tag == "" {
		return ""
	}
	var fallback string
	for _, part := range strings.Split(tag, "|") {
		key, msg, ok := strings.Cut(part, "=")
		if !ok {
			fallback = part
			continue
		}
		if key == rule {
			return msg
		}
	}
	return fallback
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "strongpassword":
		return "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	case "orderstatus":
		return "Invalid status. Must be one of: pending, processing, shipped, delivered, cancelled"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
