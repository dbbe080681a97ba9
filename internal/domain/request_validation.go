package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// requestValidator returns the shared validator with the amount tag registered.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// report json names so messages match what clients sent
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		// amount: decimal string with up to 2 fraction digits; required handles emptiness
		v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || amountPattern.MatchString(strings.TrimSpace(s))
		})

		validate = v
	})
	return validate
}

// ValidateRequest checks the validate tags on a transport request struct.
// Failures wrap ErrInvalidRequest and name every offending field.
func ValidateRequest(req any) error {
	err := requestValidator().Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "amount":
		return field + " must be a non-negative decimal with up to 2 decimal places"
	case "uuid":
		return field + " must be a UUID"
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "required_without", "excluded_with":
		return fmt.Sprintf("exactly one of %s and %s is required", field, lowerFirst(fe.Param()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
