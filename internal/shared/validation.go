package shared

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	personNamePattern = regexp.MustCompile(`^[\p{L} .'\-]{2,60}$`)
	phMobilePattern   = regexp.MustCompile(`^(09|\+639)\d{9}$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the process-wide validator with the hotel tags
// registered: personname and phmobile.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
			return personNamePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
		_ = v.RegisterValidation("phmobile", func(fl validator.FieldLevel) bool {
			return phMobilePattern.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
		})
		validate = v
	})
	return validate
}

// FieldErrors maps json field names to a readable message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("invalid %s", strings.Join(keys, ", "))
}

// Unwrap lets errors.Is match ErrValidation.
func (f FieldErrors) Unwrap() error { return ErrValidation }

// UserMessage is the toast line for a validation failure.
func (f FieldErrors) UserMessage() string {
	if len(f) == 1 {
		for _, msg := range f {
			return msg
		}
	}
	return "Please correct the highlighted fields"
}

// Validate runs struct validation and converts failures into FieldErrors.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) error {
	return FieldErrors{field: message}
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return "Enter a valid email address"
	case "personname":
		return name + " may only contain letters, spaces, dots, apostrophes and hyphens"
	case "phmobile":
		return "Enter a valid Philippine mobile number (09XXXXXXXXX or +639XXXXXXXXX)"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return name + " is invalid"
}
