// Package validation adapts go-playground/validator to echo and renders
// field errors as short client facing messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/online-movie-api/internal/apperror"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. Field names in messages use
// the json tag so they match what clients sent.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// EchoValidator satisfies echo.Validator.
type EchoValidator struct{}

// Validate checks i and converts the first failing field into an
// apperror validation error.
func (EchoValidator) Validate(i any) error {
	err := GetValidator().Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return apperror.ValidationFailed("", err.Error())
	}
	fe := ves[0]
	return apperror.ValidationFailed(fe.Field(), translate(fe))
}

var messages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"url":      "%s must be a valid URL",
}

var messagesWithParam = map[string]string{
	"gte": "%s must be greater than or equal to %s",
	"lte": "%s must be less than or equal to %s",
	"gt":  "%s must be greater than %s",
	"max": "%s must be at most %s",
	"min": "%s must be at least %s",
}

func translate(fe validator.FieldError) string {
	if t, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(t, fe.Field())
	}
	if t, ok := messagesWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(t, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
