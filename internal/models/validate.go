package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	kenyanPhone = regexp.MustCompile(`^254[17]\d{8}$`)
	nationalID  = regexp.MustCompile(`^\d{7,8}$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the console's custom rules registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Safaricom/Airtel numbers in international format without the plus
		validate.RegisterValidation("ke_phone", func(fl validator.FieldLevel) bool {
			return kenyanPhone.MatchString(fl.Field().String())
		})
		validate.RegisterValidation("ke_id", func(fl validator.FieldLevel) bool {
			return nationalID.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks a request body before it is sent and returns a readable
// error listing every failed field
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid request: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "ke_phone":
		return fmt.Sprintf("%s must be a phone number like 2547XXXXXXXX", fe.Field())
	case "ke_id":
		return fmt.Sprintf("%s must be a 7 or 8 digit ID number", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
