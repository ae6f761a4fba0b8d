// Package utils provides utility functions used throughout the application.
package utils

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// digitsRegex matches an unsigned base-10 integer
	digitsRegex = regexp.MustCompile(`^[0-9]+$`)
)

func init() {
	validate = validator.New()

	// Report field names the way they appear in config keys and JSON
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"mapstructure", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation("menuindex", validateMenuIndex)
}

// Validate performs validation on the given struct and returns validation errors.
func Validate(s any) error {
	return validate.Struct(s)
}

// ValidateVar validates a single variable with the given tag and returns errors.
func ValidateVar(field any, tag string) error {
	return validate.Var(field, tag)
}

// FormatValidationErrors flattens validator errors into "field: tag" messages.
func FormatValidationErrors(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := e.Namespace() + " failed " + e.Tag()
		if e.Param() != "" {
			msg += "=" + e.Param()
		}
		messages = append(messages, msg)
	}
	return messages
}

// ParseMenuIndex parses a 1-based menu position. It accepts only unsigned
// decimal digits whose value is at least 1.
func ParseMenuIndex(s string) (int, bool) {
	if err := ValidateVar(s, "menuindex"); err != nil {
		return 0, false
	}
	n, _ := strconv.Atoi(s)
	return n, true
}

// validateMenuIndex is the "menuindex" tag.
func validateMenuIndex(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !digitsRegex.MatchString(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1
}
