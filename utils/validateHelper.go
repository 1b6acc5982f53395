package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// map field name to the failed tag
func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

// ValidateInput runs the struct's validate tags and returns ErrorInvalidInput
// naming every offending field.
func ValidateInput(input any) error {
	err := getValidator().Struct(input)
	if err == nil {
		return nil
	}
	fields := ProcessValidationErrors(err)
	if len(fields) == 0 {
		return fmt.Errorf("%w: %s", ErrorInvalidInput, err.Error())
	}
	parts := make([]string, 0, len(fields))
	for field, tag := range fields {
		parts = append(parts, field+" ("+tag+")")
	}
	sort.Strings(parts)
	return InvalidInput("%s", strings.Join(parts, ", "))
}
