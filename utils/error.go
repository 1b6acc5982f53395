package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorTenantMismatch is returned when the row exists but belongs to another tenant.
// It matches ErrorRecordNotFound so callers never leak cross-tenant existence.
var ErrorTenantMismatch = fmt.Errorf("%w: resource owned by another tenant", ErrorRecordNotFound)

var ErrorInvalidInput = errors.New("invalid input")

var ErrorConflict = errors.New("conflict")

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrorInvalidInput, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrorRecordNotFound, what)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrorConflict, fmt.Sprintf(format, args...))
}

// IsDomainError reports whether err is one of the caller-facing sentinels.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrorRecordNotFound) || errors.Is(err, ErrorInvalidInput) || errors.Is(err, ErrorConflict)
}
