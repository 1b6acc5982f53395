package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// MoneyScale is the number of decimal places every amount column keeps.
const MoneyScale = 4

// CheckMoneyScale rejects amounts the decimal(20,4) columns would round on write.
func CheckMoneyScale(name string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return InvalidInput("%s has more than %d decimal places", name, MoneyScale)
	}
	return nil
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

func NilIfEmpty[T comparable](ptr T) *T {
	var defaultZero T
	if ptr == defaultZero {
		return nil
	}
	return &ptr
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	return decimal.NewFromString(value)
}

// ParseDate accepts YYYY-MM-DD or RFC3339. Date-only values are midnight UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, InvalidInput("malformed date %q", value)
	}
	return t, nil
}

// IsDateOnly reports whether the value carries no time of day.
func IsDateOnly(value string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(value))
	return err == nil
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// last nanosecond of the day
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DaysBetween is floor((to - from) / 24h).
func DaysBetween(from time.Time, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// MonthRange returns the first and last instant of the month.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}
