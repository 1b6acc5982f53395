package utils

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)))

	ts, err := ParseDate("2024-03-15T10:30:00+06:30")
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2024, time.March, 15, 4, 0, 0, 0, time.UTC)))

	_, err = ParseDate("15/03/2024")
	require.ErrorIs(t, err, ErrorInvalidInput)

	assert.True(t, IsDateOnly(" 2024-03-15 "))
	assert.False(t, IsDateOnly("2024-03-15T00:00:00Z"))
}

func TestDayHelpers(t *testing.T) {
	d := time.Date(2024, time.February, 28, 13, 45, 0, 0, time.UTC)
	assert.True(t, StartOfDay(d).Equal(time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, EndOfDay(d).Equal(time.Date(2024, time.February, 28, 23, 59, 59, 999999999, time.UTC)))

	start, end := MonthRange(2024, time.February, time.UTC)
	assert.True(t, start.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, end.Equal(time.Date(2024, time.February, 29, 23, 59, 59, 999999999, time.UTC)))

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(from, from.Add(23*time.Hour)))
	assert.Equal(t, 31, DaysBetween(from, from.AddDate(0, 0, 31)))
}

func TestUniqueSlice(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, UniqueSlice([]int{3, 1, 3, 2, 1}))
	assert.Empty(t, UniqueSlice([]int{}))
}

func TestParseDecimal(t *testing.T) {
	v, err := ParseDecimal(" 12.50 ")
	require.NoError(t, err)
	assert.Equal(t, "12.5", v.String())

	_, err = ParseDecimal("")
	assert.Error(t, err)
}

type sample struct {
	Name  string `validate:"required"`
	Count int    `validate:"gte=1"`
}

func TestValidateInput(t *testing.T) {
	require.NoError(t, ValidateInput(sample{Name: "ok", Count: 1}))

	err := ValidateInput(sample{})
	require.ErrorIs(t, err, ErrorInvalidInput)
	assert.Contains(t, err.Error(), "Count (gte), Name (required)")
}

func TestLocalAccountLockerSerializesKey(t *testing.T) {
	locker := NewLocalAccountLocker()
	ctx := context.Background()

	release, err := locker.Lock(ctx, "t1", 1)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := locker.Lock(ctx, "t1", 1)
		if err == nil {
			close(acquired)
			r()
		}
	}()

	otherRelease, err := locker.Lock(ctx, "t1", 2)
	require.NoError(t, err, "other accounts are not blocked")
	otherRelease()

	select {
	case <-acquired:
		t.Fatal("second lock on the same account acquired while held")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not handed over after release")
	}
}

func TestErrorSentinels(t *testing.T) {
	assert.ErrorIs(t, ErrorTenantMismatch, ErrorRecordNotFound)
	assert.ErrorIs(t, ErrorAccountBusy, ErrorConflict)
	assert.True(t, IsDomainError(NotFound("x")))
	assert.True(t, IsDomainError(Conflict("x %d", 1)))
	assert.False(t, IsDomainError(context.Canceled))
}

func TestCheckMoneyScale(t *testing.T) {
	require.NoError(t, CheckMoneyScale("amount", decimal.RequireFromString("12.3456")))
	require.NoError(t, CheckMoneyScale("amount", decimal.RequireFromString("12.50000")))
	require.NoError(t, CheckMoneyScale("amount", decimal.NewFromInt(7)))

	err := CheckMoneyScale("amount", decimal.RequireFromString("0.00001"))
	require.ErrorIs(t, err, ErrorInvalidInput)
	assert.Contains(t, err.Error(), "amount has more than 4 decimal places")
}

func TestMemoryReportCacheGenerations(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryReportCache(time.Minute)

	computed := 0
	compute := func() (map[string]int, error) {
		computed++
		return map[string]int{"total": computed}, nil
	}

	first, err := CachedReport(ctx, cache, config.GetLogger(), "t1", "aging", compute)
	require.NoError(t, err)
	second, err := CachedReport(ctx, cache, config.GetLogger(), "t1", "aging", compute)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, computed)

	_, err = CachedReport(ctx, cache, config.GetLogger(), "t2", "aging", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Invalidate(ctx, "t1"))
	generation, err := cache.Generation(ctx, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, generation)
	assert.Equal(t, 1, cache.Len(), "other tenants keep their reports")

	third, err := CachedReport(ctx, cache, config.GetLogger(), "t1", "aging", compute)
	require.NoError(t, err)
	assert.Equal(t, 3, third["total"])
}

func TestMemoryReportCacheExpires(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryReportCache(time.Nanosecond)
	require.NoError(t, cache.Set(ctx, "t1", "k", 1))
	time.Sleep(time.Millisecond)

	var got int
	ok, err := cache.Get(ctx, "t1", "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
