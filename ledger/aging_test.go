package ledger_test

import (
	"testing"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgingScenario(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	report, err := f.engine.Aging(f.ctx, tenant, account.ID, day(20))
	require.NoError(t, err)
	requireAmount(t, "200", report.Current)
	requireAmount(t, "0", report.Days31To60)
	requireAmount(t, "0", report.Days61To90)
	requireAmount(t, "0", report.Over90)
	requireAmount(t, "200", report.Total)
}

func TestAgingBucketBoundaries(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Buckets")
	asOf := day(200)

	overdue := map[int]string{
		30:  "1",
		31:  "2",
		60:  "4",
		61:  "8",
		90:  "16",
		91:  "32",
		365: "64",
	}
	for days, amount := range overdue {
		f.post(t, account.ID, models.PostingKindDebit, amount, day(0), due(asOf.AddDate(0, 0, -days)))
	}
	// not overdue, no due date, decreasing kind
	f.post(t, account.ID, models.PostingKindDebit, "1000", day(0), due(asOf))
	f.post(t, account.ID, models.PostingKindDebit, "1000", day(0), due(asOf.AddDate(0, 0, 10)))
	f.post(t, account.ID, models.PostingKindDebit, "1000", day(0))
	f.post(t, account.ID, models.PostingKindCredit, "1000", day(0), due(day(0)))

	report, err := f.engine.Aging(f.ctx, tenant, account.ID, asOf)
	require.NoError(t, err)
	requireAmount(t, "1", report.Current)
	requireAmount(t, "6", report.Days31To60)
	requireAmount(t, "24", report.Days61To90)
	requireAmount(t, "96", report.Over90)
	requireAmount(t, "127", report.Total)

	sum := report.Current.Add(report.Days31To60).Add(report.Days61To90).Add(report.Over90)
	requireAmount(t, report.Total.String(), sum)
}

func TestAgingPartialDayRoundsDown(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Hours")
	asOf := day(100)
	f.post(t, account.ID, models.PostingKindDebit, "5", day(0), due(asOf.AddDate(0, 0, -30).Add(-23*time.Hour)))

	report, err := f.engine.Aging(f.ctx, tenant, account.ID, asOf)
	require.NoError(t, err)
	requireAmount(t, "5", report.Current)
}

func TestAgingDefaultsToNow(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Acme")
	f.seedScenario(t, account.ID)

	report, err := f.engine.Aging(f.ctx, tenant, account.ID, time.Time{})
	require.NoError(t, err)
	assert.True(t, report.AsOf.Equal(f.now))
	requireAmount(t, "200", report.Total)
}

func TestAgingAllOrdersByTotal(t *testing.T) {
	f := newFixture(t)
	small := f.customer(t, "Small")
	large := f.customer(t, "Large")
	clean := f.customer(t, "Clean")
	dormant := f.customer(t, "Dormant")

	f.post(t, small.ID, models.PostingKindDebit, "100", day(0), due(day(1)))
	f.post(t, large.ID, models.PostingKindDebit, "900", day(0), due(day(1)))
	f.post(t, clean.ID, models.PostingKindDebit, "500", day(0))
	f.post(t, dormant.ID, models.PostingKindDebit, "5000", day(0), due(day(1)))
	_, err := f.engine.SetAccountActive(f.ctx, tenant, dormant.ID, false)
	require.NoError(t, err)

	reports, err := f.engine.AgingAll(f.ctx, tenant, day(50))
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, large.ID, reports[0].AccountId)
	assert.Equal(t, small.ID, reports[1].AccountId)
	requireAmount(t, "900", reports[0].Days31To60)

	summary, err := f.engine.AgingSummary(f.ctx, tenant, day(50))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.OverdueAccounts)
	requireAmount(t, "1000", summary.Total)
	requireAmount(t, "1000", summary.Days31To60)
}

func TestAgingWithoutPostings(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "Empty")

	report, err := f.engine.Aging(f.ctx, tenant, account.ID, day(10))
	require.NoError(t, err)
	assert.True(t, report.Total.IsZero())

	reports, err := f.engine.AgingAll(f.ctx, tenant, day(10))
	require.NoError(t, err)
	assert.Empty(t, reports)
}
