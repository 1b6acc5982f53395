package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/ledger_backend/ledger"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookedCache runs beforeSet once, ahead of the next Set.
type hookedCache struct {
	*utils.MemoryReportCache
	mu          sync.Mutex
	beforeSet   func()
	invalidated int
}

func newHookedCache() *hookedCache {
	return &hookedCache{MemoryReportCache: utils.NewMemoryReportCache(time.Minute)}
}

func (c *hookedCache) Set(ctx context.Context, tenantId string, key string, report any) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return c.MemoryReportCache.Set(ctx, tenantId, key, report)
}

func (c *hookedCache) Invalidate(ctx context.Context, tenantId string) error {
	c.mu.Lock()
	c.invalidated++
	c.mu.Unlock()
	return c.MemoryReportCache.Invalidate(ctx, tenantId)
}

type cacheFixture struct {
	ctx     context.Context
	cache   *hookedCache
	engine  *ledger.Engine
	account *models.Account
}

func newCacheFixture(t *testing.T) *cacheFixture {
	t.Helper()
	f := &cacheFixture{ctx: context.Background(), cache: newHookedCache()}
	f.engine = ledger.NewEngine(store.NewMemoryStore(), ledger.WithReportCache(f.cache), ledger.WithClock(func() time.Time { return day(60) }))

	var err error
	f.account, err = f.engine.CreateAccount(f.ctx, tenant, actor, models.NewAccount{Name: "Cached", Family: models.AccountFamilyCounterparty, Type: models.CounterpartyTypeCustomer})
	require.NoError(t, err)
	f.overdue(t, "100")
	return f
}

func (f *cacheFixture) overdue(t *testing.T, amount string) {
	t.Helper()
	due := day(1)
	_, err := f.engine.Append(f.ctx, tenant, actor, models.NewPosting{AccountId: f.account.ID, Kind: models.PostingKindDebit, Amount: decimalOf(amount), PostingDate: day(0), DueDate: &due})
	require.NoError(t, err)
}

func TestAgingAllCacheDroppedOnWrite(t *testing.T) {
	f := newCacheFixture(t)

	first, err := f.engine.AgingAll(f.ctx, tenant, day(60))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, f.cache.Len())

	cached, err := f.engine.AgingAll(f.ctx, tenant, day(60))
	require.NoError(t, err)
	require.Len(t, cached, 1)
	requireAmount(t, "100", cached[0].Total)

	before := f.cache.invalidated
	f.overdue(t, "50")
	assert.Equal(t, before+1, f.cache.invalidated)

	fresh, err := f.engine.AgingAll(f.ctx, tenant, day(60))
	require.NoError(t, err)
	requireAmount(t, "150", fresh[0].Total)
}

func TestAgingAllDefaultAsOfIsNotCached(t *testing.T) {
	f := newCacheFixture(t)

	reports, err := f.engine.AgingAll(f.ctx, tenant, time.Time{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].AsOf.Equal(day(60)))

	summary, err := f.engine.AgingSummary(f.ctx, tenant, time.Time{})
	require.NoError(t, err)
	requireAmount(t, "100", summary.Total)
	assert.Zero(t, f.cache.Len())
}

func TestAgingAllReportRacingAWriteIsNotServed(t *testing.T) {
	f := newCacheFixture(t)

	// the write commits and invalidates after the report was computed, before it is stored
	f.cache.beforeSet = func() { f.overdue(t, "50") }
	stale, err := f.engine.AgingAll(f.ctx, tenant, day(60))
	require.NoError(t, err)
	requireAmount(t, "100", stale[0].Total)

	fresh, err := f.engine.AgingAll(f.ctx, tenant, day(60))
	require.NoError(t, err)
	requireAmount(t, "150", fresh[0].Total)

	again, err := f.engine.AgingAll(f.ctx, tenant, day(60))
	require.NoError(t, err)
	requireAmount(t, "150", again[0].Total)
}
