package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/ledger_backend/ledger"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	tenant = "tenant-a"
	actor  = 42
)

func day(d int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

type fixture struct {
	ctx    context.Context
	store  *store.MemoryStore
	engine *ledger.Engine
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: store.NewMemoryStore(), now: day(20)}
	f.engine = ledger.NewEngine(f.store, ledger.WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) customer(t *testing.T, name string) *models.Account {
	t.Helper()
	account, err := f.engine.CreateAccount(f.ctx, tenant, actor, models.NewAccount{
		Name:   name,
		Family: models.AccountFamilyCounterparty,
		Type:   models.CounterpartyTypeCustomer,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) bank(t *testing.T, name string) *models.Account {
	t.Helper()
	account, err := f.engine.CreateAccount(f.ctx, tenant, actor, models.NewAccount{
		Name:     name,
		Family:   models.AccountFamilyBank,
		BankName: "KBZ",
	})
	require.NoError(t, err)
	return account
}

type postingOpt func(*models.NewPosting)

func due(d time.Time) postingOpt {
	return func(p *models.NewPosting) { p.DueDate = &d }
}

func (f *fixture) post(t *testing.T, accountId int, kind models.PostingKind, amount string, date time.Time, opts ...postingOpt) *models.Posting {
	t.Helper()
	input := models.NewPosting{
		AccountId:   accountId,
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		PostingDate: date,
	}
	for _, opt := range opts {
		opt(&input)
	}
	posting, err := f.engine.Append(f.ctx, tenant, actor, input)
	require.NoError(t, err)
	return posting
}

// debit 1000 on day 1, credit 400 on day 10, debit 200 on day 20 due day 5
func (f *fixture) seedScenario(t *testing.T, accountId int) {
	t.Helper()
	f.post(t, accountId, models.PostingKindDebit, "1000", day(1))
	f.post(t, accountId, models.PostingKindCredit, "400", day(10))
	f.post(t, accountId, models.PostingKindDebit, "200", day(20), due(day(5)))
}

func requireAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func decimalOf(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
