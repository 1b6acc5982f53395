package ledger

import (
	"context"
	"time"

	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/shopspring/decimal"
)

// CachedBalance is the denormalized balance stored on the account.
// RecomputedAt is nil when the balance was never derived from postings.
type CachedBalance struct {
	AccountId    int             `json:"account_id"`
	Balance      decimal.Decimal `json:"balance"`
	RecomputedAt *time.Time      `json:"recomputed_at,omitempty"`
}

// Recompute folds every posting of the account and stores the result as the cached balance.
func (e *Engine) Recompute(ctx context.Context, tenantId string, accountId int) (balance decimal.Decimal, err error) {
	ctx, span := e.startSpan(ctx, "Recompute", tenantId, accountId)
	defer func() { e.endSpan(span, "Recompute", accountId, err) }()

	err = e.withAccountLock(ctx, tenantId, accountId, func(tx store.Store) error {
		var txErr error
		balance, txErr = recomputeIn(ctx, tx, tenantId, accountId, e.now())
		return txErr
	})
	if err != nil {
		return decimal.Zero, err
	}
	e.invalidateReports(ctx, tenantId)
	return balance, nil
}

// CachedBalance reads the stored balance without touching postings. It may lag
// behind postings appended through Append.
func (e *Engine) CachedBalance(ctx context.Context, tenantId string, accountId int) (*CachedBalance, error) {
	account, err := e.store.GetAccount(ctx, tenantId, accountId)
	if err != nil {
		return nil, err
	}
	return &CachedBalance{
		AccountId:    account.ID,
		Balance:      account.Balance,
		RecomputedAt: account.BalanceRecomputedAt,
	}, nil
}

// BalanceDrift compares the cached balance with a fresh fold without persisting anything.
type BalanceDrift struct {
	AccountId  int             `json:"account_id"`
	Cached     decimal.Decimal `json:"cached"`
	Recomputed decimal.Decimal `json:"recomputed"`
}

func (d BalanceDrift) Drifted() bool {
	return !d.Cached.Equal(d.Recomputed)
}

func (e *Engine) Drift(ctx context.Context, tenantId string, accountId int) (*BalanceDrift, error) {
	account, err := e.store.GetAccount(ctx, tenantId, accountId)
	if err != nil {
		return nil, err
	}
	balance, err := accountBalance(ctx, e.store, tenantId, accountId)
	if err != nil {
		return nil, err
	}
	return &BalanceDrift{AccountId: accountId, Cached: account.Balance, Recomputed: balance}, nil
}

func accountBalance(ctx context.Context, s store.PostingStore, tenantId string, accountId int) (decimal.Decimal, error) {
	postings, err := s.QueryPostings(ctx, tenantId, queryAll(accountId))
	if err != nil {
		return decimal.Zero, err
	}
	return signedSum(postings)
}

func recomputeIn(ctx context.Context, tx store.Store, tenantId string, accountId int, at time.Time) (decimal.Decimal, error) {
	if _, err := tx.GetAccount(ctx, tenantId, accountId); err != nil {
		return decimal.Zero, err
	}
	balance, err := accountBalance(ctx, tx, tenantId, accountId)
	if err != nil {
		return decimal.Zero, err
	}
	if err := tx.SetAccountBalance(ctx, tenantId, accountId, balance, at); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
