// Package store is the persistence boundary of the ledger engine.
//
// Every method takes the caller's tenant explicitly and never returns rows of
// another tenant. Postings are append-only: the only mutation exposed on them
// is MarkReconciled.
package store

import (
	"context"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, tenantId string, id int) (*models.Account, error)
	ListAccounts(ctx context.Context, tenantId string, filter models.AccountFilter) ([]*models.Account, error)
	// LastAccountId is the highest account id of the tenant, 0 when it has none.
	LastAccountId(ctx context.Context, tenantId string) (int, error)
	SetAccountBalance(ctx context.Context, tenantId string, id int, balance decimal.Decimal, at time.Time) error
	SetAccountActive(ctx context.Context, tenantId string, id int, active bool) error
	SetLastReconciled(ctx context.Context, tenantId string, id int, at time.Time) error
	DeleteAccount(ctx context.Context, tenantId string, id int) error
}

type PostingStore interface {
	AppendPosting(ctx context.Context, posting *models.Posting) error
	GetPosting(ctx context.Context, tenantId string, id int) (*models.Posting, error)
	// QueryPostings orders by posting date ascending, ties by insertion order.
	QueryPostings(ctx context.Context, tenantId string, query models.PostingQuery) ([]*models.Posting, error)
	CountPostings(ctx context.Context, tenantId string, accountId int) (int64, error)
	// MarkReconciled flips the marker on the given unreconciled postings and returns how many changed.
	MarkReconciled(ctx context.Context, tenantId string, ids []int, actorId int, at time.Time) (int64, error)
}

type ReconciliationStore interface {
	CreateReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error
	// ListReconciliations returns the account's records newest first.
	ListReconciliations(ctx context.Context, tenantId string, accountId int) ([]*models.Reconciliation, error)
	CountReconciliations(ctx context.Context, tenantId string, accountId int) (int64, error)
}

type BudgetStore interface {
	CreateCostCenter(ctx context.Context, costCenter *models.CostCenter) error
	GetCostCenter(ctx context.Context, tenantId string, id int) (*models.CostCenter, error)
	// ListCostCenters orders by code.
	ListCostCenters(ctx context.Context, tenantId string) ([]*models.CostCenter, error)
	CreateBudgetItem(ctx context.Context, item *models.BudgetItem) error
	GetBudgetItem(ctx context.Context, tenantId string, id int) (*models.BudgetItem, error)
	// SaveBudgetActual persists actual amount, variance, variance percent and last updated.
	SaveBudgetActual(ctx context.Context, item *models.BudgetItem) error
	// ListBudgetItems orders by category, then id.
	ListBudgetItems(ctx context.Context, tenantId string, filter models.BudgetFilter) ([]*models.BudgetItem, error)
}

type Store interface {
	AccountStore
	PostingStore
	ReconciliationStore
	BudgetStore

	// WithinAccount runs fn as one atomic unit. With accountId > 0 the account row is
	// locked for the duration, serializing writers of that account.
	// Calls made on an already transactional Store join the running unit.
	WithinAccount(ctx context.Context, tenantId string, accountId int, fn func(tx Store) error) error
}
