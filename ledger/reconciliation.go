package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

// differences below one cent count as reconciled
var reconciliationTolerance = decimal.NewFromFloat(0.01)

func reconciliationStatus(difference decimal.Decimal) models.ReconciliationStatus {
	if difference.Abs().LessThan(reconciliationTolerance) {
		return models.ReconciliationStatusCompleted
	}
	return models.ReconciliationStatusInProgress
}

func (e *Engine) reconciliationNumber() string {
	return fmt.Sprintf("REC-%s-%s", e.now().UTC().Format("20060102"), strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]))
}

// Reconcile compares the asserted balance with the book balance of the window
// [PeriodStart, PeriodEnd]. The book balance covers only postings inside the
// window, no opening balance. Every call persists a new record.
func (e *Engine) Reconcile(ctx context.Context, tenantId string, input models.NewReconciliation) (reconciliation *models.Reconciliation, err error) {
	ctx, span := e.startSpan(ctx, "Reconcile", tenantId, input.AccountId)
	defer func() { e.endSpan(span, "Reconcile", input, err) }()

	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := validateWindow(input.PeriodStart, input.PeriodEnd); err != nil {
		return nil, err
	}
	if err := utils.CheckMoneyScale("asserted balance", input.AssertedBalance); err != nil {
		return nil, err
	}

	err = e.withAccountLock(ctx, tenantId, input.AccountId, func(tx store.Store) error {
		if _, err := tx.GetAccount(ctx, tenantId, input.AccountId); err != nil {
			return err
		}
		postings, err := tx.QueryPostings(ctx, tenantId, models.PostingQuery{
			AccountId: input.AccountId,
			From:      &input.PeriodStart,
			To:        &input.PeriodEnd,
		})
		if err != nil {
			return err
		}
		book, err := signedSum(postings)
		if err != nil {
			return err
		}
		reconciled := 0
		for _, p := range postings {
			if p.IsReconciled {
				reconciled++
			}
		}
		difference := input.AssertedBalance.Sub(book)

		reconciliation = &models.Reconciliation{
			TenantId:             tenantId,
			AccountId:            input.AccountId,
			ReconciliationNumber: e.reconciliationNumber(),
			PeriodStart:          input.PeriodStart,
			PeriodEnd:            input.PeriodEnd,
			BookBalance:          book,
			AssertedBalance:      input.AssertedBalance,
			Difference:           difference,
			ReconciledCount:      reconciled,
			UnreconciledCount:    len(postings) - reconciled,
			Status:               reconciliationStatus(difference),
			ReconciledBy:         input.ActorId,
			Notes:                input.Notes,
		}
		if err := tx.CreateReconciliation(ctx, reconciliation); err != nil {
			return err
		}
		return tx.SetLastReconciled(ctx, tenantId, input.AccountId, input.PeriodEnd)
	})
	if err != nil {
		return nil, err
	}
	e.invalidateReports(ctx, tenantId)
	return reconciliation, nil
}

// MarkReconciled sets the reconciliation marker of one posting. A posting that is
// already reconciled keeps its first stamp. Balances are not touched.
func (e *Engine) MarkReconciled(ctx context.Context, tenantId string, postingId int, actorId int) (posting *models.Posting, err error) {
	ctx, span := e.startSpan(ctx, "MarkReconciled", tenantId, 0)
	defer func() { e.endSpan(span, "MarkReconciled", postingId, err) }()

	if actorId <= 0 {
		return nil, utils.InvalidInput("actor is required")
	}
	posting, err = e.store.GetPosting(ctx, tenantId, postingId)
	if err != nil {
		return nil, err
	}
	err = e.store.WithinAccount(ctx, tenantId, posting.AccountId, func(tx store.Store) error {
		if _, err := tx.MarkReconciled(ctx, tenantId, []int{postingId}, actorId, e.now()); err != nil {
			return err
		}
		var getErr error
		posting, getErr = tx.GetPosting(ctx, tenantId, postingId)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	e.invalidateReports(ctx, tenantId)
	return posting, nil
}

type BulkReconcileResult struct {
	Requested  int   `json:"requested"`
	Reconciled int64 `json:"reconciled"`
}

// MarkReconciledBulk marks every listed posting in one unit. Unknown ids or ids of
// another tenant reject the whole batch.
func (e *Engine) MarkReconciledBulk(ctx context.Context, tenantId string, postingIds []int, actorId int) (result *BulkReconcileResult, err error) {
	ctx, span := e.startSpan(ctx, "MarkReconciledBulk", tenantId, 0)
	defer func() { e.endSpan(span, "MarkReconciledBulk", postingIds, err) }()

	ids := utils.UniqueSlice(postingIds)
	if len(ids) == 0 {
		return nil, utils.InvalidInput("posting ids are required")
	}
	if actorId <= 0 {
		return nil, utils.InvalidInput("actor is required")
	}

	byAccount := map[int][]int{}
	for _, id := range ids {
		p, err := e.store.GetPosting(ctx, tenantId, id)
		if err != nil {
			return nil, err
		}
		byAccount[p.AccountId] = append(byAccount[p.AccountId], id)
	}
	accountIds := make([]int, 0, len(byAccount))
	for accountId := range byAccount {
		accountIds = append(accountIds, accountId)
	}
	sort.Ints(accountIds)

	result = &BulkReconcileResult{Requested: len(ids)}
	at := e.now()
	err = e.store.WithinAccount(ctx, tenantId, 0, func(tx store.Store) error {
		// lock accounts in id order
		for _, accountId := range accountIds {
			err := tx.WithinAccount(ctx, tenantId, accountId, func(tx store.Store) error {
				changed, err := tx.MarkReconciled(ctx, tenantId, byAccount[accountId], actorId, at)
				result.Reconciled += changed
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.invalidateReports(ctx, tenantId)
	return result, nil
}
