package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

const bankSummaryDays = 30

// UnreconciledPostings returns the account's unreconciled postings, newest first.
// The window applies only when both bounds are set.
func (e *Engine) UnreconciledPostings(ctx context.Context, tenantId string, accountId int, from *time.Time, to *time.Time) ([]*models.Posting, error) {
	if _, err := e.store.GetAccount(ctx, tenantId, accountId); err != nil {
		return nil, err
	}
	query := models.PostingQuery{AccountId: accountId, Reconciled: utils.NewFalse()}
	if from != nil && to != nil {
		if err := validateWindow(*from, *to); err != nil {
			return nil, err
		}
		query.From = from
		query.To = to
	}
	postings, err := e.store.QueryPostings(ctx, tenantId, query)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(postings, func(i, j int) bool {
		if !postings[i].PostingDate.Equal(postings[j].PostingDate) {
			return postings[i].PostingDate.After(postings[j].PostingDate)
		}
		return postings[i].ID > postings[j].ID
	})
	return postings, nil
}

func (e *Engine) ListReconciliations(ctx context.Context, tenantId string, accountId int) ([]*models.Reconciliation, error) {
	if _, err := e.store.GetAccount(ctx, tenantId, accountId); err != nil {
		return nil, err
	}
	return e.store.ListReconciliations(ctx, tenantId, accountId)
}

type BankAccountSummary struct {
	AccountId         int             `json:"account_id"`
	AccountCode       string          `json:"account_code"`
	AccountName       string          `json:"account_name"`
	BankName          string          `json:"bank_name,omitempty"`
	Balance           decimal.Decimal `json:"balance"`
	LastReconciled    *time.Time      `json:"last_reconciled,omitempty"`
	Deposits          decimal.Decimal `json:"deposits"`
	Withdrawals       decimal.Decimal `json:"withdrawals"`
	PostingCount      int             `json:"posting_count"`
	UnreconciledCount int             `json:"unreconciled_count"`
}

type BankSummary struct {
	From     time.Time             `json:"from"`
	To       time.Time             `json:"to"`
	Accounts []*BankAccountSummary `json:"accounts"`
}

// BankSummary covers active bank accounts over the trailing 30 days ending at asOf.
// Balance is the cached balance.
func (e *Engine) BankSummary(ctx context.Context, tenantId string, asOf time.Time) (summary *BankSummary, err error) {
	ctx, span := e.startSpan(ctx, "BankSummary", tenantId, 0)
	defer func() { e.endSpan(span, "BankSummary", tenantId, err) }()

	to := e.asOf(asOf)
	from := to.AddDate(0, 0, -bankSummaryDays)
	family := models.AccountFamilyBank
	accounts, err := e.store.ListAccounts(ctx, tenantId, models.AccountFilter{Family: &family, IsActive: utils.NewTrue()})
	if err != nil {
		return nil, err
	}
	summary = &BankSummary{From: from, To: to, Accounts: make([]*BankAccountSummary, 0, len(accounts))}
	for _, a := range accounts {
		postings, err := e.store.QueryPostings(ctx, tenantId, models.PostingQuery{AccountId: a.ID, From: &from, To: &to})
		if err != nil {
			return nil, err
		}
		row := &BankAccountSummary{
			AccountId:      a.ID,
			AccountCode:    a.Code,
			AccountName:    a.Name,
			BankName:       a.BankName,
			Balance:        a.Balance,
			LastReconciled: a.LastReconciled,
			Deposits:       decimal.Zero,
			Withdrawals:    decimal.Zero,
			PostingCount:   len(postings),
		}
		for _, p := range postings {
			if p.Kind.Increases() {
				row.Deposits = row.Deposits.Add(p.Amount)
			} else {
				row.Withdrawals = row.Withdrawals.Add(p.Amount)
			}
			if !p.IsReconciled {
				row.UnreconciledCount++
			}
		}
		summary.Accounts = append(summary.Accounts, row)
	}
	sort.Slice(summary.Accounts, func(i, j int) bool {
		return summary.Accounts[i].AccountCode < summary.Accounts[j].AccountCode
	})
	return summary, nil
}
