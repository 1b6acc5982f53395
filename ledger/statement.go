package ledger

import (
	"context"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

// Statement is the point-in-time view of an account over a closed window.
// ClosingBalance = OpeningBalance + signed sum of Lines.
type Statement struct {
	AccountId      int             `json:"account_id"`
	AccountCode    string          `json:"account_code"`
	AccountName    string          `json:"account_name"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Lines          []Line          `json:"lines"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
}

func queryAll(accountId int) models.PostingQuery {
	return models.PostingQuery{AccountId: accountId}
}

func validateWindow(periodStart time.Time, periodEnd time.Time) error {
	if periodStart.IsZero() || periodEnd.IsZero() {
		return utils.InvalidInput("period start and period end are required")
	}
	if periodEnd.Before(periodStart) {
		return utils.InvalidInput("period end is before period start")
	}
	return nil
}

// Statement opens with every posting strictly before periodStart and lists the
// postings dated within [periodStart, periodEnd].
func (e *Engine) Statement(ctx context.Context, tenantId string, accountId int, periodStart time.Time, periodEnd time.Time) (statement *Statement, err error) {
	ctx, span := e.startSpan(ctx, "Statement", tenantId, accountId)
	defer func() { e.endSpan(span, "Statement", accountId, err) }()

	if err := validateWindow(periodStart, periodEnd); err != nil {
		return nil, err
	}
	account, err := e.store.GetAccount(ctx, tenantId, accountId)
	if err != nil {
		return nil, err
	}

	prior, err := e.store.QueryPostings(ctx, tenantId, models.PostingQuery{AccountId: accountId, Before: &periodStart})
	if err != nil {
		return nil, err
	}
	opening, err := signedSum(prior)
	if err != nil {
		return nil, err
	}
	window, err := e.store.QueryPostings(ctx, tenantId, models.PostingQuery{AccountId: accountId, From: &periodStart, To: &periodEnd})
	if err != nil {
		return nil, err
	}
	result, err := fold(opening, window)
	if err != nil {
		return nil, err
	}

	return &Statement{
		AccountId:      account.ID,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		OpeningBalance: opening,
		Lines:          result.Lines,
		ClosingBalance: result.Balance,
		TotalDebit:     result.TotalDebit,
		TotalCredit:    result.TotalCredit,
	}, nil
}
