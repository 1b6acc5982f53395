package ledger

import (
	"context"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

// HistoryFilter narrows a history report. The window applies only when both
// From and To are set.
type HistoryFilter struct {
	From *time.Time
	To   *time.Time
	Kind *models.PostingKind
}

// History lists postings with a running balance that starts from zero,
// unlike Statement which opens with the prior balance.
type History struct {
	AccountId      int             `json:"account_id"`
	AccountCode    string          `json:"account_code"`
	AccountName    string          `json:"account_name"`
	Lines          []Line          `json:"lines"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

func (e *Engine) History(ctx context.Context, tenantId string, accountId int, filter HistoryFilter) (history *History, err error) {
	ctx, span := e.startSpan(ctx, "History", tenantId, accountId)
	defer func() { e.endSpan(span, "History", accountId, err) }()

	account, err := e.store.GetAccount(ctx, tenantId, accountId)
	if err != nil {
		return nil, err
	}
	query := models.PostingQuery{AccountId: accountId, Kind: filter.Kind}
	if filter.From != nil && filter.To != nil {
		if err := validateWindow(*filter.From, *filter.To); err != nil {
			return nil, err
		}
		query.From = filter.From
		query.To = filter.To
	}
	postings, err := e.store.QueryPostings(ctx, tenantId, query)
	if err != nil {
		return nil, err
	}
	result, err := fold(decimal.Zero, postings)
	if err != nil {
		return nil, err
	}
	return &History{
		AccountId:      account.ID,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		Lines:          result.Lines,
		TotalDebit:     result.TotalDebit,
		TotalCredit:    result.TotalCredit,
		CurrentBalance: result.Balance,
	}, nil
}
