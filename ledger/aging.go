package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

// AgingReport buckets overdue increase postings (debits, deposits) by days past due.
// Postings without a due date are never overdue.
type AgingReport struct {
	AccountId   int             `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AsOf        time.Time       `json:"as_of"`
	Current     decimal.Decimal `json:"current"`
	Days31To60  decimal.Decimal `json:"days_31_60"`
	Days61To90  decimal.Decimal `json:"days_61_90"`
	Over90      decimal.Decimal `json:"over_90"`
	Total       decimal.Decimal `json:"total"`
}

type AgingSummary struct {
	AsOf            time.Time       `json:"as_of"`
	Current         decimal.Decimal `json:"current"`
	Days31To60      decimal.Decimal `json:"days_31_60"`
	Days61To90      decimal.Decimal `json:"days_61_90"`
	Over90          decimal.Decimal `json:"over_90"`
	Total           decimal.Decimal `json:"total"`
	OverdueAccounts int             `json:"overdue_accounts"`
}

func newAgingReport(account *models.Account, asOf time.Time) *AgingReport {
	return &AgingReport{
		AccountId:   account.ID,
		AccountCode: account.Code,
		AccountName: account.Name,
		AsOf:        asOf,
		Current:     decimal.Zero,
		Days31To60:  decimal.Zero,
		Days61To90:  decimal.Zero,
		Over90:      decimal.Zero,
		Total:       decimal.Zero,
	}
}

func (r *AgingReport) add(daysOverdue int, amount decimal.Decimal) {
	switch {
	case daysOverdue <= 30:
		r.Current = r.Current.Add(amount)
	case daysOverdue <= 60:
		r.Days31To60 = r.Days31To60.Add(amount)
	case daysOverdue <= 90:
		r.Days61To90 = r.Days61To90.Add(amount)
	default:
		r.Over90 = r.Over90.Add(amount)
	}
	r.Total = r.Current.Add(r.Days31To60).Add(r.Days61To90).Add(r.Over90)
}

func (e *Engine) asOf(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return e.now()
	}
	return asOf
}

func agingOf(account *models.Account, postings []*models.Posting, asOf time.Time) *AgingReport {
	report := newAgingReport(account, asOf)
	for _, p := range postings {
		if !p.Kind.Increases() || p.DueDate == nil || !p.DueDate.Before(asOf) {
			continue
		}
		report.add(utils.DaysBetween(*p.DueDate, asOf), p.Amount)
	}
	return report
}

// Aging analyzes one account. A zero asOf means now.
func (e *Engine) Aging(ctx context.Context, tenantId string, accountId int, asOf time.Time) (report *AgingReport, err error) {
	ctx, span := e.startSpan(ctx, "Aging", tenantId, accountId)
	defer func() { e.endSpan(span, "Aging", accountId, err) }()

	asOf = e.asOf(asOf)
	account, err := e.store.GetAccount(ctx, tenantId, accountId)
	if err != nil {
		return nil, err
	}
	postings, err := e.store.QueryPostings(ctx, tenantId, queryAll(accountId))
	if err != nil {
		return nil, err
	}
	return agingOf(account, postings, asOf), nil
}

// AgingAll analyzes every active account of the tenant and returns the ones with
// an overdue total, largest total first. Only an explicit asOf is cached; a zero
// asOf means now and moves with the clock.
func (e *Engine) AgingAll(ctx context.Context, tenantId string, asOf time.Time) (reports []*AgingReport, err error) {
	ctx, span := e.startSpan(ctx, "AgingAll", tenantId, 0)
	defer func() { e.endSpan(span, "AgingAll", tenantId, err) }()

	return e.agingAll(ctx, tenantId, e.asOf(asOf), !asOf.IsZero())
}

func (e *Engine) agingAll(ctx context.Context, tenantId string, asOf time.Time, cacheable bool) ([]*AgingReport, error) {
	if !cacheable {
		return e.computeAgingAll(ctx, tenantId, asOf)
	}
	cacheKey := "aging-all:" + asOf.UTC().Format(time.RFC3339Nano)
	return utils.CachedReport(ctx, e.cache, e.logger, tenantId, cacheKey, func() ([]*AgingReport, error) {
		return e.computeAgingAll(ctx, tenantId, asOf)
	})
}

func (e *Engine) computeAgingAll(ctx context.Context, tenantId string, asOf time.Time) ([]*AgingReport, error) {
	accounts, err := e.store.ListAccounts(ctx, tenantId, models.AccountFilter{IsActive: utils.NewTrue()})
	if err != nil {
		return nil, err
	}
	reports := make([]*AgingReport, 0)
	for _, account := range accounts {
		postings, err := e.store.QueryPostings(ctx, tenantId, queryAll(account.ID))
		if err != nil {
			return nil, err
		}
		report := agingOf(account, postings, asOf)
		if report.Total.IsZero() {
			continue
		}
		reports = append(reports, report)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		if c := reports[i].Total.Cmp(reports[j].Total); c != 0 {
			return c > 0
		}
		return reports[i].AccountId < reports[j].AccountId
	})
	return reports, nil
}

func (e *Engine) AgingSummary(ctx context.Context, tenantId string, asOf time.Time) (summary *AgingSummary, err error) {
	ctx, span := e.startSpan(ctx, "AgingSummary", tenantId, 0)
	defer func() { e.endSpan(span, "AgingSummary", tenantId, err) }()

	at := e.asOf(asOf)
	reports, err := e.agingAll(ctx, tenantId, at, !asOf.IsZero())
	if err != nil {
		return nil, err
	}
	summary = &AgingSummary{
		AsOf:            at,
		Current:         decimal.Zero,
		Days31To60:      decimal.Zero,
		Days61To90:      decimal.Zero,
		Over90:          decimal.Zero,
		Total:           decimal.Zero,
		OverdueAccounts: len(reports),
	}
	for _, r := range reports {
		summary.Current = summary.Current.Add(r.Current)
		summary.Days31To60 = summary.Days31To60.Add(r.Days31To60)
		summary.Days61To90 = summary.Days61To90.Add(r.Days61To90)
		summary.Over90 = summary.Over90.Add(r.Over90)
		summary.Total = summary.Total.Add(r.Total)
	}
	return summary, nil
}
