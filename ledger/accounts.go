package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

const bankCodePrefix = "B"

func codePrefix(input models.NewAccount) string {
	if input.Family == models.AccountFamilyBank {
		return bankCodePrefix
	}
	return input.Type.CodePrefix()
}

func (e *Engine) CreateAccount(ctx context.Context, tenantId string, actorId int, input models.NewAccount) (account *models.Account, err error) {
	ctx, span := e.startSpan(ctx, "CreateAccount", tenantId, 0)
	defer func() { e.endSpan(span, "CreateAccount", input, err) }()

	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	switch input.Family {
	case models.AccountFamilyCounterparty:
		if !input.Type.IsValid() {
			return nil, utils.InvalidInput("counterparty accounts need a type of customer, supplier or both")
		}
	case models.AccountFamilyBank:
		if input.Type != "" {
			return nil, utils.InvalidInput("type applies to counterparty accounts only")
		}
	}

	err = e.store.WithinAccount(ctx, tenantId, 0, func(tx store.Store) error {
		code := strings.TrimSpace(input.Code)
		if code == "" {
			lastId, err := tx.LastAccountId(ctx, tenantId)
			if err != nil {
				return err
			}
			code = fmt.Sprintf("%s-%05d", codePrefix(input), lastId+1)
		}
		account = &models.Account{
			TenantId:      tenantId,
			Code:          code,
			Name:          input.Name,
			Family:        input.Family,
			Type:          input.Type,
			AccountNumber: input.AccountNumber,
			BankName:      input.BankName,
			Iban:          input.Iban,
			IsActive:      utils.NewTrue(),
			Balance:       decimal.Zero,
			CreatedBy:     actorId,
		}
		return tx.CreateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	e.invalidateReports(ctx, tenantId)
	return account, nil
}

func (e *Engine) GetAccount(ctx context.Context, tenantId string, accountId int) (*models.Account, error) {
	return e.store.GetAccount(ctx, tenantId, accountId)
}

func (e *Engine) ListAccounts(ctx context.Context, tenantId string, filter models.AccountFilter) ([]*models.Account, error) {
	return e.store.ListAccounts(ctx, tenantId, filter)
}

// SetAccountActive is the soft-delete path for accounts that carry history.
func (e *Engine) SetAccountActive(ctx context.Context, tenantId string, accountId int, active bool) (account *models.Account, err error) {
	ctx, span := e.startSpan(ctx, "SetAccountActive", tenantId, accountId)
	defer func() { e.endSpan(span, "SetAccountActive", accountId, err) }()

	err = e.store.WithinAccount(ctx, tenantId, accountId, func(tx store.Store) error {
		if err := tx.SetAccountActive(ctx, tenantId, accountId, active); err != nil {
			return err
		}
		var getErr error
		account, getErr = tx.GetAccount(ctx, tenantId, accountId)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	e.invalidateReports(ctx, tenantId)
	return account, nil
}

// DeleteAccount refuses accounts with postings or reconciliation records.
func (e *Engine) DeleteAccount(ctx context.Context, tenantId string, accountId int) (err error) {
	ctx, span := e.startSpan(ctx, "DeleteAccount", tenantId, accountId)
	defer func() { e.endSpan(span, "DeleteAccount", accountId, err) }()

	err = e.withAccountLock(ctx, tenantId, accountId, func(tx store.Store) error {
		postings, err := tx.CountPostings(ctx, tenantId, accountId)
		if err != nil {
			return err
		}
		if postings > 0 {
			return utils.Conflict("account has %d postings, deactivate it instead", postings)
		}
		reconciliations, err := tx.CountReconciliations(ctx, tenantId, accountId)
		if err != nil {
			return err
		}
		if reconciliations > 0 {
			return utils.Conflict("account has %d reconciliations, deactivate it instead", reconciliations)
		}
		return tx.DeleteAccount(ctx, tenantId, accountId)
	})
	if err != nil {
		return err
	}
	e.invalidateReports(ctx, tenantId)
	return nil
}

// AccountStats summarizes counterparty accounts from their cached balances.
type AccountStats struct {
	Total       int             `json:"total"`
	Customers   int             `json:"customers"`
	Suppliers   int             `json:"suppliers"`
	Active      int             `json:"active"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	NetBalance  decimal.Decimal `json:"net_balance"`
}

func counterparties() models.AccountFilter {
	family := models.AccountFamilyCounterparty
	return models.AccountFilter{Family: &family}
}

func (e *Engine) AccountStats(ctx context.Context, tenantId string) (*AccountStats, error) {
	accounts, err := e.store.ListAccounts(ctx, tenantId, counterparties())
	if err != nil {
		return nil, err
	}
	stats := &AccountStats{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, a := range accounts {
		stats.Total++
		switch a.Type {
		case models.CounterpartyTypeCustomer:
			stats.Customers++
		case models.CounterpartyTypeSupplier:
			stats.Suppliers++
		case models.CounterpartyTypeBoth:
			stats.Customers++
			stats.Suppliers++
		}
		if a.Active() {
			stats.Active++
		}
		if a.Balance.IsPositive() {
			stats.TotalDebit = stats.TotalDebit.Add(a.Balance)
		} else if a.Balance.IsNegative() {
			stats.TotalCredit = stats.TotalCredit.Add(a.Balance.Abs())
		}
	}
	stats.NetBalance = stats.TotalDebit.Sub(stats.TotalCredit)
	return stats, nil
}

const defaultTopDebtors = 10

// TopDebtors lists counterparties with a positive cached balance, largest first.
func (e *Engine) TopDebtors(ctx context.Context, tenantId string, limit int) ([]*models.Account, error) {
	if limit <= 0 {
		limit = defaultTopDebtors
	}
	filter := counterparties()
	filter.HasBalance = true
	accounts, err := e.store.ListAccounts(ctx, tenantId, filter)
	if err != nil {
		return nil, err
	}
	debtors := make([]*models.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.Balance.IsPositive() {
			debtors = append(debtors, a)
		}
	}
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].Balance.GreaterThan(debtors[j].Balance)
	})
	if len(debtors) > limit {
		debtors = debtors[:limit]
	}
	return debtors, nil
}
