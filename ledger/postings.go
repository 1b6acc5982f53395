package ledger

import (
	"context"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

// Append records a posting. The account's cached balance is left as it was;
// use AppendWithBalance when the caller needs the fresh balance.
func (e *Engine) Append(ctx context.Context, tenantId string, actorId int, input models.NewPosting) (posting *models.Posting, err error) {
	ctx, span := e.startSpan(ctx, "Append", tenantId, input.AccountId)
	defer func() { e.endSpan(span, "Append", input, err) }()

	if err := validatePosting(input); err != nil {
		return nil, err
	}
	err = e.withAccountLock(ctx, tenantId, input.AccountId, func(tx store.Store) error {
		var appendErr error
		posting, appendErr = appendPosting(ctx, tx, tenantId, actorId, input)
		return appendErr
	})
	if err != nil {
		return nil, err
	}
	e.invalidateReports(ctx, tenantId)
	return posting, nil
}

// AppendWithBalance records a posting and recomputes the cached balance in the same unit.
func (e *Engine) AppendWithBalance(ctx context.Context, tenantId string, actorId int, input models.NewPosting) (posting *models.Posting, balance decimal.Decimal, err error) {
	ctx, span := e.startSpan(ctx, "AppendWithBalance", tenantId, input.AccountId)
	defer func() { e.endSpan(span, "AppendWithBalance", input, err) }()

	if err := validatePosting(input); err != nil {
		return nil, decimal.Zero, err
	}
	err = e.withAccountLock(ctx, tenantId, input.AccountId, func(tx store.Store) error {
		var txErr error
		if posting, txErr = appendPosting(ctx, tx, tenantId, actorId, input); txErr != nil {
			return txErr
		}
		balance, txErr = recomputeIn(ctx, tx, tenantId, input.AccountId, e.now())
		return txErr
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	e.invalidateReports(ctx, tenantId)
	return posting, balance, nil
}

func validatePosting(input models.NewPosting) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if !input.Amount.IsPositive() {
		return utils.InvalidInput("amount must be greater than zero")
	}
	if err := utils.CheckMoneyScale("amount", input.Amount); err != nil {
		return err
	}
	if input.PostingDate.IsZero() {
		return utils.InvalidInput("posting date is required")
	}
	if input.DueDate != nil && input.DueDate.IsZero() {
		return utils.InvalidInput("due date is malformed")
	}
	return nil
}

func appendPosting(ctx context.Context, tx store.Store, tenantId string, actorId int, input models.NewPosting) (*models.Posting, error) {
	account, err := tx.GetAccount(ctx, tenantId, input.AccountId)
	if err != nil {
		return nil, err
	}
	if !account.Active() {
		return nil, utils.Conflict("account %s is inactive", account.Code)
	}
	if !input.Kind.AcceptedBy(account.Family) {
		return nil, utils.InvalidInput("kind %s is not valid for %s accounts", input.Kind, account.Family)
	}
	referenceType := input.ReferenceType
	if referenceType == "" {
		referenceType = models.ReferenceTypeManual
	}
	posting := &models.Posting{
		TenantId:      tenantId,
		AccountId:     account.ID,
		Kind:          input.Kind,
		Amount:        input.Amount,
		PostingDate:   input.PostingDate,
		DueDate:       input.DueDate,
		Description:   input.Description,
		ReferenceType: referenceType,
		ReferenceId:   input.ReferenceId,
		CreatedBy:     actorId,
	}
	if err := tx.AppendPosting(ctx, posting); err != nil {
		return nil, err
	}
	return posting, nil
}
