package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

type AccountFamily string

const (
	AccountFamilyCounterparty AccountFamily = "counterparty"
	AccountFamilyBank         AccountFamily = "bank"
)

func (f AccountFamily) IsValid() bool {
	switch f {
	case AccountFamilyCounterparty, AccountFamilyBank:
		return true
	}
	return false
}

type CounterpartyType string

const (
	CounterpartyTypeCustomer CounterpartyType = "customer"
	CounterpartyTypeSupplier CounterpartyType = "supplier"
	CounterpartyTypeBoth     CounterpartyType = "both"
)

func (t CounterpartyType) IsValid() bool {
	switch t {
	case CounterpartyTypeCustomer, CounterpartyTypeSupplier, CounterpartyTypeBoth:
		return true
	}
	return false
}

// code prefix used for generated account codes (M-00001)
func (t CounterpartyType) CodePrefix() string {
	switch t {
	case CounterpartyTypeCustomer:
		return "M"
	case CounterpartyTypeSupplier:
		return "T"
	default:
		return "C"
	}
}

// Direction is the effect a posting has on the balance owed to the ledger owner.
type Direction int

const (
	DirectionIncrease Direction = 1
	DirectionDecrease Direction = -1
)

// PostingKind is the vocabulary a ledger family uses for a signed posting.
// Counterparty ledgers say debit/credit, bank ledgers say deposit/withdrawal;
// both resolve to a Direction through Direction().
type PostingKind string

const (
	PostingKindDebit      PostingKind = "debit"
	PostingKindCredit     PostingKind = "credit"
	PostingKindDeposit    PostingKind = "deposit"
	PostingKindWithdrawal PostingKind = "withdrawal"
)

var ErrUnknownPostingKind = errors.New("unknown posting kind")

func (k PostingKind) Direction() (Direction, error) {
	switch k {
	case PostingKindDebit, PostingKindDeposit:
		return DirectionIncrease, nil
	case PostingKindCredit, PostingKindWithdrawal:
		return DirectionDecrease, nil
	}
	return 0, ErrUnknownPostingKind
}

func (k PostingKind) IsValid() bool {
	_, err := k.Direction()
	return err == nil
}

// Increases reports whether the kind adds to the balance. Unknown kinds never do.
func (k PostingKind) Increases() bool {
	d, err := k.Direction()
	return err == nil && d == DirectionIncrease
}

// Signed returns +amount for increasing kinds and -amount for decreasing ones.
func (k PostingKind) Signed(amount decimal.Decimal) (decimal.Decimal, error) {
	d, err := k.Direction()
	if err != nil {
		return decimal.Zero, err
	}
	if d == DirectionDecrease {
		return amount.Neg(), nil
	}
	return amount, nil
}

// AcceptedBy reports whether the kind belongs to the family's vocabulary.
func (k PostingKind) AcceptedBy(family AccountFamily) bool {
	switch family {
	case AccountFamilyCounterparty:
		return k == PostingKindDebit || k == PostingKindCredit
	case AccountFamilyBank:
		return k == PostingKindDeposit || k == PostingKindWithdrawal
	}
	return false
}

type ReferenceType string

const (
	ReferenceTypeInvoice       ReferenceType = "invoice"
	ReferenceTypePayment       ReferenceType = "payment"
	ReferenceTypeExpense       ReferenceType = "expense"
	ReferenceTypeManual        ReferenceType = "manual"
	ReferenceTypeBankStatement ReferenceType = "bank_statement"
)

type ReconciliationStatus string

const (
	ReconciliationStatusCompleted  ReconciliationStatus = "completed"
	ReconciliationStatusInProgress ReconciliationStatus = "in_progress"
)

type BudgetStatus string

const (
	BudgetStatusDraft BudgetStatus = "draft"
)
