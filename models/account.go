package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a ledger subject: a counterparty card or a bank account.
//
// Balance is a denormalized cache of the signed sum of the account's postings.
// It can lag behind the postings between a write and the next recompute;
// BalanceRecomputedAt records when it was last derived from the posting set.
type Account struct {
	ID                  int              `gorm:"primary_key" json:"id"`
	TenantId            string           `gorm:"size:64;not null;index;uniqueIndex:idx_account_tenant_code,priority:1" json:"tenant_id"`
	Code                string           `gorm:"size:32;not null;uniqueIndex:idx_account_tenant_code,priority:2" json:"code"`
	Name                string           `gorm:"size:150;not null;index" json:"name"`
	Family              AccountFamily    `gorm:"size:20;not null;index" json:"family"`
	Type                CounterpartyType `gorm:"size:20;index" json:"type,omitempty"`
	AccountNumber       string           `gorm:"size:100" json:"account_number,omitempty"`
	BankName            string           `gorm:"size:100" json:"bank_name,omitempty"`
	Iban                string           `gorm:"size:64" json:"iban,omitempty"`
	IsActive            *bool            `gorm:"not null;default:true" json:"is_active"`
	Balance             decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	BalanceRecomputedAt *time.Time       `json:"balance_recomputed_at,omitempty"`
	LastReconciled      *time.Time       `json:"last_reconciled,omitempty"`
	CreatedBy           int              `gorm:"not null;default:0" json:"created_by"`
	CreatedAt           time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a Account) GetTenantId() string {
	return a.TenantId
}

func (a Account) Active() bool {
	return a.IsActive == nil || *a.IsActive
}

type NewAccount struct {
	Name          string           `json:"name" validate:"required,max=150"`
	Family        AccountFamily    `json:"family" validate:"required,oneof=counterparty bank"`
	Type          CounterpartyType `json:"type" validate:"omitempty,oneof=customer supplier both"`
	Code          string           `json:"code" validate:"max=32"`
	AccountNumber string           `json:"account_number" validate:"max=100"`
	BankName      string           `json:"bank_name" validate:"max=100"`
	Iban          string           `json:"iban" validate:"max=64"`
}

type AccountFilter struct {
	Family     *AccountFamily
	Type       *CounterpartyType
	Search     string
	IsActive   *bool
	HasBalance bool
}
