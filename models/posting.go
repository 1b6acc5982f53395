package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Posting is a single signed financial movement against an account.
type Posting struct {
	ID            int             `gorm:"primary_key;index:idx_posting_order,priority:4" json:"id"`
	TenantId      string          `gorm:"size:64;not null;index;index:idx_posting_order,priority:1" json:"tenant_id"`
	AccountId     int             `gorm:"not null;index;index:idx_posting_order,priority:2" json:"account_id"`
	Kind          PostingKind     `gorm:"size:20;not null" json:"kind"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PostingDate   time.Time       `gorm:"not null;index:idx_posting_order,priority:3" json:"posting_date"`
	DueDate       *time.Time      `gorm:"index" json:"due_date,omitempty"`
	Description   string          `gorm:"size:255" json:"description"`
	ReferenceType ReferenceType   `gorm:"size:20" json:"reference_type,omitempty"`
	ReferenceId   *int            `json:"reference_id,omitempty"`
	IsReconciled  bool            `gorm:"not null;default:false;index" json:"is_reconciled"`
	ReconciledAt  *time.Time      `json:"reconciled_at,omitempty"`
	ReconciledBy  *int            `json:"reconciled_by,omitempty"`
	CreatedBy     int             `gorm:"not null;default:0" json:"created_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (p Posting) GetTenantId() string {
	return p.TenantId
}

// SignedAmount is +amount for balance-increasing kinds, -amount otherwise.
func (p Posting) SignedAmount() (decimal.Decimal, error) {
	return p.Kind.Signed(p.Amount)
}

// Ledger immutability guardrails:
// - postings are never deleted.
// - only the reconciliation marker may be updated.

var ErrImmutablePosting = errors.New("immutable ledger: only the reconciliation marker may be updated on postings")

func (p *Posting) BeforeUpdate(tx *gorm.DB) error {
	allowed := map[string]bool{
		"IsReconciled": true,
		"ReconciledAt": true,
		"ReconciledBy": true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return ErrImmutablePosting
		}
	}
	return nil
}

func (p *Posting) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: postings cannot be deleted")
}

type NewPosting struct {
	AccountId     int             `json:"account_id" validate:"required,gt=0"`
	Kind          PostingKind     `json:"kind" validate:"required,oneof=debit credit deposit withdrawal"`
	Amount        decimal.Decimal `json:"amount"`
	PostingDate   time.Time       `json:"posting_date" validate:"required"`
	DueDate       *time.Time      `json:"due_date"`
	Description   string          `json:"description" validate:"max=255"`
	ReferenceType ReferenceType   `json:"reference_type" validate:"omitempty,oneof=invoice payment expense manual bank_statement"`
	ReferenceId   *int            `json:"reference_id"`
}

// PostingQuery selects postings of one account. Nil bounds are open; both bounds are inclusive.
type PostingQuery struct {
	AccountId  int
	From       *time.Time
	To         *time.Time
	Before     *time.Time // strictly before, used for opening balances
	Kind       *PostingKind
	Reconciled *bool
}
