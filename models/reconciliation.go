package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reconciliation records one comparison of the book balance against an asserted balance.
// Records are one-shot: a later attempt for the same period produces a new record.
type Reconciliation struct {
	ID                   int                  `gorm:"primary_key" json:"id"`
	TenantId             string               `gorm:"size:64;not null;index;index:idx_recon_account,priority:1" json:"tenant_id"`
	AccountId            int                  `gorm:"not null;index:idx_recon_account,priority:2" json:"account_id"`
	ReconciliationNumber string               `gorm:"size:64;not null;uniqueIndex" json:"reconciliation_number"`
	PeriodStart          time.Time            `gorm:"not null" json:"period_start"`
	PeriodEnd            time.Time            `gorm:"not null" json:"period_end"`
	BookBalance          decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"book_balance"`
	AssertedBalance      decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"asserted_balance"`
	Difference           decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"difference"`
	ReconciledCount      int                  `gorm:"not null;default:0" json:"reconciled_count"`
	UnreconciledCount    int                  `gorm:"not null;default:0" json:"unreconciled_count"`
	Status               ReconciliationStatus `gorm:"size:20;not null;index" json:"status"`
	ReconciledBy         int                  `gorm:"not null" json:"reconciled_by"`
	Notes                string               `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt            time.Time            `gorm:"autoCreateTime;index:idx_recon_account,priority:3" json:"created_at"`
}

func (r Reconciliation) GetTenantId() string {
	return r.TenantId
}

func (r *Reconciliation) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: reconciliations cannot be updated")
}

func (r *Reconciliation) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: reconciliations cannot be deleted")
}

type NewReconciliation struct {
	AccountId       int             `json:"account_id" validate:"required,gt=0"`
	PeriodStart     time.Time       `json:"period_start" validate:"required"`
	PeriodEnd       time.Time       `json:"period_end" validate:"required"`
	AssertedBalance decimal.Decimal `json:"asserted_balance"`
	ActorId         int             `json:"actor_id" validate:"required,gt=0"`
	Notes           string          `json:"notes"`
}
