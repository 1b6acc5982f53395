package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetItem pairs a planned amount with the realized amount for one period key.
// Variance = actual - planned; VariancePercent = variance / planned * 100 (0 when planned is 0).
type BudgetItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	TenantId        string          `gorm:"size:64;not null;index;index:idx_budget_period,priority:1" json:"tenant_id"`
	Name            string          `gorm:"size:150;not null" json:"name"`
	Category        string          `gorm:"size:100;not null;index" json:"category"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	CostCenterId    *int            `gorm:"index" json:"cost_center_id,omitempty"`
	BudgetYear      int             `gorm:"not null;index:idx_budget_period,priority:2" json:"budget_year"`
	BudgetMonth     *int            `gorm:"index:idx_budget_period,priority:3" json:"budget_month,omitempty"`
	BudgetQuarter   *int            `json:"budget_quarter,omitempty"`
	PlannedAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"planned_amount"`
	ActualAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"actual_amount"`
	Variance        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"variance"`
	VariancePercent decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"variance_percent"`
	Status          BudgetStatus    `gorm:"size:20;not null;default:'draft'" json:"status"`
	LastUpdated     *time.Time      `json:"last_updated,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b BudgetItem) GetTenantId() string {
	return b.TenantId
}

type NewBudgetItem struct {
	Name          string          `json:"name" validate:"required,max=150"`
	Category      string          `json:"category" validate:"required,max=100"`
	Description   string          `json:"description"`
	CostCenterId  *int            `json:"cost_center_id" validate:"omitempty,gt=0"`
	BudgetYear    int             `json:"budget_year" validate:"required,gte=1900,lte=9999"`
	BudgetMonth   *int            `json:"budget_month" validate:"omitempty,gte=1,lte=12"`
	BudgetQuarter *int            `json:"budget_quarter" validate:"omitempty,gte=1,lte=4"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
}

// BudgetFilter selects items of a year; nil month/quarter match every item.
type BudgetFilter struct {
	Year    int
	Month   *int
	Quarter *int
}
