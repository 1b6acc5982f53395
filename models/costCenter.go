package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CostCenter struct {
	ID                int              `gorm:"primary_key" json:"id"`
	TenantId          string           `gorm:"size:64;not null;index;uniqueIndex:idx_cost_center_tenant_code,priority:1" json:"tenant_id"`
	Code              string           `gorm:"size:32;not null;uniqueIndex:idx_cost_center_tenant_code,priority:2" json:"code"`
	Name              string           `gorm:"size:150;not null" json:"name"`
	Description       string           `gorm:"type:text" json:"description,omitempty"`
	ParentId          *int             `gorm:"index" json:"parent_id,omitempty"`
	AnnualBudget      *decimal.Decimal `gorm:"type:decimal(20,4)" json:"annual_budget,omitempty"`
	QuarterlyBudget   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"quarterly_budget,omitempty"`
	MonthlyBudget     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"monthly_budget,omitempty"`
	ResponsiblePerson string           `gorm:"size:100" json:"responsible_person,omitempty"`
	IsActive          *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c CostCenter) GetTenantId() string {
	return c.TenantId
}

func (c CostCenter) Active() bool {
	return c.IsActive == nil || *c.IsActive
}

type NewCostCenter struct {
	Code              string           `json:"code" validate:"required,max=32"`
	Name              string           `json:"name" validate:"required,max=150"`
	Description       string           `json:"description"`
	ParentId          *int             `json:"parent_id" validate:"omitempty,gt=0"`
	AnnualBudget      *decimal.Decimal `json:"annual_budget"`
	QuarterlyBudget   *decimal.Decimal `json:"quarterly_budget"`
	MonthlyBudget     *decimal.Decimal `json:"monthly_budget"`
	ResponsiblePerson string           `json:"responsible_person" validate:"max=100"`
}
