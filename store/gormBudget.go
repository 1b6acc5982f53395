package store

import (
	"context"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
)

func (s *GormStore) CreateCostCenter(ctx context.Context, costCenter *models.CostCenter) error {
	return translateError(s.db.WithContext(ctx).Create(costCenter).Error, "cost center code")
}

func (s *GormStore) GetCostCenter(ctx context.Context, tenantId string, id int) (*models.CostCenter, error) {
	var costCenter models.CostCenter
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&costCenter).Error; err != nil {
		return nil, translateError(err, "cost center")
	}
	if costCenter.TenantId != tenantId {
		return nil, utils.ErrorTenantMismatch
	}
	return &costCenter, nil
}

func (s *GormStore) ListCostCenters(ctx context.Context, tenantId string) ([]*models.CostCenter, error) {
	results := make([]*models.CostCenter, 0)
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantId).Order("code").Find(&results).Error
	return results, err
}

func (s *GormStore) CreateBudgetItem(ctx context.Context, item *models.BudgetItem) error {
	return translateError(s.db.WithContext(ctx).Create(item).Error, "budget item")
}

func (s *GormStore) GetBudgetItem(ctx context.Context, tenantId string, id int) (*models.BudgetItem, error) {
	var item models.BudgetItem
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&item).Error; err != nil {
		return nil, translateError(err, "budget item")
	}
	if item.TenantId != tenantId {
		return nil, utils.ErrorTenantMismatch
	}
	return &item, nil
}

func (s *GormStore) SaveBudgetActual(ctx context.Context, item *models.BudgetItem) error {
	result := s.db.WithContext(ctx).Model(&models.BudgetItem{}).
		Where("tenant_id = ? AND id = ?", item.TenantId, item.ID).
		Updates(map[string]interface{}{
			"actual_amount":    item.ActualAmount,
			"variance":         item.Variance,
			"variance_percent": item.VariancePercent,
			"last_updated":     item.LastUpdated,
		})
	return result.Error
}

func (s *GormStore) ListBudgetItems(ctx context.Context, tenantId string, filter models.BudgetFilter) ([]*models.BudgetItem, error) {
	dbCtx := s.db.WithContext(ctx).Where("tenant_id = ? AND budget_year = ?", tenantId, filter.Year)
	if filter.Month != nil {
		dbCtx = dbCtx.Where("budget_month = ?", *filter.Month)
	}
	if filter.Quarter != nil {
		dbCtx = dbCtx.Where("budget_quarter = ?", *filter.Quarter)
	}
	results := make([]*models.BudgetItem, 0)
	err := dbCtx.Order("category").Order("id").Find(&results).Error
	return results, err
}
