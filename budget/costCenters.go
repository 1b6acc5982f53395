package budget

import (
	"context"
	"strings"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

func nonNegative(name string, amount *decimal.Decimal) error {
	if amount == nil {
		return nil
	}
	if amount.IsNegative() {
		return utils.InvalidInput("%s must not be negative", name)
	}
	return utils.CheckMoneyScale(name, *amount)
}

func (t *Tracker) CreateCostCenter(ctx context.Context, tenantId string, input models.NewCostCenter) (costCenter *models.CostCenter, err error) {
	ctx, span := t.startSpan(ctx, "CreateCostCenter", tenantId)
	defer func() { t.endSpan(span, "CreateCostCenter", input, err) }()

	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	for name, amount := range map[string]*decimal.Decimal{
		"annual budget":    input.AnnualBudget,
		"quarterly budget": input.QuarterlyBudget,
		"monthly budget":   input.MonthlyBudget,
	} {
		if err := nonNegative(name, amount); err != nil {
			return nil, err
		}
	}

	err = t.store.WithinAccount(ctx, tenantId, 0, func(tx store.Store) error {
		if input.ParentId != nil {
			if _, err := tx.GetCostCenter(ctx, tenantId, *input.ParentId); err != nil {
				return err
			}
		}
		costCenter = &models.CostCenter{
			TenantId:          tenantId,
			Code:              strings.TrimSpace(input.Code),
			Name:              input.Name,
			Description:       input.Description,
			ParentId:          input.ParentId,
			AnnualBudget:      input.AnnualBudget,
			QuarterlyBudget:   input.QuarterlyBudget,
			MonthlyBudget:     input.MonthlyBudget,
			ResponsiblePerson: input.ResponsiblePerson,
			IsActive:          utils.NewTrue(),
		}
		return tx.CreateCostCenter(ctx, costCenter)
	})
	if err != nil {
		return nil, err
	}
	t.invalidateReports(ctx, tenantId)
	return costCenter, nil
}

func (t *Tracker) ListCostCenters(ctx context.Context, tenantId string) ([]*models.CostCenter, error) {
	return t.store.ListCostCenters(ctx, tenantId)
}

// CreateBudgetItem starts an item as a draft with nothing realized.
func (t *Tracker) CreateBudgetItem(ctx context.Context, tenantId string, input models.NewBudgetItem) (item *models.BudgetItem, err error) {
	ctx, span := t.startSpan(ctx, "CreateBudgetItem", tenantId, attribute.Int("budget.year", input.BudgetYear))
	defer func() { t.endSpan(span, "CreateBudgetItem", input, err) }()

	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if err := nonNegative("planned amount", &input.PlannedAmount); err != nil {
		return nil, err
	}

	err = t.store.WithinAccount(ctx, tenantId, 0, func(tx store.Store) error {
		if input.CostCenterId != nil {
			if _, err := tx.GetCostCenter(ctx, tenantId, *input.CostCenterId); err != nil {
				return err
			}
		}
		item = &models.BudgetItem{
			TenantId:        tenantId,
			Name:            input.Name,
			Category:        input.Category,
			Description:     input.Description,
			CostCenterId:    input.CostCenterId,
			BudgetYear:      input.BudgetYear,
			BudgetMonth:     input.BudgetMonth,
			BudgetQuarter:   input.BudgetQuarter,
			PlannedAmount:   input.PlannedAmount,
			ActualAmount:    decimal.Zero,
			Variance:        decimal.Zero,
			VariancePercent: decimal.Zero,
			Status:          models.BudgetStatusDraft,
		}
		return tx.CreateBudgetItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	t.invalidateReports(ctx, tenantId)
	return item, nil
}

func (t *Tracker) GetBudgetItem(ctx context.Context, tenantId string, itemId int) (*models.BudgetItem, error) {
	return t.store.GetBudgetItem(ctx, tenantId, itemId)
}

// CostCenterNode carries the year's own totals of a cost center and the rolled
// totals of its whole subtree.
type CostCenterNode struct {
	Id       int               `json:"id"`
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	ParentId *int              `json:"parent_id,omitempty"`
	Own      Totals            `json:"own"`
	Rolled   Totals            `json:"rolled"`
	Children []*CostCenterNode `json:"children"`
}

// CostCenterTree builds the forest of active cost centers ordered by code. A node
// whose parent is inactive or missing becomes a root.
func (t *Tracker) CostCenterTree(ctx context.Context, tenantId string, year int) (roots []*CostCenterNode, err error) {
	ctx, span := t.startSpan(ctx, "CostCenterTree", tenantId, attribute.Int("budget.year", year))
	defer func() { t.endSpan(span, "CostCenterTree", year, err) }()

	if err := validatePeriod(year, nil, nil); err != nil {
		return nil, err
	}
	centers, err := t.store.ListCostCenters(ctx, tenantId)
	if err != nil {
		return nil, err
	}
	items, err := t.store.ListBudgetItems(ctx, tenantId, models.BudgetFilter{Year: year})
	if err != nil {
		return nil, err
	}

	nodes := make(map[int]*CostCenterNode, len(centers))
	for _, c := range centers {
		if !c.Active() {
			continue
		}
		nodes[c.ID] = &CostCenterNode{
			Id:       c.ID,
			Code:     c.Code,
			Name:     c.Name,
			ParentId: c.ParentId,
			Own:      newTotals(),
			Rolled:   newTotals(),
			Children: make([]*CostCenterNode, 0),
		}
	}
	for _, item := range items {
		if item.CostCenterId == nil {
			continue
		}
		if node, ok := nodes[*item.CostCenterId]; ok {
			node.Own.add(item.PlannedAmount, item.ActualAmount)
			node.Own.ItemCount++
		}
	}

	roots = make([]*CostCenterNode, 0)
	// centers arrive ordered by code, so children keep code order
	for _, c := range centers {
		node, ok := nodes[c.ID]
		if !ok {
			continue
		}
		parent, hasParent := (*CostCenterNode)(nil), false
		if c.ParentId != nil && *c.ParentId != c.ID {
			parent, hasParent = nodes[*c.ParentId]
		}
		if hasParent {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}
	visited := map[int]bool{}
	for _, root := range roots {
		rollUp(root, visited)
	}
	return roots, nil
}

func rollUp(node *CostCenterNode, visited map[int]bool) Totals {
	if visited[node.Id] {
		return newTotals()
	}
	visited[node.Id] = true
	rolled := newTotals()
	rolled.add(node.Own.Planned, node.Own.Actual)
	rolled.ItemCount = node.Own.ItemCount
	for _, child := range node.Children {
		sub := rollUp(child, visited)
		rolled.add(sub.Planned, sub.Actual)
		rolled.ItemCount += sub.ItemCount
	}
	node.Rolled = rolled
	return rolled
}
