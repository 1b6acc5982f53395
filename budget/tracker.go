// Package budget compares planned amounts with realized amounts per category,
// cost center and period.
package budget

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	moduleName      = "Budget"
	unallocatedName = "Unallocated"
)

var hundred = decimal.NewFromInt(100)

type Tracker struct {
	store  store.Store
	cache  utils.ReportCache
	logger *logrus.Logger
	tracer trace.Tracer
	now    func() time.Time
}

type Option func(*Tracker)

func WithReportCache(cache utils.ReportCache) Option {
	return func(t *Tracker) {
		if cache != nil {
			t.cache = cache
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTracker(s store.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  s,
		cache:  utils.NoopReportCache{},
		logger: config.GetLogger(),
		tracer: otel.Tracer("ledger-engine"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) startSpan(ctx context.Context, name string, tenantId string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("tenant.id", tenantId))
	return t.tracer.Start(ctx, "budget."+name, trace.WithAttributes(attrs...))
}

func (t *Tracker) endSpan(span trace.Span, funcName string, data any, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !utils.IsDomainError(err) {
			config.LogError(t.logger, moduleName, funcName, "store failure", data, err)
		}
	}
	span.End()
}

func (t *Tracker) invalidateReports(ctx context.Context, tenantId string) {
	if err := t.cache.Invalidate(ctx, tenantId); err != nil {
		config.LogError(t.logger, moduleName, "InvalidateReports", "report cache invalidation", tenantId, err)
	}
}

// VariancePercent is variance / planned * 100, or 0 when nothing was planned.
func VariancePercent(variance decimal.Decimal, planned decimal.Decimal) decimal.Decimal {
	if !planned.IsPositive() {
		return decimal.Zero
	}
	return variance.Div(planned).Mul(hundred).Round(4)
}

// SetActual records the realized amount and recomputes the item's variance.
func (t *Tracker) SetActual(ctx context.Context, tenantId string, itemId int, actual decimal.Decimal) (item *models.BudgetItem, err error) {
	ctx, span := t.startSpan(ctx, "SetActual", tenantId, attribute.Int("budget_item.id", itemId))
	defer func() { t.endSpan(span, "SetActual", itemId, err) }()

	if actual.IsNegative() {
		return nil, utils.InvalidInput("actual amount must not be negative")
	}
	if err := utils.CheckMoneyScale("actual amount", actual); err != nil {
		return nil, err
	}
	err = t.store.WithinAccount(ctx, tenantId, 0, func(tx store.Store) error {
		var getErr error
		if item, getErr = tx.GetBudgetItem(ctx, tenantId, itemId); getErr != nil {
			return getErr
		}
		now := t.now()
		item.ActualAmount = actual
		item.Variance = actual.Sub(item.PlannedAmount)
		item.VariancePercent = VariancePercent(item.Variance, item.PlannedAmount)
		item.LastUpdated = &now
		return tx.SaveBudgetActual(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	t.invalidateReports(ctx, tenantId)
	return item, nil
}

type Totals struct {
	Planned         decimal.Decimal `json:"planned"`
	Actual          decimal.Decimal `json:"actual"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variance_percent"`
	ItemCount       int             `json:"item_count"`
}

func newTotals() Totals {
	return Totals{Planned: decimal.Zero, Actual: decimal.Zero, Variance: decimal.Zero, VariancePercent: decimal.Zero}
}

func (s *Totals) add(planned decimal.Decimal, actual decimal.Decimal) {
	s.Planned = s.Planned.Add(planned)
	s.Actual = s.Actual.Add(actual)
	s.Variance = s.Actual.Sub(s.Planned)
	s.VariancePercent = VariancePercent(s.Variance, s.Planned)
}

type Summary struct {
	Totals
	OverBudgetCount  int `json:"over_budget_count"`
	UnderBudgetCount int `json:"under_budget_count"`
}

func newSummary() Summary {
	return Summary{Totals: newTotals()}
}

// merge adds another summary; percent is recomputed from the summed totals.
func (s *Summary) merge(other Summary) {
	s.add(other.Planned, other.Actual)
	s.ItemCount += other.ItemCount
	s.OverBudgetCount += other.OverBudgetCount
	s.UnderBudgetCount += other.UnderBudgetCount
}

type Group struct {
	Key          string `json:"key"`
	CostCenterId *int   `json:"cost_center_id,omitempty"`
	Totals
}

type TrackReport struct {
	Year         int                  `json:"year"`
	Month        *int                 `json:"month,omitempty"`
	Quarter      *int                 `json:"quarter,omitempty"`
	Summary      Summary              `json:"summary"`
	ByCategory   []*Group             `json:"by_category"`
	ByCostCenter []*Group             `json:"by_cost_center"`
	Items        []*models.BudgetItem `json:"items"`
}

func trackCacheKey(filter models.BudgetFilter) string {
	return fmt.Sprintf("budget-track:%d:%d:%d", filter.Year, utils.DereferencePtr(filter.Month), utils.DereferencePtr(filter.Quarter))
}

func validatePeriod(year int, month *int, quarter *int) error {
	if year < 1900 || year > 9999 {
		return utils.InvalidInput("year %d is out of range", year)
	}
	if month != nil && (*month < 1 || *month > 12) {
		return utils.InvalidInput("month %d is out of range", *month)
	}
	if quarter != nil && (*quarter < 1 || *quarter > 4) {
		return utils.InvalidInput("quarter %d is out of range", *quarter)
	}
	return nil
}

// Track groups the period's items by category and by cost center. Group percents
// come from the group totals, never from averaging item percents.
func (t *Tracker) Track(ctx context.Context, tenantId string, year int, month *int, quarter *int) (report *TrackReport, err error) {
	ctx, span := t.startSpan(ctx, "Track", tenantId, attribute.Int("budget.year", year))
	defer func() { t.endSpan(span, "Track", year, err) }()

	if err := validatePeriod(year, month, quarter); err != nil {
		return nil, err
	}
	filter := models.BudgetFilter{Year: year, Month: month, Quarter: quarter}
	return utils.CachedReport(ctx, t.cache, t.logger, tenantId, trackCacheKey(filter), func() (*TrackReport, error) {
		return t.track(ctx, tenantId, filter)
	})
}

func (t *Tracker) track(ctx context.Context, tenantId string, filter models.BudgetFilter) (*TrackReport, error) {
	items, err := t.store.ListBudgetItems(ctx, tenantId, filter)
	if err != nil {
		return nil, err
	}
	centers, err := t.store.ListCostCenters(ctx, tenantId)
	if err != nil {
		return nil, err
	}
	centerNames := make(map[int]string, len(centers))
	for _, c := range centers {
		centerNames[c.ID] = c.Name
	}

	report := &TrackReport{
		Year:         filter.Year,
		Month:        filter.Month,
		Quarter:      filter.Quarter,
		Summary:      newSummary(),
		ByCategory:   make([]*Group, 0),
		ByCostCenter: make([]*Group, 0),
		Items:        items,
	}
	categories := map[string]*Group{}
	costCenters := map[int]*Group{}
	for _, item := range items {
		report.Summary.add(item.PlannedAmount, item.ActualAmount)
		report.Summary.ItemCount++
		switch item.ActualAmount.Cmp(item.PlannedAmount) {
		case 1:
			report.Summary.OverBudgetCount++
		case -1:
			report.Summary.UnderBudgetCount++
		}

		category, ok := categories[item.Category]
		if !ok {
			category = &Group{Key: item.Category, Totals: newTotals()}
			categories[item.Category] = category
			report.ByCategory = append(report.ByCategory, category)
		}
		category.add(item.PlannedAmount, item.ActualAmount)
		category.ItemCount++

		centerId := utils.DereferencePtr(item.CostCenterId)
		center, ok := costCenters[centerId]
		if !ok {
			center = &Group{Key: unallocatedName, Totals: newTotals()}
			if centerId != 0 {
				id := centerId
				center.CostCenterId = &id
				if name, found := centerNames[centerId]; found {
					center.Key = name
				}
			}
			costCenters[centerId] = center
			report.ByCostCenter = append(report.ByCostCenter, center)
		}
		center.add(item.PlannedAmount, item.ActualAmount)
		center.ItemCount++
	}
	sort.SliceStable(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].Key < report.ByCategory[j].Key
	})
	sort.SliceStable(report.ByCostCenter, func(i, j int) bool {
		a, b := report.ByCostCenter[i], report.ByCostCenter[j]
		if (a.CostCenterId == nil) != (b.CostCenterId == nil) {
			return b.CostCenterId == nil
		}
		return a.Key < b.Key
	})
	return report, nil
}

type MonthSummary struct {
	Month   int     `json:"month"`
	Summary Summary `json:"summary"`
}

type YearComparison struct {
	Year       int            `json:"year"`
	Months     []MonthSummary `json:"months"`
	YearTotals Summary        `json:"year_totals"`
}

// CompareYear tracks each month of the year and sums the twelve summaries.
// Items without a month key belong to no month and are left out.
func (t *Tracker) CompareYear(ctx context.Context, tenantId string, year int) (comparison *YearComparison, err error) {
	ctx, span := t.startSpan(ctx, "CompareYear", tenantId, attribute.Int("budget.year", year))
	defer func() { t.endSpan(span, "CompareYear", year, err) }()

	comparison = &YearComparison{Year: year, Months: make([]MonthSummary, 0, 12), YearTotals: newSummary()}
	for m := 1; m <= 12; m++ {
		month := m
		report, err := t.Track(ctx, tenantId, year, &month, nil)
		if err != nil {
			return nil, err
		}
		comparison.Months = append(comparison.Months, MonthSummary{Month: month, Summary: report.Summary})
		comparison.YearTotals.merge(report.Summary)
	}
	return comparison, nil
}
