package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

type memoryData struct {
	accounts        map[int]models.Account
	postings        map[int]models.Posting
	reconciliations map[int]models.Reconciliation
	costCenters     map[int]models.CostCenter
	budgetItems     map[int]models.BudgetItem
	seq             int
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		accounts:        make(map[int]models.Account, len(d.accounts)),
		postings:        make(map[int]models.Posting, len(d.postings)),
		reconciliations: make(map[int]models.Reconciliation, len(d.reconciliations)),
		costCenters:     make(map[int]models.CostCenter, len(d.costCenters)),
		budgetItems:     make(map[int]models.BudgetItem, len(d.budgetItems)),
		seq:             d.seq,
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.postings {
		c.postings[k] = v
	}
	for k, v := range d.reconciliations {
		c.reconciliations[k] = v
	}
	for k, v := range d.costCenters {
		c.costCenters[k] = v
	}
	for k, v := range d.budgetItems {
		c.budgetItems[k] = v
	}
	return c
}

func (d *memoryData) nextId() int {
	d.seq++
	return d.seq
}

// MemoryStore is an in-process Store for tests and tools. A failed WithinAccount
// unit restores the state it started from.
type MemoryStore struct {
	mu     *sync.Mutex
	data   **memoryData
	locked bool
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	data := &memoryData{
		accounts:        map[int]models.Account{},
		postings:        map[int]models.Posting{},
		reconciliations: map[int]models.Reconciliation{},
		costCenters:     map[int]models.CostCenter{},
		budgetItems:     map[int]models.BudgetItem{},
	}
	return &MemoryStore{mu: &sync.Mutex{}, data: &data, now: time.Now}
}

func (s *MemoryStore) lock() func() {
	if s.locked {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) d() *memoryData {
	return *s.data
}

func (s *MemoryStore) WithinAccount(ctx context.Context, tenantId string, accountId int, fn func(tx Store) error) error {
	if s.locked {
		if accountId > 0 {
			if _, err := s.GetAccount(ctx, tenantId, accountId); err != nil {
				return err
			}
		}
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{mu: s.mu, data: s.data, locked: true, now: s.now}
	if accountId > 0 {
		if _, err := tx.GetAccount(ctx, tenantId, accountId); err != nil {
			return err
		}
	}
	snapshot := s.d().clone()
	if err := fn(tx); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

/* accounts */

func (s *MemoryStore) CreateAccount(ctx context.Context, account *models.Account) error {
	defer s.lock()()
	d := s.d()
	for _, a := range d.accounts {
		if a.TenantId == account.TenantId && a.Code == account.Code {
			return utils.Conflict("duplicate account code")
		}
	}
	if account.IsActive == nil {
		active := true
		account.IsActive = &active
	}
	account.ID = d.nextId()
	account.CreatedAt = s.now()
	account.UpdatedAt = account.CreatedAt
	d.accounts[account.ID] = *account
	return nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, tenantId string, id int) (*models.Account, error) {
	defer s.lock()()
	a, ok := s.d().accounts[id]
	if !ok {
		return nil, utils.NotFound("account")
	}
	if a.TenantId != tenantId {
		return nil, utils.ErrorTenantMismatch
	}
	return &a, nil
}

func (s *MemoryStore) ListAccounts(ctx context.Context, tenantId string, filter models.AccountFilter) ([]*models.Account, error) {
	defer s.lock()()
	results := make([]*models.Account, 0)
	search := strings.ToLower(filter.Search)
	for _, a := range s.d().accounts {
		if a.TenantId != tenantId {
			continue
		}
		if filter.Family != nil && a.Family != *filter.Family {
			continue
		}
		if filter.Type != nil && a.Type != *filter.Type {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) && !strings.Contains(strings.ToLower(a.Code), search) {
			continue
		}
		if filter.IsActive != nil && a.Active() != *filter.IsActive {
			continue
		}
		if filter.HasBalance && a.Balance.IsZero() {
			continue
		}
		a := a
		results = append(results, &a)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	return results, nil
}

func (s *MemoryStore) LastAccountId(ctx context.Context, tenantId string) (int, error) {
	defer s.lock()()
	last := 0
	for id, a := range s.d().accounts {
		if a.TenantId == tenantId && id > last {
			last = id
		}
	}
	return last, nil
}

func (s *MemoryStore) updateAccount(tenantId string, id int, fn func(a *models.Account)) error {
	defer s.lock()()
	d := s.d()
	a, ok := d.accounts[id]
	if !ok || a.TenantId != tenantId {
		return utils.NotFound("account")
	}
	fn(&a)
	a.UpdatedAt = s.now()
	d.accounts[id] = a
	return nil
}

func (s *MemoryStore) SetAccountBalance(ctx context.Context, tenantId string, id int, balance decimal.Decimal, at time.Time) error {
	return s.updateAccount(tenantId, id, func(a *models.Account) {
		a.Balance = balance
		a.BalanceRecomputedAt = &at
	})
}

func (s *MemoryStore) SetAccountActive(ctx context.Context, tenantId string, id int, active bool) error {
	return s.updateAccount(tenantId, id, func(a *models.Account) {
		a.IsActive = &active
	})
}

func (s *MemoryStore) SetLastReconciled(ctx context.Context, tenantId string, id int, at time.Time) error {
	return s.updateAccount(tenantId, id, func(a *models.Account) {
		a.LastReconciled = &at
	})
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, tenantId string, id int) error {
	defer s.lock()()
	d := s.d()
	a, ok := d.accounts[id]
	if !ok || a.TenantId != tenantId {
		return utils.NotFound("account")
	}
	delete(d.accounts, id)
	return nil
}

/* postings */

func (s *MemoryStore) AppendPosting(ctx context.Context, posting *models.Posting) error {
	if posting.ID != 0 {
		return errors.New("immutable ledger: posting already persisted")
	}
	defer s.lock()()
	d := s.d()
	posting.ID = d.nextId()
	posting.CreatedAt = s.now()
	d.postings[posting.ID] = *posting
	return nil
}

func (s *MemoryStore) GetPosting(ctx context.Context, tenantId string, id int) (*models.Posting, error) {
	defer s.lock()()
	p, ok := s.d().postings[id]
	if !ok {
		return nil, utils.NotFound("posting")
	}
	if p.TenantId != tenantId {
		return nil, utils.ErrorTenantMismatch
	}
	return &p, nil
}

func (s *MemoryStore) QueryPostings(ctx context.Context, tenantId string, query models.PostingQuery) ([]*models.Posting, error) {
	defer s.lock()()
	results := make([]*models.Posting, 0)
	for _, p := range s.d().postings {
		if p.TenantId != tenantId || p.AccountId != query.AccountId {
			continue
		}
		if query.From != nil && p.PostingDate.Before(*query.From) {
			continue
		}
		if query.To != nil && p.PostingDate.After(*query.To) {
			continue
		}
		if query.Before != nil && !p.PostingDate.Before(*query.Before) {
			continue
		}
		if query.Kind != nil && p.Kind != *query.Kind {
			continue
		}
		if query.Reconciled != nil && p.IsReconciled != *query.Reconciled {
			continue
		}
		p := p
		results = append(results, &p)
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].PostingDate.Equal(results[j].PostingDate) {
			return results[i].PostingDate.Before(results[j].PostingDate)
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

func (s *MemoryStore) CountPostings(ctx context.Context, tenantId string, accountId int) (int64, error) {
	defer s.lock()()
	var count int64
	for _, p := range s.d().postings {
		if p.TenantId == tenantId && p.AccountId == accountId {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) MarkReconciled(ctx context.Context, tenantId string, ids []int, actorId int, at time.Time) (int64, error) {
	defer s.lock()()
	d := s.d()
	var changed int64
	for _, id := range utils.UniqueSlice(ids) {
		p, ok := d.postings[id]
		if !ok || p.TenantId != tenantId || p.IsReconciled {
			continue
		}
		actor := actorId
		reconciledAt := at
		p.IsReconciled = true
		p.ReconciledAt = &reconciledAt
		p.ReconciledBy = &actor
		d.postings[id] = p
		changed++
	}
	return changed, nil
}

/* reconciliations */

func (s *MemoryStore) CreateReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error {
	defer s.lock()()
	d := s.d()
	for _, r := range d.reconciliations {
		if r.ReconciliationNumber == reconciliation.ReconciliationNumber {
			return utils.Conflict("duplicate reconciliation number")
		}
	}
	reconciliation.ID = d.nextId()
	reconciliation.CreatedAt = s.now()
	d.reconciliations[reconciliation.ID] = *reconciliation
	return nil
}

func (s *MemoryStore) ListReconciliations(ctx context.Context, tenantId string, accountId int) ([]*models.Reconciliation, error) {
	defer s.lock()()
	results := make([]*models.Reconciliation, 0)
	for _, r := range s.d().reconciliations {
		if r.TenantId == tenantId && r.AccountId == accountId {
			r := r
			results = append(results, &r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID > results[j].ID
	})
	return results, nil
}

func (s *MemoryStore) CountReconciliations(ctx context.Context, tenantId string, accountId int) (int64, error) {
	defer s.lock()()
	var count int64
	for _, r := range s.d().reconciliations {
		if r.TenantId == tenantId && r.AccountId == accountId {
			count++
		}
	}
	return count, nil
}

/* budget */

func (s *MemoryStore) CreateCostCenter(ctx context.Context, costCenter *models.CostCenter) error {
	defer s.lock()()
	d := s.d()
	for _, c := range d.costCenters {
		if c.TenantId == costCenter.TenantId && c.Code == costCenter.Code {
			return utils.Conflict("duplicate cost center code")
		}
	}
	if costCenter.IsActive == nil {
		active := true
		costCenter.IsActive = &active
	}
	costCenter.ID = d.nextId()
	costCenter.CreatedAt = s.now()
	costCenter.UpdatedAt = costCenter.CreatedAt
	d.costCenters[costCenter.ID] = *costCenter
	return nil
}

func (s *MemoryStore) GetCostCenter(ctx context.Context, tenantId string, id int) (*models.CostCenter, error) {
	defer s.lock()()
	c, ok := s.d().costCenters[id]
	if !ok {
		return nil, utils.NotFound("cost center")
	}
	if c.TenantId != tenantId {
		return nil, utils.ErrorTenantMismatch
	}
	return &c, nil
}

func (s *MemoryStore) ListCostCenters(ctx context.Context, tenantId string) ([]*models.CostCenter, error) {
	defer s.lock()()
	results := make([]*models.CostCenter, 0)
	for _, c := range s.d().costCenters {
		if c.TenantId == tenantId {
			c := c
			results = append(results, &c)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Code < results[j].Code })
	return results, nil
}

func (s *MemoryStore) CreateBudgetItem(ctx context.Context, item *models.BudgetItem) error {
	defer s.lock()()
	d := s.d()
	if item.Status == "" {
		item.Status = models.BudgetStatusDraft
	}
	item.ID = d.nextId()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	d.budgetItems[item.ID] = *item
	return nil
}

func (s *MemoryStore) GetBudgetItem(ctx context.Context, tenantId string, id int) (*models.BudgetItem, error) {
	defer s.lock()()
	b, ok := s.d().budgetItems[id]
	if !ok {
		return nil, utils.NotFound("budget item")
	}
	if b.TenantId != tenantId {
		return nil, utils.ErrorTenantMismatch
	}
	return &b, nil
}

func (s *MemoryStore) SaveBudgetActual(ctx context.Context, item *models.BudgetItem) error {
	defer s.lock()()
	d := s.d()
	b, ok := d.budgetItems[item.ID]
	if !ok || b.TenantId != item.TenantId {
		return utils.NotFound("budget item")
	}
	b.ActualAmount = item.ActualAmount
	b.Variance = item.Variance
	b.VariancePercent = item.VariancePercent
	b.LastUpdated = item.LastUpdated
	b.UpdatedAt = s.now()
	d.budgetItems[item.ID] = b
	return nil
}

func (s *MemoryStore) ListBudgetItems(ctx context.Context, tenantId string, filter models.BudgetFilter) ([]*models.BudgetItem, error) {
	defer s.lock()()
	results := make([]*models.BudgetItem, 0)
	for _, b := range s.d().budgetItems {
		if b.TenantId != tenantId || b.BudgetYear != filter.Year {
			continue
		}
		if filter.Month != nil && (b.BudgetMonth == nil || *b.BudgetMonth != *filter.Month) {
			continue
		}
		if filter.Quarter != nil && (b.BudgetQuarter == nil || *b.BudgetQuarter != *filter.Quarter) {
			continue
		}
		b := b
		results = append(results, &b)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Category != results[j].Category {
			return results[i].Category < results[j].Category
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}
