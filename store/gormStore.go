package store

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on a relational database through gorm.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithinAccount(ctx context.Context, tenantId string, accountId int, fn func(tx Store) error) error {
	if s.inTx {
		if accountId > 0 {
			if err := lockAccountRow(ctx, s.db, tenantId, accountId); err != nil {
				return err
			}
		}
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if accountId > 0 {
			if err := lockAccountRow(ctx, tx, tenantId, accountId); err != nil {
				return err
			}
		}
		return fn(&GormStore{db: tx, inTx: true})
	})
}

// SELECT ... FOR UPDATE on the account row (sqlite ignores the locking clause).
func lockAccountRow(ctx context.Context, tx *gorm.DB, tenantId string, accountId int) error {
	var account models.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("tenant_id = ? AND id = ?", tenantId, accountId).
		Take(&account).Error
	return translateError(err, "account")
}

/* accounts */

func (s *GormStore) CreateAccount(ctx context.Context, account *models.Account) error {
	return translateError(s.db.WithContext(ctx).Create(account).Error, "account code")
}

func (s *GormStore) GetAccount(ctx context.Context, tenantId string, id int) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&account).Error; err != nil {
		return nil, translateError(err, "account")
	}
	if account.TenantId != tenantId {
		return nil, utils.ErrorTenantMismatch
	}
	return &account, nil
}

func (s *GormStore) ListAccounts(ctx context.Context, tenantId string, filter models.AccountFilter) ([]*models.Account, error) {
	dbCtx := s.db.WithContext(ctx).Model(&models.Account{}).Where("tenant_id = ?", tenantId)
	if filter.Family != nil {
		dbCtx = dbCtx.Where("family = ?", *filter.Family)
	}
	if filter.Type != nil {
		dbCtx = dbCtx.Where("type = ?", *filter.Type)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		dbCtx = dbCtx.Where("(name LIKE ? OR code LIKE ?)", like, like)
	}
	if filter.IsActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *filter.IsActive)
	}
	if filter.HasBalance {
		dbCtx = dbCtx.Where("balance <> 0")
	}
	accounts := make([]*models.Account, 0)
	if err := dbCtx.Order("id DESC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *GormStore) LastAccountId(ctx context.Context, tenantId string) (int, error) {
	var id int
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("tenant_id = ?", tenantId).
		Select("COALESCE(MAX(id), 0)").
		Scan(&id).Error
	return id, err
}

// Callers load the account first: MySQL counts unchanged rows as unaffected.
func (s *GormStore) updateAccount(ctx context.Context, tenantId string, id int, values map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("tenant_id = ? AND id = ?", tenantId, id).
		Updates(values)
	return result.Error
}

func (s *GormStore) SetAccountBalance(ctx context.Context, tenantId string, id int, balance decimal.Decimal, at time.Time) error {
	return s.updateAccount(ctx, tenantId, id, map[string]interface{}{
		"balance":               balance,
		"balance_recomputed_at": at,
	})
}

func (s *GormStore) SetAccountActive(ctx context.Context, tenantId string, id int, active bool) error {
	return s.updateAccount(ctx, tenantId, id, map[string]interface{}{"is_active": active})
}

func (s *GormStore) SetLastReconciled(ctx context.Context, tenantId string, id int, at time.Time) error {
	return s.updateAccount(ctx, tenantId, id, map[string]interface{}{"last_reconciled": at})
}

func (s *GormStore) DeleteAccount(ctx context.Context, tenantId string, id int) error {
	result := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantId, id).Delete(&models.Account{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NotFound("account")
	}
	return nil
}

/* postings */

func (s *GormStore) AppendPosting(ctx context.Context, posting *models.Posting) error {
	if posting.ID != 0 {
		return errors.New("immutable ledger: posting already persisted")
	}
	return translateError(s.db.WithContext(ctx).Create(posting).Error, "posting")
}

func (s *GormStore) GetPosting(ctx context.Context, tenantId string, id int) (*models.Posting, error) {
	var posting models.Posting
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&posting).Error; err != nil {
		return nil, translateError(err, "posting")
	}
	if posting.TenantId != tenantId {
		return nil, utils.ErrorTenantMismatch
	}
	return &posting, nil
}

func (s *GormStore) QueryPostings(ctx context.Context, tenantId string, query models.PostingQuery) ([]*models.Posting, error) {
	dbCtx := s.db.WithContext(ctx).Model(&models.Posting{}).
		Where("tenant_id = ? AND account_id = ?", tenantId, query.AccountId)
	if query.From != nil {
		dbCtx = dbCtx.Where("posting_date >= ?", *query.From)
	}
	if query.To != nil {
		dbCtx = dbCtx.Where("posting_date <= ?", *query.To)
	}
	if query.Before != nil {
		dbCtx = dbCtx.Where("posting_date < ?", *query.Before)
	}
	if query.Kind != nil {
		dbCtx = dbCtx.Where("kind = ?", *query.Kind)
	}
	if query.Reconciled != nil {
		dbCtx = dbCtx.Where("is_reconciled = ?", *query.Reconciled)
	}
	postings := make([]*models.Posting, 0)
	if err := dbCtx.Order("posting_date ASC").Order("id ASC").Find(&postings).Error; err != nil {
		return nil, err
	}
	return postings, nil
}

func (s *GormStore) CountPostings(ctx context.Context, tenantId string, accountId int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Posting{}).
		Where("tenant_id = ? AND account_id = ?", tenantId, accountId).
		Count(&count).Error
	return count, err
}

func (s *GormStore) MarkReconciled(ctx context.Context, tenantId string, ids []int, actorId int, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Model(&models.Posting{}).
		Where("tenant_id = ? AND id IN ? AND is_reconciled = ?", tenantId, ids, false).
		Updates(map[string]interface{}{
			"is_reconciled": true,
			"reconciled_at": at,
			"reconciled_by": actorId,
		})
	return result.RowsAffected, result.Error
}

/* reconciliations */

func (s *GormStore) CreateReconciliation(ctx context.Context, reconciliation *models.Reconciliation) error {
	return translateError(s.db.WithContext(ctx).Create(reconciliation).Error, "reconciliation number")
}

func (s *GormStore) ListReconciliations(ctx context.Context, tenantId string, accountId int) ([]*models.Reconciliation, error) {
	results := make([]*models.Reconciliation, 0)
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ?", tenantId, accountId).
		Order("created_at DESC").Order("id DESC").
		Find(&results).Error
	return results, err
}

func (s *GormStore) CountReconciliations(ctx context.Context, tenantId string, accountId int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Reconciliation{}).
		Where("tenant_id = ? AND account_id = ?", tenantId, accountId).
		Count(&count).Error
	return count, err
}
