package persistence

import (
	"context"
	"errors"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCashAccountRepository implements CashAccountRepository using GORM
type GormCashAccountRepository struct {
	db *gorm.DB
}

// NewGormCashAccountRepository creates a new GormCashAccountRepository
func NewGormCashAccountRepository(db *gorm.DB) *GormCashAccountRepository {
	return &GormCashAccountRepository{db: db}
}

// FindByID finds a cash account of a company by its ID
func (r *GormCashAccountRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.CashAccount, error) {
	var model models.CashAccountModel
	if err := Conn(ctx, r.db).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists cash accounts with filtering and pagination
func (r *GormCashAccountRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.CashAccountFilter) ([]*finance.CashAccount, int64, error) {
	query := Conn(ctx, r.db).Model(&models.CashAccountModel{}).
		Where("company_id = ?", companyID)
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Currency != nil {
		query = query.Where("currency = ?", *filter.Currency)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	f := filter.Filter.Normalize()
	var accountModels []models.CashAccountModel
	if err := query.
		Order(orderClause(f, CashAccountSortFields, "created_at")).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&accountModels).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]*finance.CashAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToDomain()
	}
	return accounts, total, nil
}

// Create inserts a new cash account
func (r *GormCashAccountRepository) Create(ctx context.Context, account *finance.CashAccount) error {
	return Conn(ctx, r.db).Create(models.CashAccountModelFromDomain(account)).Error
}

// SaveWithLock updates the account, balance included, if nobody changed it since it was loaded
func (r *GormCashAccountRepository) SaveWithLock(ctx context.Context, account *finance.CashAccount) error {
	model := models.CashAccountModelFromDomain(account)
	model.Version = account.Version + 1
	result := Conn(ctx, r.db).
		Model(&models.CashAccountModel{}).
		Where("id = ? AND company_id = ? AND version = ?", account.ID, account.CompanyID, account.Version).
		Select("*").
		Omit("id", "company_id", "created_at", "created_by").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	account.IncrementVersion()
	return nil
}
