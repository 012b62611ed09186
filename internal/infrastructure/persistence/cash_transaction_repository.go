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

const cashTransactionBatchSize = 100

// GormCashTransactionRepository implements CashTransactionRepository using GORM
type GormCashTransactionRepository struct {
	db *gorm.DB
}

// NewGormCashTransactionRepository creates a new GormCashTransactionRepository
func NewGormCashTransactionRepository(db *gorm.DB) *GormCashTransactionRepository {
	return &GormCashTransactionRepository{db: db}
}

// FindByID finds a cash transaction of a company by its ID
func (r *GormCashTransactionRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.CashTransaction, error) {
	var model models.CashTransactionModel
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

// FindByAmortization returns the movements an amortization produced, reversals included
func (r *GormCashTransactionRepository) FindByAmortization(ctx context.Context, companyID, amortizationID uuid.UUID) ([]*finance.CashTransaction, error) {
	var txModels []models.CashTransactionModel
	if err := Conn(ctx, r.db).
		Where("company_id = ? AND amortization_id = ?", companyID, amortizationID).
		Order("transaction_date ASC, created_at ASC").
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	return toCashTransactions(txModels), nil
}

// FindAll lists cash transactions with filtering and pagination
func (r *GormCashTransactionRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.CashTransactionFilter) ([]*finance.CashTransaction, int64, error) {
	query := Conn(ctx, r.db).Model(&models.CashTransactionModel{}).
		Where("company_id = ?", companyID)
	if filter.CashAccountID != nil {
		query = query.Where("cash_account_id = ?", *filter.CashAccountID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Origin != nil {
		query = query.Where("origin = ?", *filter.Origin)
	}
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transaction_date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	f := filter.Filter.Normalize()
	var txModels []models.CashTransactionModel
	if err := query.
		Order(orderClause(f, CashTransactionSortFields, "transaction_date")).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&txModels).Error; err != nil {
		return nil, 0, err
	}
	return toCashTransactions(txModels), total, nil
}

// Create inserts one or more cash transactions in batches
func (r *GormCashTransactionRepository) Create(ctx context.Context, transactions ...*finance.CashTransaction) error {
	if len(transactions) == 0 {
		return nil
	}
	txModels := make([]*models.CashTransactionModel, len(transactions))
	for i, t := range transactions {
		txModels[i] = models.CashTransactionModelFromDomain(t)
	}
	return Conn(ctx, r.db).CreateInBatches(txModels, cashTransactionBatchSize).Error
}

// Save updates a transaction; only voiding changes a recorded movement
func (r *GormCashTransactionRepository) Save(ctx context.Context, transaction *finance.CashTransaction) error {
	result := Conn(ctx, r.db).
		Model(&models.CashTransactionModel{}).
		Where("id = ? AND company_id = ?", transaction.ID, transaction.CompanyID).
		Updates(map[string]any{
			"status":      transaction.Status,
			"voided_at":   transaction.VoidedAt,
			"description": transaction.Description,
			"updated_at":  transaction.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toCashTransactions(txModels []models.CashTransactionModel) []*finance.CashTransaction {
	transactions := make([]*finance.CashTransaction, len(txModels))
	for i := range txModels {
		transactions[i] = txModels[i].ToDomain()
	}
	return transactions
}
