package persistence

import (
	"context"
	"errors"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAmortizationRepository implements AmortizationRepository using GORM.
// Details and payments are written with their amortization and never updated afterwards.
type GormAmortizationRepository struct {
	db *gorm.DB
}

// NewGormAmortizationRepository creates a new GormAmortizationRepository
func NewGormAmortizationRepository(db *gorm.DB) *GormAmortizationRepository {
	return &GormAmortizationRepository{db: db}
}

// FindByID finds an amortization with its details and payments
func (r *GormAmortizationRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.Amortization, error) {
	var model models.AmortizationModel
	if err := r.withChildren(Conn(ctx, r.db)).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists amortizations of a company with filtering and pagination
func (r *GormAmortizationRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.AmortizationFilter) ([]*finance.Amortization, int64, error) {
	query := Conn(ctx, r.db).Model(&models.AmortizationModel{}).
		Where("company_id = ?", companyID)
	if filter.Flow != nil {
		query = query.Where("flow = ?", *filter.Flow)
	}
	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Mode != nil {
		query = query.Where("mode = ?", *filter.Mode)
	}
	if filter.From != nil {
		query = query.Where("payment_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("payment_date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	f := filter.Filter.Normalize()
	var amortizationModels []models.AmortizationModel
	if err := r.withChildren(query).
		Order(orderClause(f, AmortizationSortFields, "payment_date")).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&amortizationModels).Error; err != nil {
		return nil, 0, err
	}
	return toAmortizations(amortizationModels), total, nil
}

// FindByAccountStatus returns every amortization that settled the given document or consumed it
// as a credit note leg, newest first
func (r *GormAmortizationRepository) FindByAccountStatus(ctx context.Context, companyID, accountStatusID uuid.UUID) ([]*finance.Amortization, error) {
	db := Conn(ctx, r.db)
	details := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.AmortizationDetailModel{}).
		Select("amortization_id").
		Where("account_status_id = ?", accountStatusID)
	legs := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.AmortizationPaymentModel{}).
		Select("amortization_id").
		Where("credit_note_id = ?", accountStatusID)

	var amortizationModels []models.AmortizationModel
	if err := r.withChildren(db).
		Where("company_id = ? AND (id IN (?) OR id IN (?))", companyID, details, legs).
		Order("payment_date DESC, created_at DESC").
		Find(&amortizationModels).Error; err != nil {
		return nil, err
	}
	return toAmortizations(amortizationModels), nil
}

// SumUnapplied totals, per currency, what active amortizations of a partner left unapplied
func (r *GormAmortizationRepository) SumUnapplied(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) (map[valueobject.Currency]decimal.Decimal, error) {
	var rows []struct {
		Currency valueobject.Currency
		Total    decimal.Decimal
	}
	if err := Conn(ctx, r.db).Model(&models.AmortizationModel{}).
		Select("currency, SUM(unapplied_amount) AS total").
		Where("company_id = ? AND flow = ? AND partner_id = ? AND status = ? AND unapplied_amount > 0",
			companyID, flow, partnerID, finance.AmortizationStateActive).
		Group("currency").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[valueobject.Currency]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.Currency] = row.Total
	}
	return totals, nil
}

// Create inserts the amortization together with its details and payments
func (r *GormAmortizationRepository) Create(ctx context.Context, amortization *finance.Amortization) error {
	model := models.AmortizationModelFromDomain(amortization)
	return Conn(ctx, r.db).Create(model).Error
}

// SaveWithLock updates the amortization header under optimistic locking
func (r *GormAmortizationRepository) SaveWithLock(ctx context.Context, amortization *finance.Amortization) error {
	model := models.AmortizationModelFromDomain(amortization)
	model.Version = amortization.Version + 1
	result := Conn(ctx, r.db).
		Model(&models.AmortizationModel{}).
		Where("id = ? AND company_id = ? AND version = ?", amortization.ID, amortization.CompanyID, amortization.Version).
		Select("*").
		Omit("id", "company_id", "created_at", "created_by", clause.Associations).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	amortization.IncrementVersion()
	return nil
}

func (r *GormAmortizationRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("document_number ASC") }).
		Preload("Payments")
}

func toAmortizations(amortizationModels []models.AmortizationModel) []*finance.Amortization {
	amortizations := make([]*finance.Amortization, len(amortizationModels))
	for i := range amortizationModels {
		amortizations[i] = amortizationModels[i].ToDomain()
	}
	return amortizations
}
