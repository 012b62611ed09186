package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var openStates = []finance.AccountStatusState{finance.AccountStatusPending, finance.AccountStatusPartial}

// GormAccountStatusRepository implements AccountStatusRepository using GORM
type GormAccountStatusRepository struct {
	db *gorm.DB
}

// NewGormAccountStatusRepository creates a new GormAccountStatusRepository
func NewGormAccountStatusRepository(db *gorm.DB) *GormAccountStatusRepository {
	return &GormAccountStatusRepository{db: db}
}

// FindByID finds an account status of a company by its ID
func (r *GormAccountStatusRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.AccountStatus, error) {
	var model models.AccountStatusModel
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

// FindByIDs loads several account statuses in one query
func (r *GormAccountStatusRepository) FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]*finance.AccountStatus, error) {
	if len(ids) == 0 {
		return []*finance.AccountStatus{}, nil
	}
	var statusModels []models.AccountStatusModel
	if err := Conn(ctx, r.db).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Find(&statusModels).Error; err != nil {
		return nil, err
	}
	return toAccountStatuses(statusModels), nil
}

// FindByDocument finds the account status opened for a document
func (r *GormAccountStatusRepository) FindByDocument(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, documentID uuid.UUID) (*finance.AccountStatus, error) {
	var model models.AccountStatusModel
	if err := Conn(ctx, r.db).
		Where("company_id = ? AND flow = ? AND document_id = ?", companyID, flow, documentID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpenByPartner returns the pending and partially paid documents of a partner, oldest first.
// Credit notes are excluded; they are spent as payments, not amortized.
func (r *GormAccountStatusRepository) FindOpenByPartner(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID, currency valueobject.Currency) ([]*finance.AccountStatus, error) {
	var statusModels []models.AccountStatusModel
	if err := Conn(ctx, r.db).
		Where("company_id = ? AND flow = ? AND partner_id = ? AND currency = ?", companyID, flow, partnerID, currency).
		Where("status IN ? AND document_type <> ?", openStates, finance.DocumentTypeCreditNote).
		Order("issue_date ASC, document_number ASC").
		Find(&statusModels).Error; err != nil {
		return nil, err
	}
	return toAccountStatuses(statusModels), nil
}

// FindOpenCreditNotes returns credit notes of a partner that still have credit to consume
func (r *GormAccountStatusRepository) FindOpenCreditNotes(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) ([]*finance.AccountStatus, error) {
	var statusModels []models.AccountStatusModel
	if err := Conn(ctx, r.db).
		Where("company_id = ? AND flow = ? AND partner_id = ?", companyID, flow, partnerID).
		Where("status IN ? AND document_type = ?", openStates, finance.DocumentTypeCreditNote).
		Order("currency ASC, issue_date ASC, document_number ASC").
		Find(&statusModels).Error; err != nil {
		return nil, err
	}
	return toAccountStatuses(statusModels), nil
}

// FindExpirable returns open documents whose due date is before the day of asOf
// and that have not been flagged as expired yet
func (r *GormAccountStatusRepository) FindExpirable(ctx context.Context, companyID uuid.UUID, asOf time.Time, limit int) ([]*finance.AccountStatus, error) {
	var statusModels []models.AccountStatusModel
	query := Conn(ctx, r.db).
		Where("company_id = ? AND status IN ? AND expired = ?", companyID, openStates, false).
		Where("document_type <> ? AND due_date IS NOT NULL AND due_date < ?", finance.DocumentTypeCreditNote, startOfDay(asOf)).
		Order("due_date ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&statusModels).Error; err != nil {
		return nil, err
	}
	return toAccountStatuses(statusModels), nil
}

// FindAll lists account statuses of a company with filtering and pagination
func (r *GormAccountStatusRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.AccountStatusFilter) ([]*finance.AccountStatus, int64, error) {
	query := Conn(ctx, r.db).Model(&models.AccountStatusModel{}).
		Where("company_id = ?", companyID)
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	f := filter.Filter.Normalize()
	var statusModels []models.AccountStatusModel
	if err := query.
		Order(orderClause(f, AccountStatusSortFields, "due_date")).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&statusModels).Error; err != nil {
		return nil, 0, err
	}
	return toAccountStatuses(statusModels), total, nil
}

func (r *GormAccountStatusRepository) applyFilter(query *gorm.DB, filter finance.AccountStatusFilter) *gorm.DB {
	if filter.Flow != nil {
		query = query.Where("flow = ?", *filter.Flow)
	}
	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DocumentType != nil {
		query = query.Where("document_type = ?", *filter.DocumentType)
	}
	if filter.Expired != nil {
		query = query.Where("expired = ?", *filter.Expired)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("(document_number LIKE ? OR partner_name LIKE ?)", like, like)
	}
	return query
}

type partnerBalanceRow struct {
	Currency      valueobject.Currency
	DocumentCount int64
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	DueAmount     decimal.Decimal
	OverdueAmount decimal.Decimal
	CreditAmount  decimal.Decimal
}

// SummarizeByPartner aggregates the non cancelled documents of a partner per currency.
// Open credit notes only contribute to CreditAmount.
func (r *GormAccountStatusRepository) SummarizeByPartner(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID, asOf time.Time) ([]finance.PartnerBalance, error) {
	credit := finance.DocumentTypeCreditNote
	var rows []partnerBalanceRow
	if err := Conn(ctx, r.db).Model(&models.AccountStatusModel{}).
		Select(`currency,
			COUNT(CASE WHEN document_type <> ? THEN 1 END) AS document_count,
			COALESCE(SUM(CASE WHEN document_type <> ? THEN total_amount ELSE 0 END), 0) AS total_amount,
			COALESCE(SUM(CASE WHEN document_type <> ? THEN paid_amount ELSE 0 END), 0) AS paid_amount,
			COALESCE(SUM(CASE WHEN document_type <> ? THEN due_amount ELSE 0 END), 0) AS due_amount,
			COALESCE(SUM(CASE WHEN document_type <> ? AND status IN ? AND due_date < ? THEN due_amount ELSE 0 END), 0) AS overdue_amount,
			COALESCE(SUM(CASE WHEN document_type = ? AND status IN ? THEN due_amount ELSE 0 END), 0) AS credit_amount`,
			credit, credit, credit, credit, credit, openStates, startOfDay(asOf), credit, openStates).
		Where("company_id = ? AND flow = ? AND partner_id = ? AND status <> ?", companyID, flow, partnerID, finance.AccountStatusCancelled).
		Group("currency").
		Order("currency").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	balances := make([]finance.PartnerBalance, len(rows))
	for i, row := range rows {
		balances[i] = finance.PartnerBalance(row)
	}
	return balances, nil
}

// CompaniesWithOpenDocuments lists the companies that still have pending or partially paid documents
func (r *GormAccountStatusRepository) CompaniesWithOpenDocuments(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := Conn(ctx, r.db).Model(&models.AccountStatusModel{}).
		Where("status IN ?", openStates).
		Distinct().
		Order("company_id").
		Pluck("company_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Create inserts a new account status. A second status for the same document is a conflict.
func (r *GormAccountStatusRepository) Create(ctx context.Context, status *finance.AccountStatus) error {
	model := models.AccountStatusModelFromDomain(status)
	if err := Conn(ctx, r.db).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock writes every mutable column when the stored version still matches the loaded one,
// then advances the aggregate's version
func (r *GormAccountStatusRepository) SaveWithLock(ctx context.Context, status *finance.AccountStatus) error {
	model := models.AccountStatusModelFromDomain(status)
	model.Version = status.Version + 1
	result := Conn(ctx, r.db).
		Model(&models.AccountStatusModel{}).
		Where("id = ? AND company_id = ? AND version = ?", status.ID, status.CompanyID, status.Version).
		Select("*").
		Omit("id", "company_id", "created_at", "created_by").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	status.IncrementVersion()
	return nil
}

func toAccountStatuses(statusModels []models.AccountStatusModel) []*finance.AccountStatus {
	statuses := make([]*finance.AccountStatus, len(statusModels))
	for i := range statusModels {
		statuses[i] = statusModels[i].ToDomain()
	}
	return statuses
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
