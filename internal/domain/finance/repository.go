package finance

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatusFilter defines filtering options for account status queries
type AccountStatusFilter struct {
	shared.Filter
	Flow         *AccountFlow
	PartnerID    *uuid.UUID
	Status       *AccountStatusState
	DocumentType *DocumentType
	Expired      *bool
	DueFrom      *time.Time
	DueTo        *time.Time
	Search       string // document number or partner name
}

// PartnerBalance summarizes one partner's documents in one currency
type PartnerBalance struct {
	Currency      valueobject.Currency
	DocumentCount int64
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	DueAmount     decimal.Decimal
	OverdueAmount decimal.Decimal
	CreditAmount  decimal.Decimal // available credit notes
}

// AccountStatusRepository defines persistence for document account statuses
type AccountStatusRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*AccountStatus, error)
	// FindByIDs returns the statuses found, in no particular order
	FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]*AccountStatus, error)
	FindByDocument(ctx context.Context, companyID uuid.UUID, flow AccountFlow, documentID uuid.UUID) (*AccountStatus, error)
	// FindOpenByPartner returns open non credit-note documents of a partner in one currency
	FindOpenByPartner(ctx context.Context, companyID uuid.UUID, flow AccountFlow, partnerID uuid.UUID, currency valueobject.Currency) ([]*AccountStatus, error)
	// FindOpenCreditNotes returns a partner's credit notes with balance left, in every currency
	FindOpenCreditNotes(ctx context.Context, companyID uuid.UUID, flow AccountFlow, partnerID uuid.UUID) ([]*AccountStatus, error)
	// FindExpirable returns open documents due before asOf that are not flagged as expired yet
	FindExpirable(ctx context.Context, companyID uuid.UUID, asOf time.Time, limit int) ([]*AccountStatus, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter AccountStatusFilter) ([]*AccountStatus, int64, error)
	SummarizeByPartner(ctx context.Context, companyID uuid.UUID, flow AccountFlow, partnerID uuid.UUID, asOf time.Time) ([]PartnerBalance, error)
	// CompaniesWithOpenDocuments lists companies the billing sweep has to visit
	CompaniesWithOpenDocuments(ctx context.Context) ([]uuid.UUID, error)
	Create(ctx context.Context, status *AccountStatus) error
	// SaveWithLock updates the status if its version is unchanged since it was loaded
	SaveWithLock(ctx context.Context, status *AccountStatus) error
}

// AmortizationFilter defines filtering options for amortization queries
type AmortizationFilter struct {
	shared.Filter
	Flow      *AccountFlow
	PartnerID *uuid.UUID
	Status    *AmortizationState
	Mode      *AmortizationMode
	From      *time.Time
	To        *time.Time
}

// AmortizationRepository defines persistence for amortizations with their details and payments
type AmortizationRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Amortization, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter AmortizationFilter) ([]*Amortization, int64, error)
	FindByAccountStatus(ctx context.Context, companyID, accountStatusID uuid.UUID) ([]*Amortization, error)
	SumUnapplied(ctx context.Context, companyID uuid.UUID, flow AccountFlow, partnerID uuid.UUID) (map[valueobject.Currency]decimal.Decimal, error)
	Create(ctx context.Context, amortization *Amortization) error
	SaveWithLock(ctx context.Context, amortization *Amortization) error
}

// CashAccountFilter defines filtering options for cash account queries
type CashAccountFilter struct {
	shared.Filter
	Kind     *CashAccountKind
	Currency *valueobject.Currency
	Active   *bool
}

// CashAccountRepository defines persistence for cash registers and bank accounts
type CashAccountRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*CashAccount, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter CashAccountFilter) ([]*CashAccount, int64, error)
	Create(ctx context.Context, account *CashAccount) error
	SaveWithLock(ctx context.Context, account *CashAccount) error
}

// CashTransactionFilter defines filtering options for cash transaction queries
type CashTransactionFilter struct {
	shared.Filter
	CashAccountID *uuid.UUID
	Type          *TransactionType
	Origin        *TransactionOrigin
	From          *time.Time
	To            *time.Time
}

// CashTransactionRepository defines persistence for cash movements
type CashTransactionRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*CashTransaction, error)
	FindByAmortization(ctx context.Context, companyID, amortizationID uuid.UUID) ([]*CashTransaction, error)
	FindAll(ctx context.Context, companyID uuid.UUID, filter CashTransactionFilter) ([]*CashTransaction, int64, error)
	Create(ctx context.Context, transactions ...*CashTransaction) error
	Save(ctx context.Context, transaction *CashTransaction) error
}
