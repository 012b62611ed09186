package models

import (
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatusModel is the persistence model for the AccountStatus aggregate root
type AccountStatusModel struct {
	CompanyAggregateModel
	Flow           finance.AccountFlow        `gorm:"type:varchar(12);not null;uniqueIndex:idx_account_status_document,priority:2;index:idx_account_status_partner,priority:2"`
	Country        finance.Country            `gorm:"type:varchar(2);not null"`
	DocumentType   finance.DocumentType       `gorm:"type:varchar(30);not null;index"`
	DocumentID     uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:idx_account_status_document,priority:3"`
	DocumentNumber string                     `gorm:"type:varchar(50);not null;index"`
	PartnerID      uuid.UUID                  `gorm:"type:uuid;not null;index:idx_account_status_partner,priority:3"`
	PartnerName    string                     `gorm:"type:varchar(200);not null"`
	Currency       valueobject.Currency       `gorm:"type:varchar(3);not null"`
	TotalAmount    decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	PaidAmount     decimal.Decimal            `gorm:"type:decimal(18,2);not null;default:0"`
	DueAmount      decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	IssueDate      time.Time                  `gorm:"not null"`
	DueDate        *time.Time                 `gorm:"index"`
	Status         finance.AccountStatusState `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Expired        bool                       `gorm:"not null;default:false"`
	ExpiredAt      *time.Time
	PaidAt         *time.Time
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (AccountStatusModel) TableName() string {
	return "account_statuses"
}

// ToDomain converts the persistence model to a domain AccountStatus
func (m *AccountStatusModel) ToDomain() *finance.AccountStatus {
	return &finance.AccountStatus{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		Flow:                 m.Flow,
		Country:              m.Country,
		DocumentType:         m.DocumentType,
		DocumentID:           m.DocumentID,
		DocumentNumber:       m.DocumentNumber,
		PartnerID:            m.PartnerID,
		PartnerName:          m.PartnerName,
		Currency:             m.Currency,
		TotalAmount:          m.TotalAmount,
		PaidAmount:           m.PaidAmount,
		DueAmount:            m.DueAmount,
		IssueDate:            m.IssueDate,
		DueDate:              m.DueDate,
		Status:               m.Status,
		Expired:              m.Expired,
		ExpiredAt:            m.ExpiredAt,
		PaidAt:               m.PaidAt,
		CancelledAt:          m.CancelledAt,
		CancelReason:         m.CancelReason,
	}
}

// AccountStatusModelFromDomain creates a persistence model from a domain AccountStatus
func AccountStatusModelFromDomain(s *finance.AccountStatus) *AccountStatusModel {
	m := &AccountStatusModel{
		Flow:           s.Flow,
		Country:        s.Country,
		DocumentType:   s.DocumentType,
		DocumentID:     s.DocumentID,
		DocumentNumber: s.DocumentNumber,
		PartnerID:      s.PartnerID,
		PartnerName:    s.PartnerName,
		Currency:       s.Currency,
		TotalAmount:    s.TotalAmount,
		PaidAmount:     s.PaidAmount,
		DueAmount:      s.DueAmount,
		IssueDate:      s.IssueDate,
		DueDate:        s.DueDate,
		Status:         s.Status,
		Expired:        s.Expired,
		ExpiredAt:      s.ExpiredAt,
		PaidAt:         s.PaidAt,
		CancelledAt:    s.CancelledAt,
		CancelReason:   s.CancelReason,
	}
	m.FromDomainCompanyAggregateRoot(s.CompanyAggregateRoot)
	return m
}

// AmortizationModel is the persistence model for the Amortization aggregate root
type AmortizationModel struct {
	CompanyAggregateModel
	Flow            finance.AccountFlow        `gorm:"type:varchar(12);not null;index:idx_amortization_partner,priority:2"`
	PartnerID       uuid.UUID                  `gorm:"type:uuid;not null;index:idx_amortization_partner,priority:3"`
	Mode            finance.AmortizationMode   `gorm:"type:varchar(10);not null"`
	Currency        valueobject.Currency       `gorm:"type:varchar(3);not null"`
	Amount          decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	AppliedAmount   decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	UnappliedAmount decimal.Decimal            `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentDate     time.Time                  `gorm:"not null;index"`
	Reference       string                     `gorm:"type:varchar(100)"`
	Notes           string                     `gorm:"type:text"`
	Status          finance.AmortizationState  `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	CancelledAt     *time.Time
	CancelReason    string                     `gorm:"type:varchar(500)"`
	Details         []AmortizationDetailModel  `gorm:"foreignKey:AmortizationID;references:ID"`
	Payments        []AmortizationPaymentModel `gorm:"foreignKey:AmortizationID;references:ID"`
}

// TableName returns the table name for GORM
func (AmortizationModel) TableName() string {
	return "amortizations"
}

// AmortizationDetailModel is one amount applied to one account status
type AmortizationDetailModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	AmortizationID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountStatusID uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentNumber  string          `gorm:"type:varchar(50);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DueBefore       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DueAfter        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (AmortizationDetailModel) TableName() string {
	return "amortization_details"
}

// AmortizationPaymentModel is one payment leg of an amortization
type AmortizationPaymentModel struct {
	ID                uuid.UUID             `gorm:"type:uuid;primary_key"`
	AmortizationID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Method            finance.PaymentMethod `gorm:"type:varchar(20);not null"`
	CashAccountID     *uuid.UUID            `gorm:"type:uuid;index"`
	CreditNoteID      *uuid.UUID            `gorm:"type:uuid;index"`
	Amount            decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Reference         string                `gorm:"type:varchar(100)"`
	CashTransactionID *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AmortizationPaymentModel) TableName() string {
	return "amortization_payments"
}

// ToDomain converts the persistence model, with its loaded children, to a domain Amortization
func (m *AmortizationModel) ToDomain() *finance.Amortization {
	a := &finance.Amortization{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		Flow:                 m.Flow,
		PartnerID:            m.PartnerID,
		Mode:                 m.Mode,
		Currency:             m.Currency,
		Amount:               m.Amount,
		AppliedAmount:        m.AppliedAmount,
		UnappliedAmount:      m.UnappliedAmount,
		PaymentDate:          m.PaymentDate,
		Reference:            m.Reference,
		Notes:                m.Notes,
		Status:               m.Status,
		CancelledAt:          m.CancelledAt,
		CancelReason:         m.CancelReason,
		Details:              make([]finance.AmortizationDetail, len(m.Details)),
		Payments:             make([]finance.AmortizationPayment, len(m.Payments)),
	}
	for i, d := range m.Details {
		a.Details[i] = finance.AmortizationDetail{
			ID:              d.ID,
			AmortizationID:  d.AmortizationID,
			AccountStatusID: d.AccountStatusID,
			DocumentNumber:  d.DocumentNumber,
			Amount:          d.Amount,
			DueBefore:       d.DueBefore,
			DueAfter:        d.DueAfter,
		}
	}
	for i, p := range m.Payments {
		a.Payments[i] = finance.AmortizationPayment{
			ID:                p.ID,
			AmortizationID:    p.AmortizationID,
			Method:            p.Method,
			CashAccountID:     p.CashAccountID,
			CreditNoteID:      p.CreditNoteID,
			Amount:            p.Amount,
			Reference:         p.Reference,
			CashTransactionID: p.CashTransactionID,
		}
	}
	return a
}

// AmortizationModelFromDomain creates a persistence model, children included, from a domain Amortization
func AmortizationModelFromDomain(a *finance.Amortization) *AmortizationModel {
	m := &AmortizationModel{
		Flow:            a.Flow,
		PartnerID:       a.PartnerID,
		Mode:            a.Mode,
		Currency:        a.Currency,
		Amount:          a.Amount,
		AppliedAmount:   a.AppliedAmount,
		UnappliedAmount: a.UnappliedAmount,
		PaymentDate:     a.PaymentDate,
		Reference:       a.Reference,
		Notes:           a.Notes,
		Status:          a.Status,
		CancelledAt:     a.CancelledAt,
		CancelReason:    a.CancelReason,
		Details:         make([]AmortizationDetailModel, len(a.Details)),
		Payments:        make([]AmortizationPaymentModel, len(a.Payments)),
	}
	m.FromDomainCompanyAggregateRoot(a.CompanyAggregateRoot)
	for i, d := range a.Details {
		m.Details[i] = AmortizationDetailModel{
			ID:              d.ID,
			AmortizationID:  a.ID,
			AccountStatusID: d.AccountStatusID,
			DocumentNumber:  d.DocumentNumber,
			Amount:          d.Amount,
			DueBefore:       d.DueBefore,
			DueAfter:        d.DueAfter,
		}
	}
	for i, p := range a.Payments {
		m.Payments[i] = AmortizationPaymentModel{
			ID:                p.ID,
			AmortizationID:    a.ID,
			Method:            p.Method,
			CashAccountID:     p.CashAccountID,
			CreditNoteID:      p.CreditNoteID,
			Amount:            p.Amount,
			Reference:         p.Reference,
			CashTransactionID: p.CashTransactionID,
		}
	}
	return m
}
