package models

import (
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashAccountModel is the persistence model for the CashAccount aggregate root
type CashAccountModel struct {
	CompanyAggregateModel
	Kind          finance.CashAccountKind `gorm:"type:varchar(20);not null;index"`
	Name          string                  `gorm:"type:varchar(100);not null"`
	BankName      string                  `gorm:"type:varchar(100)"`
	AccountNumber string                  `gorm:"type:varchar(50)"`
	Currency      valueobject.Currency    `gorm:"type:varchar(3);not null"`
	Balance       decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Active        bool                    `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CashAccountModel) TableName() string {
	return "cash_accounts"
}

// ToDomain converts the persistence model to a domain CashAccount
func (m *CashAccountModel) ToDomain() *finance.CashAccount {
	return &finance.CashAccount{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		Kind:                 m.Kind,
		Name:                 m.Name,
		BankName:             m.BankName,
		AccountNumber:        m.AccountNumber,
		Currency:             m.Currency,
		Balance:              m.Balance,
		Active:               m.Active,
	}
}

// CashAccountModelFromDomain creates a persistence model from a domain CashAccount
func CashAccountModelFromDomain(a *finance.CashAccount) *CashAccountModel {
	m := &CashAccountModel{
		Kind:          a.Kind,
		Name:          a.Name,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		Currency:      a.Currency,
		Balance:       a.Balance,
		Active:        a.Active,
	}
	m.FromDomainCompanyAggregateRoot(a.CompanyAggregateRoot)
	return m
}

// CashTransactionModel is one movement of a cash account
type CashTransactionModel struct {
	BaseModel
	CompanyID       uuid.UUID                 `gorm:"type:uuid;not null;index"`
	CashAccountID   uuid.UUID                 `gorm:"type:uuid;not null;index:idx_cash_tx_account_date,priority:1"`
	Type            finance.TransactionType   `gorm:"type:varchar(10);not null"`
	Origin          finance.TransactionOrigin `gorm:"type:varchar(20);not null"`
	AmortizationID  *uuid.UUID                `gorm:"type:uuid;index"`
	PaymentMethod   finance.PaymentMethod     `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Currency        valueobject.Currency      `gorm:"type:varchar(3);not null"`
	BalanceAfter    decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Reference       string                    `gorm:"type:varchar(100)"`
	Description     string                    `gorm:"type:varchar(500)"`
	TransactionDate time.Time                 `gorm:"not null;index:idx_cash_tx_account_date,priority:2"`
	Status          finance.TransactionState  `gorm:"type:varchar(10);not null;default:'ACTIVE'"`
	ReversalOfID    *uuid.UUID                `gorm:"type:uuid"`
	VoidedAt        *time.Time
}

// TableName returns the table name for GORM
func (CashTransactionModel) TableName() string {
	return "cash_transactions"
}

// ToDomain converts the persistence model to a domain CashTransaction
func (m *CashTransactionModel) ToDomain() *finance.CashTransaction {
	return &finance.CashTransaction{
		BaseEntity:      m.BaseModel.ToDomain(),
		CompanyID:       m.CompanyID,
		CashAccountID:   m.CashAccountID,
		Type:            m.Type,
		Origin:          m.Origin,
		AmortizationID:  m.AmortizationID,
		PaymentMethod:   m.PaymentMethod,
		Amount:          m.Amount,
		Currency:        m.Currency,
		BalanceAfter:    m.BalanceAfter,
		Reference:       m.Reference,
		Description:     m.Description,
		TransactionDate: m.TransactionDate,
		Status:          m.Status,
		ReversalOfID:    m.ReversalOfID,
		VoidedAt:        m.VoidedAt,
	}
}

// CashTransactionModelFromDomain creates a persistence model from a domain CashTransaction
func CashTransactionModelFromDomain(t *finance.CashTransaction) *CashTransactionModel {
	m := &CashTransactionModel{
		CompanyID:       t.CompanyID,
		CashAccountID:   t.CashAccountID,
		Type:            t.Type,
		Origin:          t.Origin,
		AmortizationID:  t.AmortizationID,
		PaymentMethod:   t.PaymentMethod,
		Amount:          t.Amount,
		Currency:        t.Currency,
		BalanceAfter:    t.BalanceAfter,
		Reference:       t.Reference,
		Description:     t.Description,
		TransactionDate: t.TransactionDate,
		Status:          t.Status,
		ReversalOfID:    t.ReversalOfID,
		VoidedAt:        t.VoidedAt,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
