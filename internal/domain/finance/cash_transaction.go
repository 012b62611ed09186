package finance

import (
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a cash movement
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// IsValid checks if the type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Opposite returns the reverse direction
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionTypeIncome {
		return TransactionTypeExpense
	}
	return TransactionTypeIncome
}

// TransactionOrigin tells what produced a cash movement
type TransactionOrigin string

const (
	TransactionOriginAmortization TransactionOrigin = "AMORTIZATION"
	TransactionOriginManual       TransactionOrigin = "MANUAL"
	TransactionOriginReversal     TransactionOrigin = "REVERSAL"
)

// TransactionState is the lifecycle of a cash movement
type TransactionState string

const (
	TransactionStateActive TransactionState = "ACTIVE"
	TransactionStateVoided TransactionState = "VOIDED"
)

// CashTransaction is one movement of a cash register or bank account
type CashTransaction struct {
	shared.BaseEntity
	CompanyID       uuid.UUID
	CashAccountID   uuid.UUID
	Type            TransactionType
	Origin          TransactionOrigin
	AmortizationID  *uuid.UUID
	PaymentMethod   PaymentMethod
	Amount          decimal.Decimal
	Currency        valueobject.Currency
	BalanceAfter    decimal.Decimal
	Reference       string
	Description     string
	TransactionDate time.Time
	Status          TransactionState
	ReversalOfID    *uuid.UUID
	VoidedAt        *time.Time
}

func newCashTransaction(a *CashAccount, txType TransactionType, origin TransactionOrigin, method PaymentMethod, amount decimal.Decimal, date time.Time, reference string) *CashTransaction {
	if date.IsZero() {
		date = time.Now()
	}
	return &CashTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		CompanyID:       a.CompanyID,
		CashAccountID:   a.ID,
		Type:            txType,
		Origin:          origin,
		PaymentMethod:   method,
		Amount:          amount,
		Currency:        a.Currency,
		BalanceAfter:    a.Balance,
		Reference:       strings.TrimSpace(reference),
		TransactionDate: date,
		Status:          TransactionStateActive,
	}
}

// Void marks the transaction as voided; the caller records the reversal movement
func (t *CashTransaction) Void(reason string) error {
	if err := t.checkVoidable(); err != nil {
		return err
	}
	now := time.Now()
	t.Status = TransactionStateVoided
	t.VoidedAt = &now
	if reason != "" {
		t.Description = strings.TrimSpace(reason)
	}
	t.Touch()
	return nil
}

func (t *CashTransaction) checkVoidable() error {
	if t.Status != TransactionStateActive {
		return shared.NewDomainError("INVALID_STATE", "Only active transactions can be voided")
	}
	if t.Origin == TransactionOriginReversal {
		return shared.NewDomainError("INVALID_STATE", "Reversal transactions cannot be voided")
	}
	return nil
}

// SignedAmount returns the amount with the sign of its direction
func (t *CashTransaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// CashTransactionRecordedEvent is raised for every cash movement
type CashTransactionRecordedEvent struct {
	shared.BaseDomainEvent
	TransactionID  uuid.UUID            `json:"transaction_id"`
	CashAccountID  uuid.UUID            `json:"cash_account_id"`
	Type           TransactionType      `json:"type"`
	Origin         TransactionOrigin    `json:"origin"`
	AmortizationID *uuid.UUID           `json:"amortization_id,omitempty"`
	Amount         decimal.Decimal      `json:"amount"`
	Currency       valueobject.Currency `json:"currency"`
	BalanceAfter   decimal.Decimal      `json:"balance_after"`
}

// EventType returns the event type name
func (e *CashTransactionRecordedEvent) EventType() string {
	return EventTypeCashTransactionRecorded
}

// NewCashTransactionRecordedEvent creates a new CashTransactionRecordedEvent
func NewCashTransactionRecordedEvent(t *CashTransaction) *CashTransactionRecordedEvent {
	return &CashTransactionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashTransactionRecorded, AggregateTypeCashTransaction, t.ID, t.CompanyID),
		TransactionID:   t.ID,
		CashAccountID:   t.CashAccountID,
		Type:            t.Type,
		Origin:          t.Origin,
		AmortizationID:  t.AmortizationID,
		Amount:          t.Amount,
		Currency:        t.Currency,
		BalanceAfter:    t.BalanceAfter,
	}
}
