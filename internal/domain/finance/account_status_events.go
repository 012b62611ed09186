package finance

import (
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type names
const (
	AggregateTypeAccountStatus   = "AccountStatus"
	AggregateTypeAmortization    = "Amortization"
	AggregateTypeCashTransaction = "CashTransaction"
)

// Event type names
const (
	EventTypeAccountStatusRegistered = "AccountStatusRegistered"
	EventTypeAccountStatusAmortized  = "AccountStatusAmortized"
	EventTypeAccountStatusPaid       = "AccountStatusPaid"
	EventTypeAccountStatusReverted   = "AccountStatusReverted"
	EventTypeAccountStatusCancelled  = "AccountStatusCancelled"
	EventTypeAccountStatusExpired    = "AccountStatusExpired"
	EventTypeAmortizationCreated     = "AmortizationCreated"
	EventTypeAmortizationCancelled   = "AmortizationCancelled"
	EventTypeCashTransactionRecorded = "CashTransactionRecorded"
)

// PartnerEvent is implemented by events that change a partner's balance
type PartnerEvent interface {
	shared.DomainEvent
	Partner() (AccountFlow, uuid.UUID)
}

// PartnerRef identifies the customer or supplier side an event belongs to
type PartnerRef struct {
	Flow      AccountFlow `json:"flow"`
	PartnerID uuid.UUID   `json:"partner_id"`
}

// Partner returns the flow and partner ID
func (p PartnerRef) Partner() (AccountFlow, uuid.UUID) {
	return p.Flow, p.PartnerID
}

// AccountStatusRegisteredEvent is raised when a document's account status is opened
type AccountStatusRegisteredEvent struct {
	shared.BaseDomainEvent
	PartnerRef
	AccountStatusID uuid.UUID            `json:"account_status_id"`
	DocumentType    DocumentType         `json:"document_type"`
	DocumentID      uuid.UUID            `json:"document_id"`
	DocumentNumber  string               `json:"document_number"`
	Currency        valueobject.Currency `json:"currency"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *AccountStatusRegisteredEvent) EventType() string {
	return EventTypeAccountStatusRegistered
}

// NewAccountStatusRegisteredEvent creates a new AccountStatusRegisteredEvent
func NewAccountStatusRegisteredEvent(s *AccountStatus) *AccountStatusRegisteredEvent {
	return &AccountStatusRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusRegistered, AggregateTypeAccountStatus, s.ID, s.CompanyID),
		PartnerRef:      PartnerRef{Flow: s.Flow, PartnerID: s.PartnerID},
		AccountStatusID: s.ID,
		DocumentType:    s.DocumentType,
		DocumentID:      s.DocumentID,
		DocumentNumber:  s.DocumentNumber,
		Currency:        s.Currency,
		TotalAmount:     s.TotalAmount,
		DueDate:         s.DueDate,
	}
}

// AccountStatusAmortizedEvent is raised for every amount applied to a document
type AccountStatusAmortizedEvent struct {
	shared.BaseDomainEvent
	PartnerRef
	AccountStatusID uuid.UUID       `json:"account_status_id"`
	DocumentNumber  string          `json:"document_number"`
	AmortizationID  uuid.UUID       `json:"amortization_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	DueAmount       decimal.Decimal `json:"due_amount"`
}

// EventType returns the event type name
func (e *AccountStatusAmortizedEvent) EventType() string {
	return EventTypeAccountStatusAmortized
}

// NewAccountStatusAmortizedEvent creates a new AccountStatusAmortizedEvent
func NewAccountStatusAmortizedEvent(s *AccountStatus, amortizationID uuid.UUID, amount decimal.Decimal) *AccountStatusAmortizedEvent {
	return &AccountStatusAmortizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusAmortized, AggregateTypeAccountStatus, s.ID, s.CompanyID),
		PartnerRef:      PartnerRef{Flow: s.Flow, PartnerID: s.PartnerID},
		AccountStatusID: s.ID,
		DocumentNumber:  s.DocumentNumber,
		AmortizationID:  amortizationID,
		Amount:          amount,
		PaidAmount:      s.PaidAmount,
		DueAmount:       s.DueAmount,
	}
}

// AccountStatusPaidEvent is raised when a document's due balance reaches zero
type AccountStatusPaidEvent struct {
	shared.BaseDomainEvent
	PartnerRef
	AccountStatusID uuid.UUID       `json:"account_status_id"`
	DocumentID      uuid.UUID       `json:"document_id"`
	DocumentNumber  string          `json:"document_number"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAt          time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *AccountStatusPaidEvent) EventType() string {
	return EventTypeAccountStatusPaid
}

// NewAccountStatusPaidEvent creates a new AccountStatusPaidEvent
func NewAccountStatusPaidEvent(s *AccountStatus) *AccountStatusPaidEvent {
	paidAt := time.Now()
	if s.PaidAt != nil {
		paidAt = *s.PaidAt
	}
	return &AccountStatusPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusPaid, AggregateTypeAccountStatus, s.ID, s.CompanyID),
		PartnerRef:      PartnerRef{Flow: s.Flow, PartnerID: s.PartnerID},
		AccountStatusID: s.ID,
		DocumentID:      s.DocumentID,
		DocumentNumber:  s.DocumentNumber,
		TotalAmount:     s.TotalAmount,
		PaidAt:          paidAt,
	}
}

// AccountStatusRevertedEvent is raised when an amortized amount is given back to a document
type AccountStatusRevertedEvent struct {
	shared.BaseDomainEvent
	PartnerRef
	AccountStatusID uuid.UUID       `json:"account_status_id"`
	DocumentNumber  string          `json:"document_number"`
	AmortizationID  uuid.UUID       `json:"amortization_id"`
	Amount          decimal.Decimal `json:"amount"`
	DueAmount       decimal.Decimal `json:"due_amount"`
}

// EventType returns the event type name
func (e *AccountStatusRevertedEvent) EventType() string {
	return EventTypeAccountStatusReverted
}

// NewAccountStatusRevertedEvent creates a new AccountStatusRevertedEvent
func NewAccountStatusRevertedEvent(s *AccountStatus, amortizationID uuid.UUID, amount decimal.Decimal) *AccountStatusRevertedEvent {
	return &AccountStatusRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusReverted, AggregateTypeAccountStatus, s.ID, s.CompanyID),
		PartnerRef:      PartnerRef{Flow: s.Flow, PartnerID: s.PartnerID},
		AccountStatusID: s.ID,
		DocumentNumber:  s.DocumentNumber,
		AmortizationID:  amortizationID,
		Amount:          amount,
		DueAmount:       s.DueAmount,
	}
}

// AccountStatusCancelledEvent is raised when a document is voided
type AccountStatusCancelledEvent struct {
	shared.BaseDomainEvent
	PartnerRef
	AccountStatusID uuid.UUID `json:"account_status_id"`
	DocumentNumber  string    `json:"document_number"`
	Reason          string    `json:"reason"`
}

// EventType returns the event type name
func (e *AccountStatusCancelledEvent) EventType() string {
	return EventTypeAccountStatusCancelled
}

// NewAccountStatusCancelledEvent creates a new AccountStatusCancelledEvent
func NewAccountStatusCancelledEvent(s *AccountStatus) *AccountStatusCancelledEvent {
	return &AccountStatusCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusCancelled, AggregateTypeAccountStatus, s.ID, s.CompanyID),
		PartnerRef:      PartnerRef{Flow: s.Flow, PartnerID: s.PartnerID},
		AccountStatusID: s.ID,
		DocumentNumber:  s.DocumentNumber,
		Reason:          s.CancelReason,
	}
}

// AccountStatusExpiredEvent is raised by the billing sweep when a document passes its due date unpaid
type AccountStatusExpiredEvent struct {
	shared.BaseDomainEvent
	PartnerRef
	AccountStatusID uuid.UUID       `json:"account_status_id"`
	DocumentNumber  string          `json:"document_number"`
	DueDate         time.Time       `json:"due_date"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	DaysOverdue     int             `json:"days_overdue"`
}

// EventType returns the event type name
func (e *AccountStatusExpiredEvent) EventType() string {
	return EventTypeAccountStatusExpired
}

// NewAccountStatusExpiredEvent creates a new AccountStatusExpiredEvent
func NewAccountStatusExpiredEvent(s *AccountStatus, asOf time.Time) *AccountStatusExpiredEvent {
	var due time.Time
	if s.DueDate != nil {
		due = *s.DueDate
	}
	return &AccountStatusExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountStatusExpired, AggregateTypeAccountStatus, s.ID, s.CompanyID),
		PartnerRef:      PartnerRef{Flow: s.Flow, PartnerID: s.PartnerID},
		AccountStatusID: s.ID,
		DocumentNumber:  s.DocumentNumber,
		DueDate:         due,
		DueAmount:       s.DueAmount,
		DaysOverdue:     s.DaysOverdue(asOf),
	}
}
