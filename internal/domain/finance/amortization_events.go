package finance

import (
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmortizationCreatedEvent is raised when an amortization is committed
type AmortizationCreatedEvent struct {
	shared.BaseDomainEvent
	PartnerRef
	AmortizationID  uuid.UUID            `json:"amortization_id"`
	Mode            AmortizationMode     `json:"mode"`
	Currency        valueobject.Currency `json:"currency"`
	Amount          decimal.Decimal      `json:"amount"`
	AppliedAmount   decimal.Decimal      `json:"applied_amount"`
	UnappliedAmount decimal.Decimal      `json:"unapplied_amount"`
	DocumentIDs     []uuid.UUID          `json:"document_ids"`
	Methods         []PaymentMethod      `json:"methods"`
}

// EventType returns the event type name
func (e *AmortizationCreatedEvent) EventType() string {
	return EventTypeAmortizationCreated
}

// NewAmortizationCreatedEvent creates a new AmortizationCreatedEvent
func NewAmortizationCreatedEvent(a *Amortization) *AmortizationCreatedEvent {
	methods := make([]PaymentMethod, 0, len(a.Payments))
	for _, p := range a.Payments {
		methods = append(methods, p.Method)
	}
	return &AmortizationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAmortizationCreated, AggregateTypeAmortization, a.ID, a.CompanyID),
		PartnerRef:      PartnerRef{Flow: a.Flow, PartnerID: a.PartnerID},
		AmortizationID:  a.ID,
		Mode:            a.Mode,
		Currency:        a.Currency,
		Amount:          a.Amount,
		AppliedAmount:   a.AppliedAmount,
		UnappliedAmount: a.UnappliedAmount,
		DocumentIDs:     a.DocumentIDs(),
		Methods:         methods,
	}
}

// AmortizationCancelledEvent is raised when an amortization is cancelled and its effects reverted
type AmortizationCancelledEvent struct {
	shared.BaseDomainEvent
	PartnerRef
	AmortizationID uuid.UUID       `json:"amortization_id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
	DocumentIDs    []uuid.UUID     `json:"document_ids"`
}

// EventType returns the event type name
func (e *AmortizationCancelledEvent) EventType() string {
	return EventTypeAmortizationCancelled
}

// NewAmortizationCancelledEvent creates a new AmortizationCancelledEvent
func NewAmortizationCancelledEvent(a *Amortization) *AmortizationCancelledEvent {
	return &AmortizationCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAmortizationCancelled, AggregateTypeAmortization, a.ID, a.CompanyID),
		PartnerRef:      PartnerRef{Flow: a.Flow, PartnerID: a.PartnerID},
		AmortizationID:  a.ID,
		Amount:          a.Amount,
		Reason:          a.CancelReason,
		DocumentIDs:     a.DocumentIDs(),
	}
}
