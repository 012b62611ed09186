package event

import "github.com/erp/billing/internal/domain/finance"

// RegisterBillingEvents registers every billing event so the outbox processor can decode it
func RegisterBillingEvents(serializer *EventSerializer) {
	// Account statuses
	serializer.Register(finance.EventTypeAccountStatusRegistered, &finance.AccountStatusRegisteredEvent{})
	serializer.Register(finance.EventTypeAccountStatusAmortized, &finance.AccountStatusAmortizedEvent{})
	serializer.Register(finance.EventTypeAccountStatusPaid, &finance.AccountStatusPaidEvent{})
	serializer.Register(finance.EventTypeAccountStatusReverted, &finance.AccountStatusRevertedEvent{})
	serializer.Register(finance.EventTypeAccountStatusCancelled, &finance.AccountStatusCancelledEvent{})
	serializer.Register(finance.EventTypeAccountStatusExpired, &finance.AccountStatusExpiredEvent{})

	// Amortizations
	serializer.Register(finance.EventTypeAmortizationCreated, &finance.AmortizationCreatedEvent{})
	serializer.Register(finance.EventTypeAmortizationCancelled, &finance.AmortizationCancelledEvent{})

	// Cash
	serializer.Register(finance.EventTypeCashTransactionRecorded, &finance.CashTransactionRecordedEvent{})
}
