package finance

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"go.uber.org/zap"
)

// StatementCacheInvalidator drops the cached statement of the partner an event touched
type StatementCacheInvalidator struct {
	cache  StatementCache
	logger *zap.Logger
}

// NewStatementCacheInvalidator creates a new StatementCacheInvalidator
func NewStatementCacheInvalidator(cache StatementCache, logger *zap.Logger) *StatementCacheInvalidator {
	return &StatementCacheInvalidator{
		cache:  cache,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StatementCacheInvalidator) EventTypes() []string {
	return []string{
		finance.EventTypeAccountStatusRegistered,
		finance.EventTypeAccountStatusAmortized,
		finance.EventTypeAccountStatusReverted,
		finance.EventTypeAccountStatusCancelled,
		finance.EventTypeAccountStatusExpired,
		finance.EventTypeAmortizationCreated,
		finance.EventTypeAmortizationCancelled,
	}
}

// Handle invalidates the statement of the event's partner
func (h *StatementCacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	pe, ok := event.(finance.PartnerEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s does not carry a partner", event.EventType())
	}
	flow, partnerID := pe.Partner()
	if err := h.cache.Invalidate(ctx, event.CompanyID(), flow, partnerID); err != nil {
		return fmt.Errorf("failed to invalidate partner statement: %w", err)
	}
	h.logger.Debug("partner statement invalidated",
		zap.String("company_id", event.CompanyID().String()),
		zap.String("partner_id", partnerID.String()),
		zap.String("event_type", event.EventType()),
	)
	return nil
}
