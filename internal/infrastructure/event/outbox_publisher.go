package event

import (
	"context"

	"github.com/erp/billing/internal/domain/shared"
)

// OutboxPublisher turns domain events into outbox entries.
// Entries are written through the transaction in ctx, so they commit or roll back with the aggregate.
type OutboxPublisher struct {
	serializer *EventSerializer
	repo       shared.OutboxRepository
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer, repo shared.OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
		repo:       repo,
	}
}

// SaveEvents serializes events and stores them as pending outbox entries
func (p *OutboxPublisher) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload))
	}
	return p.repo.Save(ctx, entries...)
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
