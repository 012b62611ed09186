package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which events a handler already processed
type IdempotencyStore interface {
	// MarkProcessed returns true if the event was newly marked, false if it was seen before
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// Unmark forgets the event so a failed attempt can be retried
	Unmark(ctx context.Context, eventID string) error
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL bounds how long a processed event ID is remembered
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
