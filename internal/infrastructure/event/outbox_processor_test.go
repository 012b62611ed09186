package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type processorFixture struct {
	repo      *GormOutboxRepository
	publisher *OutboxPublisher
	handler   *recordingHandler
	metrics   *countingMetrics
	processor *OutboxProcessor
}

func newProcessorFixture(t *testing.T, cfg OutboxProcessorConfig) *processorFixture {
	t.Helper()
	repo := NewGormOutboxRepository(newTestDB(t))

	serializer := NewEventSerializer()
	serializer.Register("Created", &testEvent{})

	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"Created"}}
	bus.Subscribe(handler)

	metrics := newCountingMetrics()
	return &processorFixture{
		repo:      repo,
		publisher: NewOutboxPublisher(serializer, repo),
		handler:   handler,
		metrics:   metrics,
		processor: NewOutboxProcessor(repo, bus, serializer, cfg, metrics, zap.NewNop()),
	}
}

func TestOutboxProcessor_ProcessOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches pending events and marks them sent", func(t *testing.T) {
		f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
		company := uuid.New()
		require.NoError(t, f.publisher.SaveEvents(ctx, newTestEvent("Created", company), newTestEvent("Created", company)))

		assert.Equal(t, 2, f.processor.ProcessOnce(ctx))
		assert.Equal(t, 2, f.handler.received())
		assert.Equal(t, 2, f.metrics.published["Created"])

		got := f.handler.events[0].(*testEvent)
		assert.Equal(t, company, got.CompanyID())
		assert.Equal(t, "hello", got.Note)

		counts, err := f.repo.CountByStatus(ctx, company)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[shared.OutboxStatusSent])

		assert.Zero(t, f.processor.ProcessOnce(ctx))
	})

	t.Run("handler failure schedules a retry", func(t *testing.T) {
		f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
		f.handler.err = errors.New("downstream unavailable")
		evt := newTestEvent("Created", uuid.New())
		require.NoError(t, f.publisher.SaveEvents(ctx, evt))

		assert.Zero(t, f.processor.ProcessOnce(ctx))
		assert.Equal(t, 1, f.metrics.failed["Created"])

		retryable, err := f.repo.FindRetryable(ctx, time.Now().Add(time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, retryable, 1)
		assert.Equal(t, "downstream unavailable", retryable[0].LastError)
	})

	t.Run("unknown event type goes dead once retries run out", func(t *testing.T) {
		cfg := DefaultOutboxProcessorConfig()
		cfg.MaxRetries = 1
		f := newProcessorFixture(t, cfg)
		company := uuid.New()
		require.NoError(t, f.publisher.SaveEvents(ctx, newTestEvent("Unregistered", company)))

		assert.Zero(t, f.processor.ProcessOnce(ctx))

		dead, total, err := f.repo.FindDead(ctx, company, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Contains(t, dead[0].LastError, "unknown event type")
		assert.Zero(t, f.handler.received())
	})
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	cfg := DefaultOutboxProcessorConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.CleanupInterval = 10 * time.Millisecond
	f := newProcessorFixture(t, cfg)
	ctx := context.Background()

	require.NoError(t, f.publisher.SaveEvents(ctx, newTestEvent("Created", uuid.New())))
	require.NoError(t, f.processor.Start(ctx))

	assert.Eventually(t, func() bool { return f.handler.received() == 1 }, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, f.processor.Stop(stopCtx))
}

func TestOutboxProcessor_Cleanup(t *testing.T) {
	f := newProcessorFixture(t, DefaultOutboxProcessorConfig())
	ctx := context.Background()

	entry := newEntry(t, uuid.New(), "Created")
	entry.MarkSent()
	old := time.Now().Add(-30 * 24 * time.Hour)
	entry.ProcessedAt = &old
	require.NoError(t, f.repo.Save(ctx, entry))

	f.processor.Cleanup(ctx)

	_, err := f.repo.FindByID(ctx, entry.CompanyID, entry.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
