package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEvent struct {
	shared.BaseDomainEvent
	Note string `json:"note"`
}

func newTestEvent(eventType string, companyID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), companyID),
		Note:            "hello",
	}
}

// recordingHandler collects the events it receives and fails while err is set
type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) received() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

// mapStore is an IdempotencyStore over a plain map
type mapStore struct {
	mu      sync.Mutex
	seen    map[string]bool
	failing bool
}

func newMapStore() *mapStore {
	return &mapStore{seen: make(map[string]bool)}
}

func (s *mapStore) MarkProcessed(_ context.Context, id string, _ time.Duration) (bool, error) {
	if s.failing {
		return false, errors.New("store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[id] {
		return false, nil
	}
	s.seen[id] = true
	return true, nil
}

func (s *mapStore) IsProcessed(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[id], nil
}

func (s *mapStore) Unmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, id)
	return nil
}

func (s *mapStore) Close() error { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := persistence.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.DB.AutoMigrate(&models.OutboxEntryModel{}))
	return database.DB
}

type countingMetrics struct {
	mu        sync.Mutex
	published map[string]int
	failed    map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{published: map[string]int{}, failed: map[string]int{}}
}

func (m *countingMetrics) RecordOutboxPublished(_ context.Context, eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventType]++
}

func (m *countingMetrics) RecordOutboxFailed(_ context.Context, eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[eventType]++
}
