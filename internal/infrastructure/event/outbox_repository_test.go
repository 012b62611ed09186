package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(t *testing.T, companyID uuid.UUID, eventType string) *shared.OutboxEntry {
	t.Helper()
	evt := newTestEvent(eventType, companyID)
	payload, err := NewEventSerializer().Serialize(evt)
	require.NoError(t, err)
	return shared.NewOutboxEntry(evt, payload)
}

func TestGormOutboxRepository_SaveAndFindPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()
	company := uuid.New()

	first := newEntry(t, company, "First")
	second := newEntry(t, company, "Second")
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, repo.Save(ctx))
	require.NoError(t, repo.Save(ctx, second, first))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "First", pending[0].EventType)
	assert.Equal(t, company, pending[0].CompanyID)
	assert.JSONEq(t, string(first.Payload), string(pending[0].Payload))

	limited, err := repo.FindPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormOutboxRepository_SaveJoinsContextTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOutboxRepository(db)
	txm := persistence.NewGormTxManager(db)
	ctx := context.Background()
	rollback := errors.New("rollback")

	err := txm.Do(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Save(ctx, newEntry(t, uuid.New(), "Lost")))
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGormOutboxRepository_MarkProcessing(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	pending := newEntry(t, uuid.New(), "Pending")
	sent := newEntry(t, uuid.New(), "Sent")
	sent.MarkSent()
	require.NoError(t, repo.Save(ctx, pending, sent))

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID, sent.ID})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, pending.ID, claimed[0].ID)
	assert.Equal(t, shared.OutboxStatusProcessing, claimed[0].Status)

	again, err := repo.MarkProcessing(ctx, []uuid.UUID{pending.ID})
	require.NoError(t, err)
	assert.Empty(t, again)

	none, err := repo.MarkProcessing(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGormOutboxRepository_UpdateAndRetryable(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	entry := newEntry(t, uuid.New(), "Flaky")
	require.NoError(t, repo.Save(ctx, entry))

	entry.MarkFailed("timeout")
	require.NoError(t, repo.Update(ctx, entry))

	notYet, err := repo.FindRetryable(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, notYet)

	due, err := repo.FindRetryable(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].RetryCount)
	assert.Equal(t, "timeout", due[0].LastError)

	missing := newEntry(t, uuid.New(), "Missing")
	assert.ErrorIs(t, repo.Update(ctx, missing), shared.ErrNotFound)
}

func TestGormOutboxRepository_DeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	old := newEntry(t, uuid.New(), "Old")
	old.MarkSent()
	past := time.Now().Add(-48 * time.Hour)
	old.ProcessedAt = &past
	fresh := newEntry(t, uuid.New(), "Fresh")
	fresh.MarkSent()
	pending := newEntry(t, uuid.New(), "Pending")
	require.NoError(t, repo.Save(ctx, old, fresh, pending))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestGormOutboxRepository_Inspection(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()
	company, other := uuid.New(), uuid.New()

	dead := newEntry(t, company, "Dead")
	dead.MaxRetries = 1
	dead.MarkFailed("poison")
	otherDead := newEntry(t, other, "Dead")
	otherDead.MaxRetries = 1
	otherDead.MarkFailed("poison")
	require.NoError(t, repo.Save(ctx, dead, otherDead, newEntry(t, company, "Pending")))

	entries, total, err := repo.FindDead(ctx, company, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, dead.ID, entries[0].ID)

	got, err := repo.FindByID(ctx, company, dead.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDead())

	_, err = repo.FindByID(ctx, company, otherDead.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	counts, err := repo.CountByStatus(ctx, company)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusDead])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])
}
