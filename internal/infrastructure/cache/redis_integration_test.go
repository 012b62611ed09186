//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisIntegration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	t.Run("idempotency store", func(t *testing.T) {
		store := NewRedisIdempotencyStore(client, "")

		isNew, err := store.MarkProcessed(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, isNew)

		processed, err := store.IsProcessed(ctx, "evt-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("statement cache round trip and invalidation", func(t *testing.T) {
		c := NewRedisStatementCache(client, time.Minute)
		company, partner := uuid.New(), uuid.New()

		_, hit, err := c.Get(ctx, company, finance.FlowReceivable, partner)
		require.NoError(t, err)
		assert.False(t, hit)

		statement := &appfinance.PartnerStatement{
			CompanyID: company,
			Flow:      string(finance.FlowReceivable),
			PartnerID: partner,
			Balances: []appfinance.PartnerBalanceDTO{
				{Currency: "PEN", DocumentCount: 2, DueAmount: decimal.RequireFromString("150.50")},
			},
			GeneratedAt: time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, c.Set(ctx, statement))

		got, hit, err := c.Get(ctx, company, finance.FlowReceivable, partner)
		require.NoError(t, err)
		require.True(t, hit)
		assert.True(t, got.Balances[0].DueAmount.Equal(decimal.RequireFromString("150.50")))

		_, hit, err = c.Get(ctx, company, finance.FlowPayable, partner)
		require.NoError(t, err)
		assert.False(t, hit)

		require.NoError(t, c.Invalidate(ctx, company, finance.FlowReceivable, partner))
		_, hit, err = c.Get(ctx, company, finance.FlowReceivable, partner)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("locker rejects a held key until released", func(t *testing.T) {
		locker := NewRedisLocker(client)

		release, err := locker.Obtain(ctx, "billing:test:lock", 2*time.Second)
		require.NoError(t, err)

		_, err = locker.Obtain(ctx, "billing:test:lock", 300*time.Millisecond)
		assert.ErrorIs(t, err, shared.ErrResourceLocked)

		require.NoError(t, release(ctx))

		release, err = locker.Obtain(ctx, "billing:test:lock", time.Second)
		require.NoError(t, err)
		require.NoError(t, release(ctx))
	})
}
