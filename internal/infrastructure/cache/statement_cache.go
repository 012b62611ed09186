package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const statementKeyPrefix = "billing:statement:"

// RedisStatementCache stores partner statements as JSON with a fixed TTL
type RedisStatementCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatementCache creates a statement cache; ttl <= 0 defaults to ten minutes
func NewRedisStatementCache(client *redis.Client, ttl time.Duration) *RedisStatementCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStatementCache{client: client, ttl: ttl}
}

// Get returns the cached statement; a miss is (nil, false, nil)
func (c *RedisStatementCache) Get(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) (*appfinance.PartnerStatement, bool, error) {
	raw, err := c.client.Get(ctx, statementKey(companyID, flow, partnerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read statement cache: %w", err)
	}

	var statement appfinance.PartnerStatement
	if err := json.Unmarshal(raw, &statement); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached statement: %w", err)
	}
	return &statement, true, nil
}

// Set stores the statement under its company, flow and partner
func (c *RedisStatementCache) Set(ctx context.Context, statement *appfinance.PartnerStatement) error {
	raw, err := json.Marshal(statement)
	if err != nil {
		return fmt.Errorf("failed to encode statement: %w", err)
	}
	key := statementKey(statement.CompanyID, finance.AccountFlow(statement.Flow), statement.PartnerID)
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write statement cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached statement
func (c *RedisStatementCache) Invalidate(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) error {
	if err := c.client.Del(ctx, statementKey(companyID, flow, partnerID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate statement cache: %w", err)
	}
	return nil
}

func statementKey(companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) string {
	return statementKeyPrefix + companyID.String() + ":" + string(flow) + ":" + partnerID.String()
}

var _ appfinance.StatementCache = (*RedisStatementCache)(nil)
