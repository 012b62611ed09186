package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultRetryInterval = 100 * time.Millisecond

// RedisLocker serializes work on a key across every instance of the service
type RedisLocker struct {
	client        *redislock.Client
	retryInterval time.Duration
}

// NewRedisLocker creates a locker over an existing redis client
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client:        redislock.New(client),
		retryInterval: defaultRetryInterval,
	}
}

// Obtain retries until the key is free or ttl elapses.
// A busy key ends in shared.ErrResourceLocked; an expired lock makes release a no-op.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	attempts := int(ttl / l.retryInterval)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.retryInterval), attempts),
	}

	lock, err := l.client.Obtain(ctx, key, ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrResourceLocked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}, nil
}

// LocalLocker is a keyed mutex for single-instance deployments without Redis
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an empty LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*lockSlot)}
}

// Obtain waits at most ttl for the key; the lock is held until release is called
func (l *LocalLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	slot := l.acquireSlot(key)

	timer := time.NewTimer(ttl)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
	case <-timer.C:
		l.releaseSlot(key)
		return nil, shared.ErrResourceLocked
	case <-ctx.Done():
		l.releaseSlot(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-slot.ch
			l.releaseSlot(key)
		})
		return nil
	}, nil
}

func (l *LocalLocker) acquireSlot(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLocker) releaseSlot(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot := l.slots[key]
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
