package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/domain/shared"
	"go.uber.org/zap"
)

// Sweeper runs one billing sweep
type Sweeper interface {
	Run(ctx context.Context, asOf time.Time) (*appfinance.SweepSummary, error)
}

// BillingSweepTriggerConfig holds the daily schedule of the billing sweep
type BillingSweepTriggerConfig struct {
	Hour   int
	Minute int

	// Location is the time zone Hour and Minute are read in
	Location *time.Location

	// CheckInterval is how often the clock is checked
	CheckInterval time.Duration

	// Timeout bounds a single sweep
	Timeout time.Duration

	// LockTTL is how long the daily lock is held; it must outlast the sweep
	LockTTL time.Duration

	// LockWait is how long an instance waits for the lock before giving up
	LockWait time.Duration
}

// DefaultBillingSweepTriggerConfig returns the default schedule: 01:00 UTC
func DefaultBillingSweepTriggerConfig() BillingSweepTriggerConfig {
	return BillingSweepTriggerConfig{
		Hour:          1,
		Minute:        0,
		Location:      time.UTC,
		CheckInterval: time.Minute,
		Timeout:       30 * time.Minute,
		LockTTL:       time.Hour,
		LockWait:      5 * time.Second,
	}
}

// Validate checks the schedule
func (c BillingSweepTriggerConfig) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidConfig, c.Hour)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrInvalidConfig, c.Minute)
	}
	return nil
}

// BillingSweepTrigger runs the billing sweep once a day.
// Every instance checks the clock; the daily lock lets only one of them sweep.
type BillingSweepTrigger struct {
	config  BillingSweepTriggerConfig
	sweeper Sweeper
	locker  appfinance.Locker
	logger  *zap.Logger
	now     func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewBillingSweepTrigger creates a new trigger
func NewBillingSweepTrigger(
	config BillingSweepTriggerConfig,
	sweeper Sweeper,
	locker appfinance.Locker,
	logger *zap.Logger,
) *BillingSweepTrigger {
	defaults := DefaultBillingSweepTriggerConfig()
	if config.Location == nil {
		config.Location = defaults.Location
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.LockTTL <= 0 {
		config.LockTTL = defaults.LockTTL
	}
	if config.LockWait <= 0 {
		config.LockWait = defaults.LockWait
	}
	return &BillingSweepTrigger{
		config:  config,
		sweeper: sweeper,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
	}
}

// Start starts the trigger loop
func (t *BillingSweepTrigger) Start(ctx context.Context) error {
	if err := t.config.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("billing sweep trigger started",
		zap.Int("hour", t.config.Hour),
		zap.Int("minute", t.config.Minute),
		zap.String("location", t.config.Location.String()),
	)
	return nil
}

// Stop stops the trigger and waits for a sweep in flight, bounded by ctx
func (t *BillingSweepTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("billing sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *BillingSweepTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger sweeps once per day, on the first check at or after the scheduled time.
// A process started after the scheduled time still sweeps that day.
func (t *BillingSweepTrigger) checkAndTrigger(ctx context.Context) bool {
	now := t.now().In(t.config.Location)
	today := now.Format(time.DateOnly)

	t.mu.Lock()
	if t.lastRunDate == today {
		t.mu.Unlock()
		return false
	}
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), t.config.Hour, t.config.Minute, 0, 0, t.config.Location)
	if now.Before(scheduled) {
		t.mu.Unlock()
		return false
	}
	t.lastRunDate = today
	t.mu.Unlock()

	// The daily lock is left to expire so late instances skip the same day.
	if _, err := t.obtain(ctx, "billing:sweep:"+today); err != nil {
		if errors.Is(err, shared.ErrResourceLocked) {
			t.logger.Info("billing sweep already taken by another instance", zap.String("date", today))
		} else {
			t.logger.Error("failed to obtain billing sweep lock", zap.Error(err))
		}
		return false
	}

	if _, err := t.sweep(ctx, now); err != nil {
		t.logger.Error("scheduled billing sweep failed", zap.Error(err))
	}
	return true
}

// TriggerNow runs a sweep immediately, outside the daily schedule.
// It fails with shared.ErrResourceLocked while another on-demand sweep is running.
func (t *BillingSweepTrigger) TriggerNow(ctx context.Context, asOf time.Time) (*appfinance.SweepSummary, error) {
	release, err := t.obtain(ctx, "billing:sweep:manual")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			t.logger.Warn("failed to release billing sweep lock", zap.Error(err))
		}
	}()

	if asOf.IsZero() {
		asOf = t.now()
	}
	return t.sweep(ctx, asOf)
}

func (t *BillingSweepTrigger) obtain(ctx context.Context, key string) (func(context.Context) error, error) {
	lockCtx, cancel := context.WithTimeout(ctx, t.config.LockWait)
	defer cancel()

	release, err := t.locker.Obtain(lockCtx, key, t.config.LockTTL)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, shared.ErrResourceLocked
	}
	return release, err
}

func (t *BillingSweepTrigger) sweep(ctx context.Context, asOf time.Time) (*appfinance.SweepSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	t.logger.Info("billing sweep triggered", zap.Time("as_of", asOf))
	return t.sweeper.Run(ctx, asOf)
}
