package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig holds database instrumentation settings
type DBConfig struct {
	Tracing            bool
	LogFullSQL         bool // include query variables in spans; never in production
	SlowQueryThreshold time.Duration
	DBSystem           string
	PoolStatsInterval  time.Duration
}

// DefaultDBConfig returns the default database instrumentation settings
func DefaultDBConfig() DBConfig {
	return DBConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
		DBSystem:           "postgresql",
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBTelemetry traces gorm statements and records query and pool metrics
type DBTelemetry struct {
	config         DBConfig
	logger         *zap.Logger
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	poolConns      *Gauge

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type dbStartKey struct{}

// NewDBTelemetry creates the database instruments on meter
func NewDBTelemetry(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBTelemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultDBConfig().SlowQueryThreshold
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = DefaultDBConfig().PoolStatsInterval
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = DefaultDBConfig().DBSystem
	}

	t := &DBTelemetry{config: cfg, logger: logger, stopCh: make(chan struct{})}
	var err error
	if t.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if t.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if t.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the threshold", "{query}"); err != nil {
		return nil, err
	}
	if t.poolConns, err = NewGauge(meter, "db_pool_connections", "Pool connections by state", "{connection}"); err != nil {
		return nil, err
	}
	return t, nil
}

// Register installs the otelgorm plugin (when tracing is on) and the timing callbacks on db
func (t *DBTelemetry) Register(db *gorm.DB) error {
	if t.config.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(t.config.DBSystem)}
		if !t.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	hooks := []struct {
		op       string
		register func(before bool, name string, fn func(*gorm.DB)) error
	}{
		{"create", func(before bool, name string, fn func(*gorm.DB)) error {
			if before {
				return cb.Create().Before("gorm:create").Register(name, fn)
			}
			return cb.Create().After("gorm:create").Register(name, fn)
		}},
		{"query", func(before bool, name string, fn func(*gorm.DB)) error {
			if before {
				return cb.Query().Before("gorm:query").Register(name, fn)
			}
			return cb.Query().After("gorm:query").Register(name, fn)
		}},
		{"update", func(before bool, name string, fn func(*gorm.DB)) error {
			if before {
				return cb.Update().Before("gorm:update").Register(name, fn)
			}
			return cb.Update().After("gorm:update").Register(name, fn)
		}},
		{"delete", func(before bool, name string, fn func(*gorm.DB)) error {
			if before {
				return cb.Delete().Before("gorm:delete").Register(name, fn)
			}
			return cb.Delete().After("gorm:delete").Register(name, fn)
		}},
		{"row", func(before bool, name string, fn func(*gorm.DB)) error {
			if before {
				return cb.Row().Before("gorm:row").Register(name, fn)
			}
			return cb.Row().After("gorm:row").Register(name, fn)
		}},
		{"raw", func(before bool, name string, fn func(*gorm.DB)) error {
			if before {
				return cb.Raw().Before("gorm:raw").Register(name, fn)
			}
			return cb.Raw().After("gorm:raw").Register(name, fn)
		}},
	}
	for _, h := range hooks {
		if err := h.register(true, "billing_db:before_"+h.op, t.before); err != nil {
			return err
		}
		if err := h.register(false, "billing_db:after_"+h.op, t.after); err != nil {
			return err
		}
	}

	t.logger.Info("Database instrumentation registered",
		zap.Bool("tracing", t.config.Tracing),
		zap.Duration("slow_query_threshold", t.config.SlowQueryThreshold),
	)
	return nil
}

func (t *DBTelemetry) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, dbStartKey{}, time.Now())
	}
}

func (t *DBTelemetry) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(dbStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	operation := operationOf(db.Statement.SQL.String())
	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}
	attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(table)}

	t.queryTotal.Inc(ctx, attrs...)
	t.queryDuration.RecordDuration(ctx, elapsed, attrs...)

	span := trace.SpanFromContext(ctx)
	failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)
	if span.IsRecording() {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if failed {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}

	if elapsed > t.config.SlowQueryThreshold {
		t.slowQueryTotal.Inc(ctx, attrs...)
		if span.IsRecording() {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", t.config.SlowQueryThreshold.Milliseconds()),
			))
		}
		t.logger.Warn("slow query",
			zap.String("operation", operation),
			zap.String("table", table),
			zap.Duration("elapsed", elapsed),
		)
	}
}

func operationOf(sql string) string {
	sql = strings.TrimSpace(sql)
	if i := strings.IndexByte(sql, ' '); i > 0 {
		sql = sql[:i]
	}
	switch op := strings.ToUpper(sql); op {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return op
	default:
		return "OTHER"
	}
}

// StartPoolStats records the pool's idle/in-use/open connections until Stop is called
func (t *DBTelemetry) StartPoolStats(ctx context.Context, sqlDB *sql.DB) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.config.PoolStatsInterval)
		defer ticker.Stop()
		for {
			stats := sqlDB.Stats()
			t.poolConns.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
			t.poolConns.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
			t.poolConns.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))

			select {
			case <-ticker.C:
			case <-t.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends pool stats collection. Safe to call more than once.
func (t *DBTelemetry) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		t.wg.Wait()
	})
}
