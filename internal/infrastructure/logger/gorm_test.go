package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func statement(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Options(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	warn := gl.LogMode(gormlogger.Warn).(*GormLogger)
	assert.Equal(t, gormlogger.Warn, warn.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)

	gl.Info(context.Background(), "migrated %d tables", 4)
	gl.Warn(context.Background(), "deprecated column %s", "due_amount")
	gl.Error(context.Background(), "connection lost")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "deprecated column due_amount", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		opts      []GormLoggerOption
		begin     time.Time
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{
			name:      "error",
			level:     gormlogger.Error,
			begin:     time.Now(),
			err:       errors.New("deadlock detected"),
			wantMsg:   "SQL Error",
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "not found is reported when not ignored",
			level:     gormlogger.Error,
			opts:      []GormLoggerOption{WithIgnoreRecordNotFoundError(false)},
			begin:     time.Now(),
			err:       gormlogger.ErrRecordNotFound,
			wantMsg:   "SQL Error",
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "slow",
			level:     gormlogger.Warn,
			opts:      []GormLoggerOption{WithSlowThreshold(time.Nanosecond)},
			begin:     time.Now().Add(-time.Second),
			wantMsg:   "SLOW SQL >= 1ns",
			wantLevel: zapcore.WarnLevel,
		},
		{
			name:      "normal",
			level:     gormlogger.Info,
			begin:     time.Now(),
			wantMsg:   "SQL Query",
			wantLevel: zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, tt.opts...)

			gl.Trace(context.Background(), tt.begin, statement("SELECT * FROM account_statuses", 3), tt.err)

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			assert.Equal(t, tt.wantLevel, logs[0].Level)
			assert.Equal(t, "SELECT * FROM account_statuses", logs[0].ContextMap()["sql"])
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	t.Run("record not found ignored by default", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Error)

		gl.Trace(context.Background(), time.Now(), statement("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("silent", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Silent)

		gl.Trace(context.Background(), time.Now(), statement("SELECT 1", 1), errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})
}

func TestGormLogger_Trace_ContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)

	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-7")
	ctx, _ = WithCompanyID(ctx, zap.NewNop(), "company-7")

	gl.Trace(ctx, time.Now(), statement("UPDATE cash_accounts SET balance = 10", 1), nil)

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "company-7", fields["company_id"])
	assert.EqualValues(t, 1, fields["rows"])
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"debug":   gormlogger.Info,
		"unknown": gormlogger.Warn,
		"":        gormlogger.Warn,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(in), in)
	}
}
