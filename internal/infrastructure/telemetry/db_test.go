package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type probe struct {
	ID   uint
	Name string
}

func TestDBTelemetry_RecordsQueries(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	dbt, err := telemetry.NewDBTelemetry(provider.Meter("test"), telemetry.DBConfig{
		SlowQueryThreshold: time.Nanosecond,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, dbt.Register(db))

	require.NoError(t, db.AutoMigrate(&probe{}))
	require.NoError(t, db.Create(&probe{Name: "a"}).Error)
	var got []probe
	require.NoError(t, db.Find(&got).Error)

	data := collect(t, reader)
	assert.GreaterOrEqual(t, sumOf(t, data["db_query_total"]), int64(2))
	assert.GreaterOrEqual(t, sumOf(t, data["db_slow_query_total"]), int64(2), "every query exceeds a 1ns threshold")
}

func TestDBTelemetry_PoolStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	dbt, err := telemetry.NewDBTelemetry(provider.Meter("test"), telemetry.DBConfig{PoolStatsInterval: time.Hour}, nil)
	require.NoError(t, err)
	dbt.StartPoolStats(context.Background(), sqlDB)

	assert.Eventually(t, func() bool {
		_, ok := collect(t, reader)["db_pool_connections"]
		return ok
	}, time.Second, 10*time.Millisecond)

	dbt.Stop()
	dbt.Stop()
}
