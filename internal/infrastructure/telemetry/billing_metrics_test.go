package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestBillingMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewBillingMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	companyID := uuid.New()
	m.RecordAmortization(ctx, companyID, finance.FlowReceivable, finance.AmortizationModeSingle, decimal.NewFromInt(300))
	m.RecordAmortization(ctx, companyID, finance.FlowReceivable, finance.AmortizationModeFree, decimal.NewFromInt(1200))
	m.RecordAmortizationCancelled(ctx, companyID, finance.FlowReceivable)
	m.RecordDocumentsExpired(ctx, companyID, 7)
	m.RecordOutboxPublished(ctx, finance.EventTypeAmortizationCreated)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["billing_amortizations_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["billing_amortizations_cancelled_total"]))
	assert.Equal(t, int64(7), sumOf(t, data["billing_documents_expired_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["billing_outbox_events_published_total"]))

	hist, ok := data["billing_amortization_amount"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestNewBillingMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewBillingMetrics(nil)
	assert.Nil(t, m)
	assert.EqualError(t, err, "NewBillingMetrics: meter cannot be nil")
}
