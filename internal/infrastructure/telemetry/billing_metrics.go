package telemetry

import (
	"context"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BillingMetrics records amortization and expiry activity
type BillingMetrics struct {
	amortizationsTotal    *Counter
	amortizationAmount    *Histogram
	cancellationsTotal    *Counter
	documentsExpired      *Counter
	outboxEventsPublished *Counter
	outboxEventsFailed    *Counter
}

// NewBillingMetrics creates the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &BillingMetrics{}
	var err error

	if m.amortizationsTotal, err = NewCounter(meter,
		"billing_amortizations_total", "Amortizations created", "{amortization}"); err != nil {
		return nil, err
	}
	if m.amortizationAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "billing_amortization_amount",
		Description: "Amount paid per amortization in currency units",
		Unit:        "{currency}",
		Boundaries:  AmountBuckets,
	}); err != nil {
		return nil, err
	}
	if m.cancellationsTotal, err = NewCounter(meter,
		"billing_amortizations_cancelled_total", "Amortizations cancelled", "{amortization}"); err != nil {
		return nil, err
	}
	if m.documentsExpired, err = NewCounter(meter,
		"billing_documents_expired_total", "Documents flagged as expired by the billing sweep", "{document}"); err != nil {
		return nil, err
	}
	if m.outboxEventsPublished, err = NewCounter(meter,
		"billing_outbox_events_published_total", "Outbox events published", "{event}"); err != nil {
		return nil, err
	}
	if m.outboxEventsFailed, err = NewCounter(meter,
		"billing_outbox_events_failed_total", "Outbox event publish failures", "{event}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAmortization counts an amortization and its amount
func (m *BillingMetrics) RecordAmortization(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, mode finance.AmortizationMode, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{
		AttrCompanyID.String(companyID.String()),
		AttrFlow.String(string(flow)),
		AttrMode.String(string(mode)),
	}
	m.amortizationsTotal.Inc(ctx, attrs...)
	m.amortizationAmount.Record(ctx, amount.InexactFloat64(), attrs...)
}

// RecordAmortizationCancelled counts a cancellation
func (m *BillingMetrics) RecordAmortizationCancelled(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow) {
	m.cancellationsTotal.Inc(ctx,
		AttrCompanyID.String(companyID.String()),
		AttrFlow.String(string(flow)),
	)
}

// RecordDocumentsExpired counts documents expired for a company
func (m *BillingMetrics) RecordDocumentsExpired(ctx context.Context, companyID uuid.UUID, count int) {
	m.documentsExpired.Add(ctx, int64(count), AttrCompanyID.String(companyID.String()))
}

// RecordOutboxPublished counts published outbox events by type
func (m *BillingMetrics) RecordOutboxPublished(ctx context.Context, eventType string) {
	m.outboxEventsPublished.Inc(ctx, AttrEventType.String(eventType))
}

// RecordOutboxFailed counts failed outbox publish attempts by type
func (m *BillingMetrics) RecordOutboxFailed(ctx context.Context, eventType string) {
	m.outboxEventsFailed.Inc(ctx, AttrEventType.String(eventType))
}

// MetricsError is returned when an instrument set cannot be built
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when meter is nil
var ErrMeterNil = &MetricsError{Op: "NewBillingMetrics", Err: "meter cannot be nil"}
