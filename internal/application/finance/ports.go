package finance

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxManager runs fn inside one database transaction.
// Repositories called with the ctx passed to fn take part in that transaction.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker serializes work on a key across processes
type Locker interface {
	// Obtain blocks until the key is locked or ttl elapses; the returned func releases the lock
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// StatementCache stores computed partner statements
type StatementCache interface {
	Get(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) (*PartnerStatement, bool, error)
	Set(ctx context.Context, statement *PartnerStatement) error
	Invalidate(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) error
}

// BillingRecorder receives business metrics
type BillingRecorder interface {
	RecordAmortization(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, mode finance.AmortizationMode, amount decimal.Decimal)
	RecordAmortizationCancelled(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow)
	RecordDocumentsExpired(ctx context.Context, companyID uuid.UUID, count int)
}

type noopRecorder struct{}

func (noopRecorder) RecordAmortization(context.Context, uuid.UUID, finance.AccountFlow, finance.AmortizationMode, decimal.Decimal) {
}
func (noopRecorder) RecordAmortizationCancelled(context.Context, uuid.UUID, finance.AccountFlow) {}
func (noopRecorder) RecordDocumentsExpired(context.Context, uuid.UUID, int)                   {}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID, finance.AccountFlow, uuid.UUID) (*PartnerStatement, bool, error) {
	return nil, false, nil
}
func (noopCache) Set(context.Context, *PartnerStatement) error { return nil }
func (noopCache) Invalidate(context.Context, uuid.UUID, finance.AccountFlow, uuid.UUID) error {
	return nil
}
