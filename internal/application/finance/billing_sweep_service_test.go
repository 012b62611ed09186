package finance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type expiredRecorder struct {
	noopRecorder
	mu     sync.Mutex
	counts map[uuid.UUID]int
}

func (r *expiredRecorder) RecordDocumentsExpired(_ context.Context, companyID uuid.UUID, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[uuid.UUID]int)
	}
	r.counts[companyID] += count
}

var _ BillingRecorder = (*expiredRecorder)(nil)

func TestBillingSweepService_SweepCompany(t *testing.T) {
	asOf := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	pastDue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	dueToday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("flags past-due documents only", func(t *testing.T) {
		statusRepo := new(MockAccountStatusRepository)
		outbox := &recordingOutbox{}
		recorder := &expiredRecorder{}
		svc := NewBillingSweepService(statusRepo, &passthroughTx{}, outbox, recorder,
			BillingSweepConfig{Concurrency: 1, BatchSize: 10}, nil)

		late := openInvoice("100", &pastDue)
		today := openInvoice("100", &dueToday)
		statusRepo.On("FindExpirable", mock.Anything, companyID, asOf, 10).
			Return([]*finance.AccountStatus{late, today}, nil)
		statusRepo.On("SaveWithLock", mock.Anything, late).Return(nil)

		n, err := svc.SweepCompany(context.Background(), companyID, asOf)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.True(t, late.Expired)
		assert.False(t, today.Expired)
		assert.Equal(t, []string{finance.EventTypeAccountStatusExpired}, outbox.types())
		assert.Equal(t, 1, recorder.counts[companyID])
		statusRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, today)
	})

	t.Run("pages through full batches", func(t *testing.T) {
		statusRepo := new(MockAccountStatusRepository)
		svc := NewBillingSweepService(statusRepo, &passthroughTx{}, &recordingOutbox{}, nil,
			BillingSweepConfig{Concurrency: 1, BatchSize: 2}, nil)

		first := []*finance.AccountStatus{openInvoice("1", &pastDue), openInvoice("2", &pastDue)}
		second := []*finance.AccountStatus{openInvoice("3", &pastDue)}
		statusRepo.On("FindExpirable", mock.Anything, companyID, asOf, 2).Return(first, nil).Once()
		statusRepo.On("FindExpirable", mock.Anything, companyID, asOf, 2).Return(second, nil).Once()
		statusRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

		n, err := svc.SweepCompany(context.Background(), companyID, asOf)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		statusRepo.AssertNumberOfCalls(t, "FindExpirable", 2)
	})

	t.Run("nothing to expire", func(t *testing.T) {
		statusRepo := new(MockAccountStatusRepository)
		recorder := &expiredRecorder{}
		svc := NewBillingSweepService(statusRepo, &passthroughTx{}, &recordingOutbox{}, recorder, BillingSweepConfig{}, nil)

		statusRepo.On("FindExpirable", mock.Anything, companyID, asOf, 500).Return([]*finance.AccountStatus{}, nil)

		n, err := svc.SweepCompany(context.Background(), companyID, asOf)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, recorder.counts)
	})
}

func TestBillingSweepService_Run(t *testing.T) {
	asOf := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	pastDue := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	healthy := uuid.MustParse("00000000-0000-0000-0000-0000000000c2")
	broken := uuid.MustParse("00000000-0000-0000-0000-0000000000c3")

	statusRepo := new(MockAccountStatusRepository)
	svc := NewBillingSweepService(statusRepo, &passthroughTx{}, &recordingOutbox{}, nil,
		BillingSweepConfig{Concurrency: 1, BatchSize: 100}, nil)

	doc := openInvoice("250", &pastDue)
	doc.CompanyID = healthy

	statusRepo.On("CompaniesWithOpenDocuments", mock.Anything).Return([]uuid.UUID{healthy, broken}, nil)
	statusRepo.On("FindExpirable", mock.Anything, healthy, asOf, 100).Return([]*finance.AccountStatus{doc}, nil)
	statusRepo.On("FindExpirable", mock.Anything, broken, asOf, 100).Return(nil, errors.New("statement timeout"))
	statusRepo.On("SaveWithLock", mock.Anything, doc).Return(nil)

	summary, err := svc.Run(context.Background(), asOf)
	require.NoError(t, err, "a failing company does not fail the sweep")
	assert.Equal(t, 2, summary.Companies)
	assert.Equal(t, 1, summary.Expired)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, asOf, summary.AsOf)
}

func TestBillingSweepService_Run_Cancelled(t *testing.T) {
	statusRepo := new(MockAccountStatusRepository)
	svc := NewBillingSweepService(statusRepo, &passthroughTx{}, &recordingOutbox{}, nil,
		BillingSweepConfig{Concurrency: 1, BatchSize: 100}, nil)

	statusRepo.On("CompaniesWithOpenDocuments", mock.Anything).Return([]uuid.UUID{uuid.New(), uuid.New()}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.Run(ctx, time.Now())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Companies)
	assert.Zero(t, summary.Expired)
	statusRepo.AssertNotCalled(t, "FindExpirable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBillingSweepService_Run_ListFails(t *testing.T) {
	statusRepo := new(MockAccountStatusRepository)
	svc := NewBillingSweepService(statusRepo, &passthroughTx{}, &recordingOutbox{}, nil, DefaultBillingSweepConfig(), nil)

	statusRepo.On("CompaniesWithOpenDocuments", mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.Run(context.Background(), time.Now())
	assert.ErrorContains(t, err, "failed to list companies")
}
