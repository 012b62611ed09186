package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatementCacheInvalidator_EventTypes(t *testing.T) {
	h := NewStatementCacheInvalidator(new(MockStatementCache), zap.NewNop())
	types := h.EventTypes()

	assert.Contains(t, types, finance.EventTypeAccountStatusAmortized)
	assert.Contains(t, types, finance.EventTypeAmortizationCancelled)
	assert.NotContains(t, types, finance.EventTypeCashTransactionRecorded)
}

func TestStatementCacheInvalidator_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("drops the partner statement", func(t *testing.T) {
		cache := new(MockStatementCache)
		h := NewStatementCacheInvalidator(cache, zap.NewNop())
		doc := openInvoice("100", nil)
		require.NoError(t, doc.Amortize(dec("40"), uuid.New()))
		event := doc.GetDomainEvents()[0]

		cache.On("Invalidate", mock.Anything, companyID, finance.FlowReceivable, partnerID).Return(nil)

		require.NoError(t, h.Handle(ctx, event))
		cache.AssertExpectations(t)
	})

	t.Run("cache failure is returned for retry", func(t *testing.T) {
		cache := new(MockStatementCache)
		h := NewStatementCacheInvalidator(cache, zap.NewNop())
		doc := openInvoice("100", nil)
		require.NoError(t, doc.Cancel("anulada"))

		cache.On("Invalidate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

		err := h.Handle(ctx, doc.GetDomainEvents()[0])
		assert.ErrorContains(t, err, "failed to invalidate partner statement")
	})

	t.Run("event without partner", func(t *testing.T) {
		cache := new(MockStatementCache)
		h := NewStatementCacheInvalidator(cache, zap.NewNop())
		bank := newAccount(finance.CashAccountKindBank, "0")
		tx, err := bank.Record(finance.TransactionTypeIncome, finance.TransactionOriginManual,
			finance.PaymentMethodDeposit, dec("5"), statusClock, "")
		require.NoError(t, err)

		var event shared.DomainEvent = finance.NewCashTransactionRecordedEvent(tx)
		assert.Error(t, h.Handle(ctx, event))
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
