package persistence

import (
	"context"
	"testing"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type amortizationFixture struct {
	statuses *GormAccountStatusRepository
	accounts *GormCashAccountRepository
	repo     *GormAmortizationRepository
	register *finance.CashAccount
}

func newAmortizationFixture(t *testing.T, db *gorm.DB) *amortizationFixture {
	t.Helper()
	f := &amortizationFixture{
		statuses: NewGormAccountStatusRepository(db),
		accounts: NewGormCashAccountRepository(db),
		repo:     NewGormAmortizationRepository(db),
	}
	register, err := finance.NewCashAccount(testCompanyID, finance.CashAccountKindRegister, "Caja principal", valueobject.PEN)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), register))
	f.register = register
	return f
}

// amortize pays the given statuses in full with one cash leg of amount
func (f *amortizationFixture) amortize(t *testing.T, mode finance.AmortizationMode, amount string, statuses ...*finance.AccountStatus) *finance.Amortization {
	t.Helper()
	a, err := finance.NewAmortization(testCompanyID, finance.FlowReceivable, testPartnerID, mode, valueobject.PEN, day(2026, 3, 1))
	require.NoError(t, err)
	a.SetReference("OP-778", "")
	_, err = a.AddCashPayment(finance.PaymentMethodCash, f.register, dec(amount), "")
	require.NoError(t, err)
	for _, st := range statuses {
		_, err := a.ApplyTo(st, st.DueAmount)
		require.NoError(t, err)
	}
	require.NoError(t, a.Finalize())
	return a
}

func TestGormAmortizationRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	f := newAmortizationFixture(t, db)

	first := newStatus(t, statusOpts{number: "F001-1", total: "120"})
	second := newStatus(t, statusOpts{number: "F001-2", total: "80"})
	require.NoError(t, f.statuses.Create(ctx, first))
	require.NoError(t, f.statuses.Create(ctx, second))

	a := f.amortize(t, finance.AmortizationModeSingle, "200", second, first)
	require.NoError(t, f.repo.Create(ctx, a))

	found, err := f.repo.FindByID(ctx, testCompanyID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.AmortizationModeSingle, found.Mode)
	assert.Equal(t, "OP-778", found.Reference)
	assert.True(t, found.Amount.Equal(dec("200")))
	assert.True(t, found.UnappliedAmount.IsZero())
	require.Len(t, found.Details, 2)
	assert.Equal(t, "F001-1", found.Details[0].DocumentNumber)
	assert.True(t, found.Details[0].DueBefore.Equal(dec("120")))
	assert.True(t, found.Details[0].DueAfter.IsZero())
	require.Len(t, found.Payments, 1)
	assert.Equal(t, finance.PaymentMethodCash, found.Payments[0].Method)
	require.NotNil(t, found.Payments[0].CashAccountID)
	assert.Equal(t, f.register.ID, *found.Payments[0].CashAccountID)

	_, err = f.repo.FindByID(ctx, otherCompany, a.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	byDoc, err := f.repo.FindByAccountStatus(ctx, testCompanyID, first.ID)
	require.NoError(t, err)
	require.Len(t, byDoc, 1)
	assert.Equal(t, a.ID, byDoc[0].ID)
	assert.Len(t, byDoc[0].Details, 2)
}

func TestGormAmortizationRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	f := newAmortizationFixture(t, newTestDB(t))

	st := newStatus(t, statusOpts{total: "50"})
	require.NoError(t, f.statuses.Create(ctx, st))
	a := f.amortize(t, finance.AmortizationModeSingle, "50", st)
	require.NoError(t, f.repo.Create(ctx, a))

	stale, err := f.repo.FindByID(ctx, testCompanyID, a.ID)
	require.NoError(t, err)

	require.NoError(t, a.Cancel("wrong partner"))
	require.NoError(t, f.repo.SaveWithLock(ctx, a))
	assert.Equal(t, 2, a.Version)

	saved, err := f.repo.FindByID(ctx, testCompanyID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.AmortizationStateCancelled, saved.Status)
	assert.Equal(t, "wrong partner", saved.CancelReason)
	assert.Len(t, saved.Details, 1)
	assert.Len(t, saved.Payments, 1)

	require.NoError(t, stale.Cancel("again"))
	assert.ErrorIs(t, f.repo.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)
}

func TestGormAmortizationRepository_FindAllAndSumUnapplied(t *testing.T) {
	ctx := context.Background()
	f := newAmortizationFixture(t, newTestDB(t))

	st := newStatus(t, statusOpts{total: "70"})
	require.NoError(t, f.statuses.Create(ctx, st))

	free := f.amortize(t, finance.AmortizationModeFree, "100", st)
	require.NoError(t, f.repo.Create(ctx, free))
	advance := f.amortize(t, finance.AmortizationModeFree, "40")
	require.NoError(t, f.repo.Create(ctx, advance))
	cancelled := f.amortize(t, finance.AmortizationModeFree, "500")
	require.NoError(t, cancelled.Cancel("duplicated"))
	require.NoError(t, f.repo.Create(ctx, cancelled))

	totals, err := f.repo.SumUnapplied(ctx, testCompanyID, finance.FlowReceivable, testPartnerID)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals[valueobject.PEN].Equal(dec("70")), totals[valueobject.PEN].String())

	items, total, err := f.repo.FindAll(ctx, testCompanyID, finance.AmortizationFilter{
		Status: ptr(finance.AmortizationStateActive),
		Filter: shared.Filter{OrderBy: "amount", OrderDir: "asc"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.True(t, items[0].Amount.Equal(dec("40")))
	assert.Len(t, items[1].Details, 1)
}

func TestGormAmortizationRepository_FindByAccountStatusCreditNote(t *testing.T) {
	ctx := context.Background()
	f := newAmortizationFixture(t, newTestDB(t))

	invoice := newStatus(t, statusOpts{number: "F001-10", total: "100"})
	note := newStatus(t, statusOpts{docType: finance.DocumentTypeCreditNote, number: "FC01-3", total: "40"})
	require.NoError(t, f.statuses.Create(ctx, invoice))
	require.NoError(t, f.statuses.Create(ctx, note))

	a, err := finance.NewAmortization(testCompanyID, finance.FlowReceivable, testPartnerID, finance.AmortizationModeMulti, valueobject.PEN, day(2026, 3, 1))
	require.NoError(t, err)
	_, err = a.AddCreditNotePayment(note, dec("40"))
	require.NoError(t, err)
	_, err = a.AddCashPayment(finance.PaymentMethodCash, f.register, dec("60"), "")
	require.NoError(t, err)
	_, err = a.ApplyTo(invoice, dec("100"))
	require.NoError(t, err)
	require.NoError(t, a.Finalize())
	require.NoError(t, f.repo.Create(ctx, a))

	byNote, err := f.repo.FindByAccountStatus(ctx, testCompanyID, note.ID)
	require.NoError(t, err)
	require.Len(t, byNote, 1, "a credit note consumed as a leg is listed")
	assert.Equal(t, a.ID, byNote[0].ID)
	assert.Len(t, byNote[0].Payments, 2)

	byInvoice, err := f.repo.FindByAccountStatus(ctx, testCompanyID, invoice.ID)
	require.NoError(t, err)
	require.Len(t, byInvoice, 1)
	assert.Equal(t, a.ID, byInvoice[0].ID)

	other, err := f.repo.FindByAccountStatus(ctx, otherCompany, note.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}
