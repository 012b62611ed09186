package finance

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockAccountStatusRepository struct {
	mock.Mock
}

func (m *MockAccountStatusRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.AccountStatus, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AccountStatus), args.Error(1)
}

func (m *MockAccountStatusRepository) FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]*finance.AccountStatus, error) {
	args := m.Called(ctx, companyID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.AccountStatus), args.Error(1)
}

func (m *MockAccountStatusRepository) FindByDocument(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, documentID uuid.UUID) (*finance.AccountStatus, error) {
	args := m.Called(ctx, companyID, flow, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AccountStatus), args.Error(1)
}

func (m *MockAccountStatusRepository) FindOpenByPartner(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID, currency valueobject.Currency) ([]*finance.AccountStatus, error) {
	args := m.Called(ctx, companyID, flow, partnerID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.AccountStatus), args.Error(1)
}

func (m *MockAccountStatusRepository) FindOpenCreditNotes(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) ([]*finance.AccountStatus, error) {
	args := m.Called(ctx, companyID, flow, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.AccountStatus), args.Error(1)
}

func (m *MockAccountStatusRepository) FindExpirable(ctx context.Context, companyID uuid.UUID, asOf time.Time, limit int) ([]*finance.AccountStatus, error) {
	args := m.Called(ctx, companyID, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.AccountStatus), args.Error(1)
}

func (m *MockAccountStatusRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.AccountStatusFilter) ([]*finance.AccountStatus, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*finance.AccountStatus), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountStatusRepository) SummarizeByPartner(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID, asOf time.Time) ([]finance.PartnerBalance, error) {
	args := m.Called(ctx, companyID, flow, partnerID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.PartnerBalance), args.Error(1)
}

func (m *MockAccountStatusRepository) CompaniesWithOpenDocuments(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAccountStatusRepository) Create(ctx context.Context, status *finance.AccountStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *MockAccountStatusRepository) SaveWithLock(ctx context.Context, status *finance.AccountStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

type MockAmortizationRepository struct {
	mock.Mock
}

func (m *MockAmortizationRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.Amortization, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Amortization), args.Error(1)
}

func (m *MockAmortizationRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.AmortizationFilter) ([]*finance.Amortization, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*finance.Amortization), args.Get(1).(int64), args.Error(2)
}

func (m *MockAmortizationRepository) FindByAccountStatus(ctx context.Context, companyID, accountStatusID uuid.UUID) ([]*finance.Amortization, error) {
	args := m.Called(ctx, companyID, accountStatusID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.Amortization), args.Error(1)
}

func (m *MockAmortizationRepository) SumUnapplied(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) (map[valueobject.Currency]decimal.Decimal, error) {
	args := m.Called(ctx, companyID, flow, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[valueobject.Currency]decimal.Decimal), args.Error(1)
}

func (m *MockAmortizationRepository) Create(ctx context.Context, amortization *finance.Amortization) error {
	args := m.Called(ctx, amortization)
	return args.Error(0)
}

func (m *MockAmortizationRepository) SaveWithLock(ctx context.Context, amortization *finance.Amortization) error {
	args := m.Called(ctx, amortization)
	return args.Error(0)
}

type MockCashAccountRepository struct {
	mock.Mock
}

func (m *MockCashAccountRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.CashAccount, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.CashAccount), args.Error(1)
}

func (m *MockCashAccountRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.CashAccountFilter) ([]*finance.CashAccount, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*finance.CashAccount), args.Get(1).(int64), args.Error(2)
}

func (m *MockCashAccountRepository) Create(ctx context.Context, account *finance.CashAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockCashAccountRepository) SaveWithLock(ctx context.Context, account *finance.CashAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type MockCashTransactionRepository struct {
	mock.Mock
}

func (m *MockCashTransactionRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*finance.CashTransaction, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.CashTransaction), args.Error(1)
}

func (m *MockCashTransactionRepository) FindByAmortization(ctx context.Context, companyID, amortizationID uuid.UUID) ([]*finance.CashTransaction, error) {
	args := m.Called(ctx, companyID, amortizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*finance.CashTransaction), args.Error(1)
}

func (m *MockCashTransactionRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter finance.CashTransactionFilter) ([]*finance.CashTransaction, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*finance.CashTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockCashTransactionRepository) Create(ctx context.Context, transactions ...*finance.CashTransaction) error {
	args := m.Called(ctx, transactions)
	return args.Error(0)
}

func (m *MockCashTransactionRepository) Save(ctx context.Context, transaction *finance.CashTransaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

// =============================================================================
// Mock ports
// =============================================================================

// passthroughTx runs fn directly; it records how many transactions were opened
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

// recordingOutbox keeps every saved event in memory
type recordingOutbox struct {
	events []shared.DomainEvent
	err    error
}

func (o *recordingOutbox) SaveEvents(_ context.Context, events ...shared.DomainEvent) error {
	if o.err != nil {
		return o.err
	}
	o.events = append(o.events, events...)
	return nil
}

func (o *recordingOutbox) types() []string {
	types := make([]string, len(o.events))
	for i, e := range o.events {
		types[i] = e.EventType()
	}
	return types
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

type MockStatementCache struct {
	mock.Mock
}

func (m *MockStatementCache) Get(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) (*PartnerStatement, bool, error) {
	args := m.Called(ctx, companyID, flow, partnerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*PartnerStatement), args.Bool(1), args.Error(2)
}

func (m *MockStatementCache) Set(ctx context.Context, statement *PartnerStatement) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

func (m *MockStatementCache) Invalidate(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) error {
	args := m.Called(ctx, companyID, flow, partnerID)
	return args.Error(0)
}

// =============================================================================
// Fixtures
// =============================================================================

var (
	companyID = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
	partnerID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openInvoice(total string, due *time.Time) *finance.AccountStatus {
	return newDocument(finance.DocumentTypeInvoice, total, due)
}

func newDocument(docType finance.DocumentType, total string, due *time.Time) *finance.AccountStatus {
	s, err := finance.NewAccountStatus(companyID, finance.DocumentInfo{
		Flow:           finance.FlowReceivable,
		Country:        finance.CountryPeru,
		DocumentType:   docType,
		DocumentID:     uuid.New(),
		DocumentNumber: "F001-" + uuid.NewString()[:6],
		PartnerID:      partnerID,
		Currency:       valueobject.PEN,
		TotalAmount:    dec(total),
		IssueDate:      time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		DueDate:        due,
	})
	if err != nil {
		panic(err)
	}
	s.ClearDomainEvents()
	return s
}

func newAccount(kind finance.CashAccountKind, balance string) *finance.CashAccount {
	a, err := finance.NewCashAccount(companyID, kind, "Caja 1", valueobject.PEN)
	if err != nil {
		panic(err)
	}
	a.Balance = dec(balance)
	return a
}

func noRelease(context.Context) error { return nil }
