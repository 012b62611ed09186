package handler

import (
	"context"
	"time"

	"github.com/erp/billing/internal/application/event"
	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAccountStatusService struct {
	mock.Mock
}

func (m *MockAccountStatusService) RegisterDocument(ctx context.Context, companyID uuid.UUID, req appfinance.RegisterDocumentRequest) (*appfinance.AccountStatusResponse, error) {
	args := m.Called(ctx, companyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.AccountStatusResponse), args.Error(1)
}

func (m *MockAccountStatusService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*appfinance.AccountStatusResponse, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.AccountStatusResponse), args.Error(1)
}

func (m *MockAccountStatusService) List(ctx context.Context, companyID uuid.UUID, filter appfinance.AccountStatusListFilter) ([]appfinance.AccountStatusResponse, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appfinance.AccountStatusResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountStatusService) CancelDocument(ctx context.Context, companyID, id uuid.UUID, reason string) (*appfinance.AccountStatusResponse, error) {
	args := m.Called(ctx, companyID, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.AccountStatusResponse), args.Error(1)
}

func (m *MockAccountStatusService) GetPartnerStatement(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) (*appfinance.PartnerStatement, error) {
	args := m.Called(ctx, companyID, flow, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.PartnerStatement), args.Error(1)
}

type MockAmortizationService struct {
	mock.Mock
}

func (m *MockAmortizationService) amortization(args mock.Arguments) (*appfinance.AmortizationResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.AmortizationResponse), args.Error(1)
}

func (m *MockAmortizationService) Create(ctx context.Context, companyID uuid.UUID, req appfinance.CreateAmortizationRequest) (*appfinance.AmortizationResponse, error) {
	return m.amortization(m.Called(ctx, companyID, req))
}

func (m *MockAmortizationService) CreateFree(ctx context.Context, companyID uuid.UUID, req appfinance.CreateFreeAmortizationRequest) (*appfinance.AmortizationResponse, error) {
	return m.amortization(m.Called(ctx, companyID, req))
}

func (m *MockAmortizationService) CreateMultiTransactions(ctx context.Context, companyID uuid.UUID, req appfinance.CreateMultiAmortizationRequest) (*appfinance.AmortizationResponse, error) {
	return m.amortization(m.Called(ctx, companyID, req))
}

func (m *MockAmortizationService) Cancel(ctx context.Context, companyID, id uuid.UUID, reason string) (*appfinance.AmortizationResponse, error) {
	return m.amortization(m.Called(ctx, companyID, id, reason))
}

func (m *MockAmortizationService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*appfinance.AmortizationResponse, error) {
	return m.amortization(m.Called(ctx, companyID, id))
}

func (m *MockAmortizationService) List(ctx context.Context, companyID uuid.UUID, filter appfinance.AmortizationListFilter) ([]appfinance.AmortizationResponse, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appfinance.AmortizationResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockAmortizationService) ListByDocument(ctx context.Context, companyID, accountStatusID uuid.UUID) ([]appfinance.AmortizationResponse, error) {
	args := m.Called(ctx, companyID, accountStatusID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appfinance.AmortizationResponse), args.Error(1)
}

type MockCashService struct {
	mock.Mock
}

func (m *MockCashService) account(args mock.Arguments) (*appfinance.CashAccountResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.CashAccountResponse), args.Error(1)
}

func (m *MockCashService) CreateAccount(ctx context.Context, companyID uuid.UUID, req appfinance.CreateCashAccountRequest) (*appfinance.CashAccountResponse, error) {
	return m.account(m.Called(ctx, companyID, req))
}

func (m *MockCashService) GetAccount(ctx context.Context, companyID, id uuid.UUID) (*appfinance.CashAccountResponse, error) {
	return m.account(m.Called(ctx, companyID, id))
}

func (m *MockCashService) ListAccounts(ctx context.Context, companyID uuid.UUID, filter appfinance.CashAccountListFilter) ([]appfinance.CashAccountResponse, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appfinance.CashAccountResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockCashService) DeactivateAccount(ctx context.Context, companyID, id uuid.UUID) (*appfinance.CashAccountResponse, error) {
	return m.account(m.Called(ctx, companyID, id))
}

func (m *MockCashService) RecordMovement(ctx context.Context, companyID, accountID uuid.UUID, req appfinance.RecordMovementRequest) (*appfinance.CashTransactionResponse, error) {
	args := m.Called(ctx, companyID, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.CashTransactionResponse), args.Error(1)
}

func (m *MockCashService) ListTransactions(ctx context.Context, companyID, accountID uuid.UUID, filter appfinance.CashTransactionListFilter) ([]appfinance.CashTransactionResponse, int64, error) {
	args := m.Called(ctx, companyID, accountID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appfinance.CashTransactionResponse), args.Get(1).(int64), args.Error(2)
}

type MockOutboxService struct {
	mock.Mock
}

func (m *MockOutboxService) GetDeadLetterEntries(ctx context.Context, companyID uuid.UUID, filter event.OutboxFilter) (*event.OutboxListResult, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxListResult), args.Error(1)
}

func (m *MockOutboxService) GetEntry(ctx context.Context, companyID, id uuid.UUID) (*event.OutboxEntryDTO, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryDTO), args.Error(1)
}

func (m *MockOutboxService) RetryDeadEntry(ctx context.Context, companyID, id uuid.UUID) (*event.OutboxEntryDTO, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxEntryDTO), args.Error(1)
}

func (m *MockOutboxService) RetryAllDeadEntries(ctx context.Context, companyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxService) GetStats(ctx context.Context, companyID uuid.UUID) (*event.OutboxStatsDTO, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.OutboxStatsDTO), args.Error(1)
}

type MockSweepTrigger struct {
	mock.Mock
}

func (m *MockSweepTrigger) TriggerNow(ctx context.Context, asOf time.Time) (*appfinance.SweepSummary, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.SweepSummary), args.Error(1)
}
