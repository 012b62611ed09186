package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CashService manages cash registers, bank accounts and their manual movements
type CashService struct {
	accountRepo     finance.CashAccountRepository
	transactionRepo finance.CashTransactionRepository
	txManager       TxManager
	outbox          shared.OutboxEventSaver
	logger          *zap.Logger
}

// NewCashService creates a new CashService
func NewCashService(
	accountRepo finance.CashAccountRepository,
	transactionRepo finance.CashTransactionRepository,
	txManager TxManager,
	outbox shared.OutboxEventSaver,
	logger *zap.Logger,
) *CashService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		outbox:          outbox,
		logger:          logger,
	}
}

// CreateAccount creates a cash register or bank account
func (s *CashService) CreateAccount(ctx context.Context, companyID uuid.UUID, req CreateCashAccountRequest) (*CashAccountResponse, error) {
	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	account, err := finance.NewCashAccount(companyID, finance.CashAccountKind(req.Kind), req.Name, currency)
	if err != nil {
		return nil, err
	}
	if account.Kind == finance.CashAccountKindBank {
		if err := account.SetBankDetails(req.BankName, req.AccountNumber); err != nil {
			return nil, err
		}
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save cash account: %w", err)
	}
	resp := ToCashAccountResponse(account)
	return &resp, nil
}

// GetAccount returns one cash account
func (s *CashService) GetAccount(ctx context.Context, companyID, id uuid.UUID) (*CashAccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCashAccountResponse(account)
	return &resp, nil
}

// ListAccounts returns a page of cash accounts and the total count
func (s *CashService) ListAccounts(ctx context.Context, companyID uuid.UUID, filter CashAccountListFilter) ([]CashAccountResponse, int64, error) {
	domainFilter := finance.CashAccountFilter{
		Filter: toFilter(filter.Page, filter.PageSize, "name", "asc"),
		Active: filter.Active,
	}
	if filter.Kind != "" {
		kind := finance.CashAccountKind(filter.Kind)
		domainFilter.Kind = &kind
	}
	if filter.Currency != "" {
		cur := valueobject.Currency(filter.Currency)
		domainFilter.Currency = &cur
	}
	accounts, total, err := s.accountRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	items := make([]CashAccountResponse, len(accounts))
	for i, a := range accounts {
		items[i] = ToCashAccountResponse(a)
	}
	return items, total, nil
}

// DeactivateAccount closes an account for new movements
func (s *CashService) DeactivateAccount(ctx context.Context, companyID, id uuid.UUID) (*CashAccountResponse, error) {
	var account *finance.CashAccount
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.accountRepo.FindByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if err := account.Deactivate(); err != nil {
			return err
		}
		return s.accountRepo.SaveWithLock(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	resp := ToCashAccountResponse(account)
	return &resp, nil
}

// RecordMovement records a manual income or expense on an account
func (s *CashService) RecordMovement(ctx context.Context, companyID, accountID uuid.UUID, req RecordMovementRequest) (*CashTransactionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash", "record_movement")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCashAccountID, accountID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	method := finance.PaymentMethod(req.Method)
	if !method.IsValid() || !method.MovesCash() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Invalid cash payment method: %s", req.Method))
	}
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	var tx *finance.CashTransaction
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.FindByID(ctx, companyID, accountID)
		if err != nil {
			return err
		}
		if err := account.Accepts(method, account.Currency); err != nil {
			return err
		}
		tx, err = account.Record(finance.TransactionType(req.Type), finance.TransactionOriginManual, method, req.Amount, date, req.Reference)
		if err != nil {
			return err
		}
		tx.Description = req.Description

		if err := s.accountRepo.SaveWithLock(ctx, account); err != nil {
			return fmt.Errorf("failed to save cash account: %w", err)
		}
		if err := s.transactionRepo.Create(ctx, tx); err != nil {
			return fmt.Errorf("failed to save cash transaction: %w", err)
		}
		if err := s.outbox.SaveEvents(ctx, finance.NewCashTransactionRecordedEvent(tx)); err != nil {
			return fmt.Errorf("failed to save domain events: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("cash movement recorded",
		zap.String("company_id", companyID.String()),
		zap.String("cash_account_id", accountID.String()),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.StringFixed(valueobject.Scale)),
		zap.String("balance_after", tx.BalanceAfter.StringFixed(valueobject.Scale)),
	)
	resp := ToCashTransactionResponse(tx)
	return &resp, nil
}

// ListTransactions returns a page of an account's movements, newest first
func (s *CashService) ListTransactions(ctx context.Context, companyID, accountID uuid.UUID, filter CashTransactionListFilter) ([]CashTransactionResponse, int64, error) {
	if _, err := s.accountRepo.FindByID(ctx, companyID, accountID); err != nil {
		return nil, 0, err
	}
	domainFilter := finance.CashTransactionFilter{
		Filter:        toFilter(filter.Page, filter.PageSize, "transaction_date", "desc"),
		CashAccountID: &accountID,
		From:          filter.From,
		To:            filter.To,
	}
	if filter.Type != "" {
		t := finance.TransactionType(filter.Type)
		domainFilter.Type = &t
	}
	if filter.Origin != "" {
		o := finance.TransactionOrigin(filter.Origin)
		domainFilter.Origin = &o
	}
	txs, total, err := s.transactionRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	items := make([]CashTransactionResponse, len(txs))
	for i, t := range txs {
		items[i] = ToCashTransactionResponse(t)
	}
	return items, total, nil
}
