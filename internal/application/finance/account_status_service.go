package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountStatusService registers sale/purchase documents and reports their balances
type AccountStatusService struct {
	statusRepo       finance.AccountStatusRepository
	amortizationRepo finance.AmortizationRepository
	txManager        TxManager
	outbox           shared.OutboxEventSaver
	cache            StatementCache
	defaultCountry   finance.Country
	logger           *zap.Logger
	now              func() time.Time
}

// AccountStatusServiceOption is a functional option for configuring AccountStatusService
type AccountStatusServiceOption func(*AccountStatusService)

// WithStatementCache enables caching of partner statements
func WithStatementCache(cache StatementCache) AccountStatusServiceOption {
	return func(s *AccountStatusService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithDefaultCountry sets the jurisdiction of documents registered without one
func WithDefaultCountry(country finance.Country) AccountStatusServiceOption {
	return func(s *AccountStatusService) {
		s.defaultCountry = country
	}
}

// WithAccountStatusLogger sets the logger
func WithAccountStatusLogger(logger *zap.Logger) AccountStatusServiceOption {
	return func(s *AccountStatusService) {
		s.logger = logger
	}
}

// WithAccountStatusClock overrides the clock used for overdue computations
func WithAccountStatusClock(now func() time.Time) AccountStatusServiceOption {
	return func(s *AccountStatusService) {
		s.now = now
	}
}

// NewAccountStatusService creates a new AccountStatusService
func NewAccountStatusService(
	statusRepo finance.AccountStatusRepository,
	amortizationRepo finance.AmortizationRepository,
	txManager TxManager,
	outbox shared.OutboxEventSaver,
	opts ...AccountStatusServiceOption,
) *AccountStatusService {
	s := &AccountStatusService{
		statusRepo:       statusRepo,
		amortizationRepo: amortizationRepo,
		txManager:        txManager,
		outbox:           outbox,
		cache:            noopCache{},
		logger:           zap.NewNop(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterDocument opens the account status of a document
func (s *AccountStatusService) RegisterDocument(ctx context.Context, companyID uuid.UUID, req RegisterDocumentRequest) (*AccountStatusResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "account_status", "register")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCompanyID, companyID.String(),
		telemetry.SpanAttrDocumentNumber, req.DocumentNumber,
		telemetry.SpanAttrFlow, req.Flow,
	)

	var currency valueobject.Currency
	if req.Currency != "" {
		c, err := valueobject.ParseCurrency(req.Currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
		}
		currency = c
	}
	country := finance.Country(req.Country)
	if country == "" {
		country = s.defaultCountry
	}
	doc := finance.DocumentInfo{
		Flow:           finance.AccountFlow(req.Flow),
		Country:        country,
		DocumentType:   finance.DocumentType(req.DocumentType),
		DocumentID:     req.DocumentID,
		DocumentNumber: req.DocumentNumber,
		PartnerID:      req.PartnerID,
		PartnerName:    req.PartnerName,
		Currency:       currency,
		TotalAmount:    req.TotalAmount,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
	}

	var status *finance.AccountStatus
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		existing, err := s.statusRepo.FindByDocument(ctx, companyID, doc.Flow, doc.DocumentID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to check existing account status: %w", err)
		}
		if existing != nil {
			return shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("Document %s is already registered", existing.DocumentNumber))
		}

		status, err = finance.NewAccountStatus(companyID, doc)
		if err != nil {
			return err
		}
		if req.CreatedBy != nil {
			status.SetCreatedBy(*req.CreatedBy)
		}
		if err := s.statusRepo.Create(ctx, status); err != nil {
			return fmt.Errorf("failed to save account status: %w", err)
		}
		return s.flushEvents(ctx, status)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("document registered",
		zap.String("company_id", companyID.String()),
		zap.String("account_status_id", status.ID.String()),
		zap.String("document_number", status.DocumentNumber),
		zap.String("total", status.TotalAmount.StringFixed(valueobject.Scale)),
	)
	resp := ToAccountStatusResponse(status, s.now())
	return &resp, nil
}

// GetByID returns one account status
func (s *AccountStatusService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*AccountStatusResponse, error) {
	status, err := s.statusRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToAccountStatusResponse(status, s.now())
	return &resp, nil
}

// List returns a page of account statuses and the total count
func (s *AccountStatusService) List(ctx context.Context, companyID uuid.UUID, filter AccountStatusListFilter) ([]AccountStatusResponse, int64, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "issue_date"
	}
	domainFilter := finance.AccountStatusFilter{
		Filter:  toFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		Expired: filter.Expired,
		DueFrom: filter.DueFrom,
		DueTo:   filter.DueTo,
		Search:  filter.Search,
	}
	if filter.Flow != "" {
		flow := finance.AccountFlow(filter.Flow)
		domainFilter.Flow = &flow
	}
	if filter.PartnerID != nil {
		domainFilter.PartnerID = filter.PartnerID
	}
	if filter.Status != "" {
		st := finance.AccountStatusState(filter.Status)
		domainFilter.Status = &st
	}
	if filter.DocumentType != "" {
		dt := finance.DocumentType(filter.DocumentType)
		domainFilter.DocumentType = &dt
	}

	statuses, total, err := s.statusRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	items := make([]AccountStatusResponse, len(statuses))
	for i, st := range statuses {
		items[i] = ToAccountStatusResponse(st, now)
	}
	return items, total, nil
}

// CancelDocument voids a document that has no amortizations
func (s *AccountStatusService) CancelDocument(ctx context.Context, companyID, id uuid.UUID, reason string) (*AccountStatusResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "account_status", "cancel")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAccountStatusID, id.String())

	var status *finance.AccountStatus
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		status, err = s.statusRepo.FindByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if err := status.Cancel(reason); err != nil {
			return err
		}
		if err := s.statusRepo.SaveWithLock(ctx, status); err != nil {
			return fmt.Errorf("failed to save account status: %w", err)
		}
		return s.flushEvents(ctx, status)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToAccountStatusResponse(status, s.now())
	return &resp, nil
}

// GetPartnerStatement returns the partner's balances per currency and open documents.
// Statements are served from the cache when present.
func (s *AccountStatusService) GetPartnerStatement(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) (*PartnerStatement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "account_status", "partner_statement")
	defer span.End()

	if !flow.IsValid() {
		return nil, shared.NewDomainError("INVALID_FLOW", fmt.Sprintf("Invalid account flow: %s", flow))
	}

	if cached, ok, err := s.cache.Get(ctx, companyID, flow, partnerID); err != nil {
		s.logger.Warn("statement cache read failed", zap.Error(err))
	} else if ok {
		telemetry.SetAttribute(span, "cache_hit", true)
		return cached, nil
	}

	now := s.now()
	balances, err := s.statusRepo.SummarizeByPartner(ctx, companyID, flow, partnerID, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to summarize partner balance: %w", err)
	}
	unapplied, err := s.amortizationRepo.SumUnapplied(ctx, companyID, flow, partnerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sum unapplied amortizations: %w", err)
	}

	statement := &PartnerStatement{
		CompanyID:   companyID,
		Flow:        string(flow),
		PartnerID:   partnerID,
		Balances:    make([]PartnerBalanceDTO, 0, len(balances)),
		Documents:   make([]AccountStatusResponse, 0),
		GeneratedAt: now,
	}
	seen := make(map[valueobject.Currency]bool, len(balances))
	for _, b := range balances {
		seen[b.Currency] = true
		statement.Balances = append(statement.Balances, toBalanceDTO(b, unapplied[b.Currency]))
	}
	// advances with no documents left in that currency
	for cur, amount := range unapplied {
		if !seen[cur] && amount.IsPositive() {
			statement.Balances = append(statement.Balances, toBalanceDTO(finance.PartnerBalance{
				Currency:      cur,
				TotalAmount:   decimal.Zero,
				PaidAmount:    decimal.Zero,
				DueAmount:     decimal.Zero,
				OverdueAmount: decimal.Zero,
				CreditAmount:  decimal.Zero,
			}, amount))
		}
	}

	for _, cur := range []valueobject.Currency{valueobject.PEN, valueobject.USD} {
		open, err := s.statusRepo.FindOpenByPartner(ctx, companyID, flow, partnerID, cur)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to load open documents: %w", err)
		}
		for _, st := range open {
			statement.Documents = append(statement.Documents, ToAccountStatusResponse(st, now))
		}
	}
	notes, err := s.statusRepo.FindOpenCreditNotes(ctx, companyID, flow, partnerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load open credit notes: %w", err)
	}
	for _, st := range notes {
		statement.Documents = append(statement.Documents, ToAccountStatusResponse(st, now))
	}

	if err := s.cache.Set(ctx, statement); err != nil {
		s.logger.Warn("statement cache write failed", zap.Error(err))
	}
	return statement, nil
}

func (s *AccountStatusService) flushEvents(ctx context.Context, aggregates ...shared.AggregateRoot) error {
	return saveEvents(ctx, s.outbox, aggregates...)
}

func toBalanceDTO(b finance.PartnerBalance, unapplied decimal.Decimal) PartnerBalanceDTO {
	return PartnerBalanceDTO{
		Currency:        string(b.Currency),
		DocumentCount:   b.DocumentCount,
		TotalAmount:     b.TotalAmount,
		PaidAmount:      b.PaidAmount,
		DueAmount:       b.DueAmount,
		OverdueAmount:   b.OverdueAmount,
		CreditAmount:    b.CreditAmount,
		UnappliedAmount: unapplied,
		NetDue:          b.DueAmount.Sub(b.CreditAmount).Sub(unapplied),
	}
}

// saveEvents writes the pending events of the aggregates to the outbox and clears them
func saveEvents(ctx context.Context, outbox shared.OutboxEventSaver, aggregates ...shared.AggregateRoot) error {
	events := make([]shared.DomainEvent, 0)
	for _, a := range aggregates {
		events = append(events, a.GetDomainEvents()...)
	}
	if len(events) == 0 {
		return nil
	}
	if err := outbox.SaveEvents(ctx, events...); err != nil {
		return fmt.Errorf("failed to save domain events: %w", err)
	}
	for _, a := range aggregates {
		a.ClearDomainEvents()
	}
	return nil
}
