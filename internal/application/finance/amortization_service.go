package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPartnerLockTTL = 15 * time.Second

// AmortizationService records payments against sale and purchase documents.
// Writes for one company+partner are serialized through the Locker and run in a single transaction.
type AmortizationService struct {
	statusRepo       finance.AccountStatusRepository
	amortizationRepo finance.AmortizationRepository
	accountRepo      finance.CashAccountRepository
	transactionRepo  finance.CashTransactionRepository
	txManager        TxManager
	locker           Locker
	outbox           shared.OutboxEventSaver
	thresholds       finance.BankingThresholds
	lockTTL          time.Duration
	recorder         BillingRecorder
	logger           *zap.Logger
	now              func() time.Time
}

// AmortizationServiceOption is a functional option for configuring AmortizationService
type AmortizationServiceOption func(*AmortizationService)

// WithBankingThresholds overrides the statutory banking thresholds
func WithBankingThresholds(thresholds finance.BankingThresholds) AmortizationServiceOption {
	return func(s *AmortizationService) {
		if thresholds != nil {
			s.thresholds = thresholds
		}
	}
}

// WithPartnerLockTTL sets how long a partner lock is held at most
func WithPartnerLockTTL(ttl time.Duration) AmortizationServiceOption {
	return func(s *AmortizationService) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithBillingRecorder sets the metrics recorder
func WithBillingRecorder(recorder BillingRecorder) AmortizationServiceOption {
	return func(s *AmortizationService) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithAmortizationLogger sets the logger
func WithAmortizationLogger(logger *zap.Logger) AmortizationServiceOption {
	return func(s *AmortizationService) {
		s.logger = logger
	}
}

// WithAmortizationClock overrides the clock used for reversal dates
func WithAmortizationClock(now func() time.Time) AmortizationServiceOption {
	return func(s *AmortizationService) {
		s.now = now
	}
}

// NewAmortizationService creates a new AmortizationService
func NewAmortizationService(
	statusRepo finance.AccountStatusRepository,
	amortizationRepo finance.AmortizationRepository,
	accountRepo finance.CashAccountRepository,
	transactionRepo finance.CashTransactionRepository,
	txManager TxManager,
	locker Locker,
	outbox shared.OutboxEventSaver,
	opts ...AmortizationServiceOption,
) *AmortizationService {
	s := &AmortizationService{
		statusRepo:       statusRepo,
		amortizationRepo: amortizationRepo,
		accountRepo:      accountRepo,
		transactionRepo:  transactionRepo,
		txManager:        txManager,
		locker:           locker,
		outbox:           outbox,
		thresholds:       finance.DefaultBankingThresholds(),
		lockTTL:          defaultPartnerLockTTL,
		recorder:         noopRecorder{},
		logger:           zap.NewNop(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// amortizationInput is the mode-independent shape of a create request
type amortizationInput struct {
	companyID   uuid.UUID
	mode        finance.AmortizationMode
	flow        string
	partnerID   uuid.UUID
	currency    string
	paymentDate time.Time
	legs        []PaymentLegRequest
	details     []DetailRequest
	documentIDs []uuid.UUID
	reference   string
	notes       string
	createdBy   *uuid.UUID
}

// Create settles explicit documents with one payment leg
func (s *AmortizationService) Create(ctx context.Context, companyID uuid.UUID, req CreateAmortizationRequest) (*AmortizationResponse, error) {
	return s.create(ctx, amortizationInput{
		companyID:   companyID,
		mode:        finance.AmortizationModeSingle,
		flow:        req.Flow,
		partnerID:   req.PartnerID,
		currency:    req.Currency,
		paymentDate: req.PaymentDate,
		legs:        []PaymentLegRequest{req.Payment},
		details:     req.Details,
		reference:   req.Reference,
		notes:       req.Notes,
		createdBy:   req.CreatedBy,
	})
}

// CreateFree spreads one payment leg over the partner's open documents, earliest due first.
// Whatever is left is kept on the amortization as an unapplied advance.
func (s *AmortizationService) CreateFree(ctx context.Context, companyID uuid.UUID, req CreateFreeAmortizationRequest) (*AmortizationResponse, error) {
	return s.create(ctx, amortizationInput{
		companyID:   companyID,
		mode:        finance.AmortizationModeFree,
		flow:        req.Flow,
		partnerID:   req.PartnerID,
		currency:    req.Currency,
		paymentDate: req.PaymentDate,
		legs:        []PaymentLegRequest{req.Payment},
		documentIDs: req.DocumentIDs,
		reference:   req.Reference,
		notes:       req.Notes,
		createdBy:   req.CreatedBy,
	})
}

// CreateMultiTransactions settles explicit documents with several payment legs.
// The legs must add up to exactly the amounts settled.
func (s *AmortizationService) CreateMultiTransactions(ctx context.Context, companyID uuid.UUID, req CreateMultiAmortizationRequest) (*AmortizationResponse, error) {
	return s.create(ctx, amortizationInput{
		companyID:   companyID,
		mode:        finance.AmortizationModeMulti,
		flow:        req.Flow,
		partnerID:   req.PartnerID,
		currency:    req.Currency,
		paymentDate: req.PaymentDate,
		legs:        req.Payments,
		details:     req.Details,
		reference:   req.Reference,
		notes:       req.Notes,
		createdBy:   req.CreatedBy,
	})
}

// writeSet collects everything an amortization touches so it can be persisted at once
type writeSet struct {
	documents    []*finance.AccountStatus
	creditNotes  []*finance.AccountStatus
	accounts     map[uuid.UUID]*finance.CashAccount
	accountOrder []uuid.UUID
	transactions []*finance.CashTransaction
	voided       []*finance.CashTransaction
}

func newWriteSet() *writeSet {
	return &writeSet{accounts: make(map[uuid.UUID]*finance.CashAccount)}
}

func (s *AmortizationService) create(ctx context.Context, in amortizationInput) (*AmortizationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "amortization", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCompanyID, in.companyID.String(),
		telemetry.SpanAttrPartnerID, in.partnerID.String(),
		telemetry.SpanAttrFlow, in.flow,
		telemetry.SpanAttrMode, string(in.mode),
	)

	flow := finance.AccountFlow(in.flow)
	if !flow.IsValid() {
		return nil, shared.NewDomainError("INVALID_FLOW", fmt.Sprintf("Invalid account flow: %s", in.flow))
	}
	currency, err := valueobject.ParseCurrency(in.currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	if len(in.legs) == 0 {
		return nil, shared.NewDomainError("NO_PAYMENTS", "At least one payment leg is required")
	}

	release, err := s.locker.Obtain(ctx, partnerLockKey(in.companyID, flow, in.partnerID), s.lockTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release partner lock", zap.Error(err))
		}
	}()

	var amortization *finance.Amortization
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		a, err := finance.NewAmortization(in.companyID, flow, in.partnerID, in.mode, currency, in.paymentDate)
		if err != nil {
			return err
		}
		a.SetReference(in.reference, in.notes)
		if in.createdBy != nil {
			a.SetCreatedBy(*in.createdBy)
		}

		ws := newWriteSet()
		cashPayments, err := s.addPayments(ctx, a, in.legs, ws)
		if err != nil {
			return err
		}

		if in.mode == finance.AmortizationModeFree {
			err = s.applyFIFO(ctx, a, in.documentIDs, ws)
		} else {
			err = s.applyManual(ctx, a, in.details, ws)
		}
		if err != nil {
			return err
		}

		if err := a.EnforceBanking(s.thresholds, ws.documents); err != nil {
			return err
		}
		if err := a.Finalize(); err != nil {
			return err
		}

		for _, paymentID := range cashPayments {
			if err := s.recordCashLeg(a, paymentID, ws); err != nil {
				return err
			}
		}

		if err := s.amortizationRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to save amortization: %w", err)
		}
		if err := s.persist(ctx, ws); err != nil {
			return err
		}
		if err := s.flushEvents(ctx, a, ws); err != nil {
			return err
		}
		amortization = a
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recorder.RecordAmortization(ctx, in.companyID, flow, in.mode, amortization.Amount)
	telemetry.AddEvent(span, "amortization_created",
		telemetry.SpanAttrAmortizationID, amortization.ID.String(),
		telemetry.SpanAttrAmount, amortization.Amount.String(),
	)
	s.logger.Info("amortization created",
		zap.String("company_id", in.companyID.String()),
		zap.String("amortization_id", amortization.ID.String()),
		zap.String("mode", string(in.mode)),
		zap.String("amount", amortization.Amount.StringFixed(valueobject.Scale)),
		zap.String("unapplied", amortization.UnappliedAmount.StringFixed(valueobject.Scale)),
		zap.Int("documents", len(amortization.Details)),
	)

	resp := ToAmortizationResponse(amortization)
	return &resp, nil
}

// addPayments adds every leg and returns the IDs of the legs that move a cash account
func (s *AmortizationService) addPayments(ctx context.Context, a *finance.Amortization, legs []PaymentLegRequest, ws *writeSet) ([]uuid.UUID, error) {
	cashPayments := make([]uuid.UUID, 0, len(legs))
	for _, leg := range legs {
		method := finance.PaymentMethod(leg.Method)
		if !method.IsValid() {
			return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Invalid payment method: %s", leg.Method))
		}

		if !method.MovesCash() {
			if leg.CreditNoteID == nil {
				return nil, shared.NewDomainError("INVALID_CREDIT_NOTE", "Credit note payments require credit_note_id")
			}
			note, err := s.statusRepo.FindByID(ctx, a.CompanyID, *leg.CreditNoteID)
			if err != nil {
				return nil, err
			}
			if _, err := a.AddCreditNotePayment(note, leg.Amount); err != nil {
				return nil, err
			}
			ws.creditNotes = append(ws.creditNotes, note)
			continue
		}

		if leg.CashAccountID == nil {
			return nil, shared.NewDomainError("INVALID_ACCOUNT", fmt.Sprintf("Payment method %s requires cash_account_id", method))
		}
		account, err := s.loadAccount(ctx, a.CompanyID, *leg.CashAccountID, ws)
		if err != nil {
			return nil, err
		}
		p, err := a.AddCashPayment(method, account, leg.Amount, leg.Reference)
		if err != nil {
			return nil, err
		}
		cashPayments = append(cashPayments, p.ID)
	}
	return cashPayments, nil
}

func (s *AmortizationService) applyManual(ctx context.Context, a *finance.Amortization, details []DetailRequest, ws *writeSet) error {
	if len(details) == 0 {
		return shared.NewDomainError("NO_DETAILS", "At least one document is required")
	}
	ids := make([]uuid.UUID, 0, len(details))
	requests := make([]finance.ManualAllocationRequest, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.AccountStatusID)
		requests = append(requests, finance.ManualAllocationRequest{TargetID: d.AccountStatusID, Amount: d.Amount})
	}

	statuses, err := s.statusRepo.FindByIDs(ctx, a.CompanyID, ids)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	byID := make(map[uuid.UUID]*finance.AccountStatus, len(statuses))
	for _, st := range statuses {
		byID[st.ID] = st
	}
	for _, id := range ids {
		st, ok := byID[id]
		if !ok {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Document %s not found", id))
		}
		if st.DocumentType.IsCreditNote() {
			return shared.NewDomainError("CREDIT_NOTE_NOT_AMORTIZABLE",
				fmt.Sprintf("Credit note %s cannot be amortized; use it as a payment", st.DocumentNumber))
		}
		if !st.Status.IsOpen() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Document %s is %s", st.DocumentNumber, st.Status))
		}
	}

	plan, err := finance.AllocateManual(requests, finance.TargetsFromStatuses(statuses))
	if err != nil {
		return err
	}
	return s.applyPlan(a, plan, byID, ws)
}

func (s *AmortizationService) applyFIFO(ctx context.Context, a *finance.Amortization, restrictTo []uuid.UUID, ws *writeSet) error {
	open, err := s.statusRepo.FindOpenByPartner(ctx, a.CompanyID, a.Flow, a.PartnerID, a.Currency)
	if err != nil {
		return fmt.Errorf("failed to load open documents: %w", err)
	}
	if len(restrictTo) > 0 {
		allowed := make(map[uuid.UUID]bool, len(restrictTo))
		for _, id := range restrictTo {
			allowed[id] = true
		}
		filtered := open[:0]
		for _, st := range open {
			if allowed[st.ID] {
				filtered = append(filtered, st)
				delete(allowed, st.ID)
			}
		}
		if len(allowed) > 0 {
			missing := make([]string, 0, len(allowed))
			for _, id := range restrictTo {
				if allowed[id] {
					missing = append(missing, id.String())
					delete(allowed, id)
				}
			}
			return shared.NewDomainError("NOT_FOUND",
				fmt.Sprintf("Documents are not open for this partner in %s: %s", a.Currency, strings.Join(missing, ", ")))
		}
		open = filtered
	}
	byID := make(map[uuid.UUID]*finance.AccountStatus, len(open))
	for _, st := range open {
		byID[st.ID] = st
	}

	plan, err := finance.AllocateFIFO(a.Amount, finance.TargetsFromStatuses(open))
	if err != nil {
		return err
	}
	return s.applyPlan(a, plan, byID, ws)
}

func (s *AmortizationService) applyPlan(a *finance.Amortization, plan *finance.AllocationPlan, byID map[uuid.UUID]*finance.AccountStatus, ws *writeSet) error {
	for _, alloc := range plan.Allocations {
		st := byID[alloc.TargetID]
		if _, err := a.ApplyTo(st, alloc.Amount); err != nil {
			return err
		}
		ws.documents = append(ws.documents, st)
	}
	return nil
}

func (s *AmortizationService) recordCashLeg(a *finance.Amortization, paymentID uuid.UUID, ws *writeSet) error {
	var payment *finance.AmortizationPayment
	for i := range a.Payments {
		if a.Payments[i].ID == paymentID {
			payment = &a.Payments[i]
			break
		}
	}
	if payment == nil || payment.CashAccountID == nil {
		return shared.NewDomainError("INVALID_STATE", "Payment leg not found")
	}
	account := ws.accounts[*payment.CashAccountID]

	reference := payment.Reference
	if reference == "" {
		reference = a.Reference
	}
	tx, err := account.Record(a.Flow.CashDirection(), finance.TransactionOriginAmortization,
		payment.Method, payment.Amount, a.PaymentDate, reference)
	if err != nil {
		return err
	}
	amortizationID := a.ID
	tx.AmortizationID = &amortizationID
	tx.Description = fmt.Sprintf("%s %s", a.Flow.Label(), a.Mode)
	a.LinkTransaction(payment.ID, tx.ID)
	ws.transactions = append(ws.transactions, tx)
	return nil
}

// Cancel reverts everything an amortization did: documents get their due back, credit notes
// their credit, and every cash movement is voided and offset by a reversal.
func (s *AmortizationService) Cancel(ctx context.Context, companyID, id uuid.UUID, reason string) (*AmortizationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "amortization", "cancel")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrAmortizationID, id.String())

	current, err := s.amortizationRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	release, err := s.locker.Obtain(ctx, partnerLockKey(companyID, current.Flow, current.PartnerID), s.lockTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release partner lock", zap.Error(err))
		}
	}()

	var amortization *finance.Amortization
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		a, err := s.amortizationRepo.FindByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if err := a.Cancel(reason); err != nil {
			return err
		}

		ws := newWriteSet()
		if err := s.revertDocuments(ctx, a, ws); err != nil {
			return err
		}
		if err := s.reverseCash(ctx, a, reason, ws); err != nil {
			return err
		}

		if err := s.amortizationRepo.SaveWithLock(ctx, a); err != nil {
			return fmt.Errorf("failed to save amortization: %w", err)
		}
		if err := s.persist(ctx, ws); err != nil {
			return err
		}
		if err := s.flushEvents(ctx, a, ws); err != nil {
			return err
		}
		amortization = a
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recorder.RecordAmortizationCancelled(ctx, companyID, amortization.Flow)
	s.logger.Info("amortization cancelled",
		zap.String("company_id", companyID.String()),
		zap.String("amortization_id", amortization.ID.String()),
		zap.String("reason", amortization.CancelReason),
	)
	resp := ToAmortizationResponse(amortization)
	return &resp, nil
}

func (s *AmortizationService) revertDocuments(ctx context.Context, a *finance.Amortization, ws *writeSet) error {
	ids := append(a.DocumentIDs(), a.CreditNoteIDs()...)
	if len(ids) == 0 {
		return nil
	}
	statuses, err := s.statusRepo.FindByIDs(ctx, a.CompanyID, ids)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	byID := make(map[uuid.UUID]*finance.AccountStatus, len(statuses))
	for _, st := range statuses {
		byID[st.ID] = st
	}

	for _, d := range a.Details {
		st, ok := byID[d.AccountStatusID]
		if !ok {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Document %s not found", d.DocumentNumber))
		}
		if err := a.RevertDetail(d, st); err != nil {
			return err
		}
		ws.documents = append(ws.documents, st)
	}
	for _, p := range a.Payments {
		if p.CreditNoteID == nil {
			continue
		}
		note, ok := byID[*p.CreditNoteID]
		if !ok {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Credit note %s not found", p.Reference))
		}
		if err := a.RestoreCreditNote(p, note); err != nil {
			return err
		}
		ws.creditNotes = append(ws.creditNotes, note)
	}
	return nil
}

func (s *AmortizationService) reverseCash(ctx context.Context, a *finance.Amortization, reason string, ws *writeSet) error {
	transactions, err := s.transactionRepo.FindByAmortization(ctx, a.CompanyID, a.ID)
	if err != nil {
		return fmt.Errorf("failed to load cash transactions: %w", err)
	}
	date := s.now()
	for _, tx := range transactions {
		if tx.Origin != finance.TransactionOriginAmortization || tx.Status != finance.TransactionStateActive {
			continue
		}
		account, err := s.loadAccount(ctx, a.CompanyID, tx.CashAccountID, ws)
		if err != nil {
			return err
		}
		reversal, err := account.Reverse(tx, date, reason)
		if err != nil {
			return err
		}
		ws.voided = append(ws.voided, tx)
		ws.transactions = append(ws.transactions, reversal)
	}
	return nil
}

// GetByID returns one amortization with its details and payments
func (s *AmortizationService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*AmortizationResponse, error) {
	a, err := s.amortizationRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := ToAmortizationResponse(a)
	return &resp, nil
}

// List returns a page of amortizations and the total count
func (s *AmortizationService) List(ctx context.Context, companyID uuid.UUID, filter AmortizationListFilter) ([]AmortizationResponse, int64, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "payment_date"
	}
	domainFilter := finance.AmortizationFilter{
		Filter:    toFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		PartnerID: filter.PartnerID,
		From:      filter.From,
		To:        filter.To,
	}
	if filter.Flow != "" {
		flow := finance.AccountFlow(filter.Flow)
		domainFilter.Flow = &flow
	}
	if filter.Status != "" {
		st := finance.AmortizationState(filter.Status)
		domainFilter.Status = &st
	}
	if filter.Mode != "" {
		mode := finance.AmortizationMode(filter.Mode)
		domainFilter.Mode = &mode
	}

	amortizations, total, err := s.amortizationRepo.FindAll(ctx, companyID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	items := make([]AmortizationResponse, len(amortizations))
	for i, a := range amortizations {
		items[i] = ToAmortizationResponse(a)
	}
	return items, total, nil
}

// ListByDocument returns the amortizations that touched a document
func (s *AmortizationService) ListByDocument(ctx context.Context, companyID, accountStatusID uuid.UUID) ([]AmortizationResponse, error) {
	amortizations, err := s.amortizationRepo.FindByAccountStatus(ctx, companyID, accountStatusID)
	if err != nil {
		return nil, err
	}
	items := make([]AmortizationResponse, len(amortizations))
	for i, a := range amortizations {
		items[i] = ToAmortizationResponse(a)
	}
	return items, nil
}

func (s *AmortizationService) loadAccount(ctx context.Context, companyID, id uuid.UUID, ws *writeSet) (*finance.CashAccount, error) {
	if account, ok := ws.accounts[id]; ok {
		return account, nil
	}
	account, err := s.accountRepo.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	ws.accounts[id] = account
	ws.accountOrder = append(ws.accountOrder, id)
	return account, nil
}

func (s *AmortizationService) persist(ctx context.Context, ws *writeSet) error {
	for _, st := range ws.documents {
		if err := s.statusRepo.SaveWithLock(ctx, st); err != nil {
			return fmt.Errorf("failed to save document %s: %w", st.DocumentNumber, err)
		}
	}
	for _, note := range ws.creditNotes {
		if err := s.statusRepo.SaveWithLock(ctx, note); err != nil {
			return fmt.Errorf("failed to save credit note %s: %w", note.DocumentNumber, err)
		}
	}
	for _, id := range ws.accountOrder {
		if err := s.accountRepo.SaveWithLock(ctx, ws.accounts[id]); err != nil {
			return fmt.Errorf("failed to save cash account: %w", err)
		}
	}
	for _, tx := range ws.voided {
		if err := s.transactionRepo.Save(ctx, tx); err != nil {
			return fmt.Errorf("failed to void cash transaction: %w", err)
		}
	}
	if len(ws.transactions) > 0 {
		if err := s.transactionRepo.Create(ctx, ws.transactions...); err != nil {
			return fmt.Errorf("failed to save cash transactions: %w", err)
		}
	}
	return nil
}

func (s *AmortizationService) flushEvents(ctx context.Context, a *finance.Amortization, ws *writeSet) error {
	aggregates := make([]shared.AggregateRoot, 0, 1+len(ws.documents)+len(ws.creditNotes))
	aggregates = append(aggregates, a)
	for _, st := range ws.documents {
		aggregates = append(aggregates, st)
	}
	for _, note := range ws.creditNotes {
		aggregates = append(aggregates, note)
	}
	if err := saveEvents(ctx, s.outbox, aggregates...); err != nil {
		return err
	}

	if len(ws.transactions) == 0 {
		return nil
	}
	events := make([]shared.DomainEvent, len(ws.transactions))
	for i, tx := range ws.transactions {
		events[i] = finance.NewCashTransactionRecordedEvent(tx)
	}
	if err := s.outbox.SaveEvents(ctx, events...); err != nil {
		return fmt.Errorf("failed to save domain events: %w", err)
	}
	return nil
}

func partnerLockKey(companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) string {
	return fmt.Sprintf("billing:amortization:%s:%s:%s", companyID, flow, partnerID)
}
