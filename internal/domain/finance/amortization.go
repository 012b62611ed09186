package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmortizationMode is how an amortization was built
type AmortizationMode string

const (
	// AmortizationModeSingle settles explicit documents with one payment leg
	AmortizationModeSingle AmortizationMode = "SINGLE"
	// AmortizationModeFree spreads a free amount over open documents, oldest due first
	AmortizationModeFree AmortizationMode = "FREE"
	// AmortizationModeMulti settles explicit documents with several payment legs
	AmortizationModeMulti AmortizationMode = "MULTI"
)

// IsValid checks if the mode is valid
func (m AmortizationMode) IsValid() bool {
	switch m {
	case AmortizationModeSingle, AmortizationModeFree, AmortizationModeMulti:
		return true
	}
	return false
}

// AmortizationState is the lifecycle of an amortization
type AmortizationState string

const (
	AmortizationStateActive    AmortizationState = "ACTIVE"
	AmortizationStateCancelled AmortizationState = "CANCELLED"
)

// AmortizationDetail is the amount one amortization applied to one document
type AmortizationDetail struct {
	ID              uuid.UUID
	AmortizationID  uuid.UUID
	AccountStatusID uuid.UUID
	DocumentNumber  string
	Amount          decimal.Decimal
	DueBefore       decimal.Decimal
	DueAfter        decimal.Decimal
}

// AmortizationPayment is one payment leg of an amortization.
// Cash legs move a cash account; credit-note legs consume a credit note's balance.
type AmortizationPayment struct {
	ID                uuid.UUID
	AmortizationID    uuid.UUID
	Method            PaymentMethod
	CashAccountID     *uuid.UUID
	CreditNoteID      *uuid.UUID
	Amount            decimal.Decimal
	Reference         string
	CashTransactionID *uuid.UUID
}

// Amortization records a payment received from a customer or made to a supplier and how
// it was applied to that partner's documents.
// Invariants: Amount = Σ payments, AppliedAmount = Σ details, UnappliedAmount = Amount - AppliedAmount >= 0,
// and only FREE amortizations may leave an unapplied amount.
type Amortization struct {
	shared.CompanyAggregateRoot
	Flow            AccountFlow
	PartnerID       uuid.UUID
	Mode            AmortizationMode
	Currency        valueobject.Currency
	Amount          decimal.Decimal
	AppliedAmount   decimal.Decimal
	UnappliedAmount decimal.Decimal
	PaymentDate     time.Time
	Reference       string
	Notes           string
	Status          AmortizationState
	CancelledAt     *time.Time
	CancelReason    string
	Details         []AmortizationDetail
	Payments        []AmortizationPayment
}

// NewAmortization starts an amortization; payments and details are added before Finalize
func NewAmortization(companyID uuid.UUID, flow AccountFlow, partnerID uuid.UUID, mode AmortizationMode, currency valueobject.Currency, paymentDate time.Time) (*Amortization, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !flow.IsValid() {
		return nil, shared.NewDomainError("INVALID_FLOW", fmt.Sprintf("Invalid account flow: %s", flow))
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_MODE", fmt.Sprintf("Invalid amortization mode: %s", mode))
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency: %s", currency))
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	return &Amortization{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Flow:                 flow,
		PartnerID:            partnerID,
		Mode:                 mode,
		Currency:             currency,
		Amount:               decimal.Zero,
		AppliedAmount:        decimal.Zero,
		UnappliedAmount:      decimal.Zero,
		PaymentDate:          paymentDate,
		Status:               AmortizationStateActive,
		Details:              make([]AmortizationDetail, 0),
		Payments:             make([]AmortizationPayment, 0),
	}, nil
}

// SetReference sets the operation number and notes
func (a *Amortization) SetReference(reference, notes string) {
	a.Reference = strings.TrimSpace(reference)
	a.Notes = strings.TrimSpace(notes)
}

// AddCashPayment adds a leg paid through a cash register or bank account
func (a *Amortization) AddCashPayment(method PaymentMethod, account *CashAccount, amount decimal.Decimal, reference string) (*AmortizationPayment, error) {
	if !method.IsValid() || !method.MovesCash() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Invalid cash payment method: %s", method))
	}
	if account == nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "A cash or bank account is required")
	}
	if !account.BelongsTo(a.CompanyID) {
		return nil, shared.NewDomainError("NOT_FOUND", "Cash account not found")
	}
	if err := account.Accepts(method, a.Currency); err != nil {
		return nil, err
	}
	accountID := account.ID
	return a.addPayment(AmortizationPayment{
		Method:        method,
		CashAccountID: &accountID,
		Amount:        amount,
		Reference:     strings.TrimSpace(reference),
	})
}

// AddCreditNotePayment adds a leg settled with the partner's credit note and consumes its balance
func (a *Amortization) AddCreditNotePayment(note *AccountStatus, amount decimal.Decimal) (*AmortizationPayment, error) {
	if note == nil || !note.DocumentType.IsCreditNote() {
		return nil, shared.NewDomainError("INVALID_CREDIT_NOTE", "Credit note payments require a credit note document")
	}
	if err := a.checkSameParty(note); err != nil {
		return nil, err
	}
	for _, p := range a.Payments {
		if p.CreditNoteID != nil && *p.CreditNoteID == note.ID {
			return nil, shared.NewDomainError("DUPLICATE_CREDIT_NOTE",
				fmt.Sprintf("Credit note %s is already used in this amortization", note.DocumentNumber))
		}
	}
	if err := a.canAddPayment(amount); err != nil {
		return nil, err
	}
	if err := note.Amortize(amount, a.ID); err != nil {
		return nil, err
	}
	noteID := note.ID
	return a.addPayment(AmortizationPayment{
		Method:       PaymentMethodCreditNote,
		CreditNoteID: &noteID,
		Amount:       amount,
		Reference:    note.DocumentNumber,
	})
}

func (a *Amortization) canAddPayment(amount decimal.Decimal) error {
	if a.Status != AmortizationStateActive {
		return shared.NewDomainError("INVALID_STATE", "Cannot add payments to a cancelled amortization")
	}
	if a.Mode != AmortizationModeMulti && len(a.Payments) > 0 {
		return shared.NewDomainError("SINGLE_PAYMENT_ONLY",
			fmt.Sprintf("%s amortizations accept exactly one payment leg", a.Mode))
	}
	return validateAmount(amount)
}

func (a *Amortization) addPayment(p AmortizationPayment) (*AmortizationPayment, error) {
	if err := a.canAddPayment(p.Amount); err != nil {
		return nil, err
	}
	p.ID = uuid.New()
	p.AmortizationID = a.ID
	a.Payments = append(a.Payments, p)
	a.Amount = a.Amount.Add(p.Amount)
	return &a.Payments[len(a.Payments)-1], nil
}

// ApplyTo amortizes the document and records the detail
func (a *Amortization) ApplyTo(s *AccountStatus, amount decimal.Decimal) (*AmortizationDetail, error) {
	if a.Status != AmortizationStateActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot apply a cancelled amortization")
	}
	if s.DocumentType.IsCreditNote() {
		return nil, shared.NewDomainError("CREDIT_NOTE_NOT_AMORTIZABLE",
			fmt.Sprintf("Credit note %s cannot be amortized; use it as a payment", s.DocumentNumber))
	}
	if err := a.checkSameParty(s); err != nil {
		return nil, err
	}
	for _, d := range a.Details {
		if d.AccountStatusID == s.ID {
			return nil, shared.NewDomainError("DUPLICATE_DOCUMENT",
				fmt.Sprintf("Document %s appears more than once", s.DocumentNumber))
		}
	}

	dueBefore := s.DueAmount
	if err := s.Amortize(amount, a.ID); err != nil {
		return nil, err
	}

	a.Details = append(a.Details, AmortizationDetail{
		ID:              uuid.New(),
		AmortizationID:  a.ID,
		AccountStatusID: s.ID,
		DocumentNumber:  s.DocumentNumber,
		Amount:          amount,
		DueBefore:       dueBefore,
		DueAfter:        s.DueAmount,
	})
	a.AppliedAmount = a.AppliedAmount.Add(amount)
	return &a.Details[len(a.Details)-1], nil
}

// EnforceBanking rejects cash legs when any settled document reaches the country's banking threshold
func (a *Amortization) EnforceBanking(thresholds BankingThresholds, documents []*AccountStatus) error {
	hasCash := false
	for _, p := range a.Payments {
		if p.Method == PaymentMethodCash {
			hasCash = true
			break
		}
	}
	if !hasCash {
		return nil
	}
	for _, doc := range documents {
		if thresholds.RequiresBanking(doc.Country, doc.Currency, doc.TotalAmount) {
			return shared.NewDomainError("BANKING_REQUIRED",
				fmt.Sprintf("Document %s totals %s; %s requires payment through the financial system",
					doc.DocumentNumber, doc.TotalMoney().String(), doc.Country.TaxAuthority()))
		}
	}
	return nil
}

// Finalize checks the amount invariants and raises the creation event
func (a *Amortization) Finalize() error {
	if len(a.Payments) == 0 {
		return shared.NewDomainError("NO_PAYMENTS", "Amortization has no payment legs")
	}
	if a.Mode != AmortizationModeFree && len(a.Details) == 0 {
		return shared.NewDomainError("NO_DETAILS", "Amortization does not settle any document")
	}

	total := decimal.Zero
	for _, p := range a.Payments {
		total = total.Add(p.Amount)
	}
	applied := decimal.Zero
	for _, d := range a.Details {
		applied = applied.Add(d.Amount)
	}
	if !total.Equal(a.Amount) || !applied.Equal(a.AppliedAmount) {
		return shared.NewDomainError("INVALID_STATE", "Amortization totals are inconsistent")
	}
	if applied.GreaterThan(total) {
		return shared.NewDomainError("AMOUNT_MISMATCH",
			fmt.Sprintf("Applied %s exceeds paid %s", applied.StringFixed(valueobject.Scale), total.StringFixed(valueobject.Scale)))
	}
	a.UnappliedAmount = total.Sub(applied)
	if a.Mode != AmortizationModeFree && !a.UnappliedAmount.IsZero() {
		return shared.NewDomainError("AMOUNT_MISMATCH",
			fmt.Sprintf("Payments total %s but documents settled total %s",
				total.StringFixed(valueobject.Scale), applied.StringFixed(valueobject.Scale)))
	}

	a.AddDomainEvent(NewAmortizationCreatedEvent(a))
	return nil
}

// LinkTransaction stores the cash transaction produced for a payment leg
func (a *Amortization) LinkTransaction(paymentID, transactionID uuid.UUID) {
	for i := range a.Payments {
		if a.Payments[i].ID == paymentID {
			id := transactionID
			a.Payments[i].CashTransactionID = &id
			return
		}
	}
}

// Cancel marks the amortization cancelled. The caller reverts documents,
// credit notes and cash movements through RevertDetail / RestoreCreditNote / CashAccount.Reverse.
func (a *Amortization) Cancel(reason string) error {
	if a.Status == AmortizationStateCancelled {
		return shared.NewDomainError("INVALID_STATE", "Amortization is already cancelled")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	now := time.Now()
	a.Status = AmortizationStateCancelled
	a.CancelledAt = &now
	a.CancelReason = reason
	a.Touch()

	a.AddDomainEvent(NewAmortizationCancelledEvent(a))
	return nil
}

// RevertDetail gives the detail's amount back to its document
func (a *Amortization) RevertDetail(d AmortizationDetail, s *AccountStatus) error {
	if d.AccountStatusID != s.ID {
		return shared.NewDomainError("INVALID_DOCUMENT", "Detail does not belong to this document")
	}
	return s.Revert(d.Amount, a.ID)
}

// RestoreCreditNote gives a credit-note leg's amount back to the credit note
func (a *Amortization) RestoreCreditNote(p AmortizationPayment, note *AccountStatus) error {
	if p.CreditNoteID == nil || *p.CreditNoteID != note.ID {
		return shared.NewDomainError("INVALID_CREDIT_NOTE", "Payment does not consume this credit note")
	}
	return note.Revert(p.Amount, a.ID)
}

// DocumentIDs returns the account statuses settled by this amortization
func (a *Amortization) DocumentIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.Details))
	for _, d := range a.Details {
		ids = append(ids, d.AccountStatusID)
	}
	return ids
}

// CreditNoteIDs returns the credit notes consumed by this amortization
func (a *Amortization) CreditNoteIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0)
	for _, p := range a.Payments {
		if p.CreditNoteID != nil {
			ids = append(ids, *p.CreditNoteID)
		}
	}
	return ids
}

func (a *Amortization) checkSameParty(s *AccountStatus) error {
	if !s.BelongsTo(a.CompanyID) {
		return shared.NewDomainError("NOT_FOUND", "Document not found")
	}
	if s.Flow != a.Flow {
		return shared.NewDomainError("FLOW_MISMATCH",
			fmt.Sprintf("Document %s is %s, amortization is %s", s.DocumentNumber, s.Flow, a.Flow))
	}
	if s.PartnerID != a.PartnerID {
		return shared.NewDomainError("PARTNER_MISMATCH",
			fmt.Sprintf("Document %s belongs to another partner", s.DocumentNumber))
	}
	if s.Currency != a.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH",
			fmt.Sprintf("Document %s is in %s, amortization is in %s", s.DocumentNumber, s.Currency, a.Currency))
	}
	return nil
}
