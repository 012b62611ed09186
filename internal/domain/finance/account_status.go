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

// AccountFlow tells whether a document is collected from a customer or paid to a supplier
type AccountFlow string

const (
	FlowReceivable AccountFlow = "RECEIVABLE" // sales
	FlowPayable    AccountFlow = "PAYABLE"    // purchases
)

// IsValid checks if the flow is valid
func (f AccountFlow) IsValid() bool {
	return f == FlowReceivable || f == FlowPayable
}

// String returns the string representation
func (f AccountFlow) String() string {
	return string(f)
}

// CashDirection returns the movement an amortization of this flow produces in a cash account
func (f AccountFlow) CashDirection() TransactionType {
	if f == FlowPayable {
		return TransactionTypeExpense
	}
	return TransactionTypeIncome
}

// AccountStatusState represents the payment state of a document
type AccountStatusState string

const (
	AccountStatusPending   AccountStatusState = "PENDING"   // nothing paid
	AccountStatusPartial   AccountStatusState = "PARTIAL"   // 0 < paid < total
	AccountStatusPaid      AccountStatusState = "PAID"      // due = 0
	AccountStatusCancelled AccountStatusState = "CANCELLED" // document voided before any payment
)

// IsValid checks if the state is valid
func (s AccountStatusState) IsValid() bool {
	switch s {
	case AccountStatusPending, AccountStatusPartial, AccountStatusPaid, AccountStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s AccountStatusState) String() string {
	return string(s)
}

// IsOpen returns true while the document still has a due balance
func (s AccountStatusState) IsOpen() bool {
	return s == AccountStatusPending || s == AccountStatusPartial
}

// DocumentInfo describes the sale or purchase document an account status is opened for
type DocumentInfo struct {
	Flow           AccountFlow
	Country        Country
	DocumentType   DocumentType
	DocumentID     uuid.UUID
	DocumentNumber string
	PartnerID      uuid.UUID
	PartnerName    string
	Currency       valueobject.Currency
	TotalAmount    decimal.Decimal
	IssueDate      time.Time
	DueDate        *time.Time
}

// AccountStatus is the running due/paid balance of one sale or purchase document.
// Invariant: PaidAmount + DueAmount = TotalAmount, with 0 <= PaidAmount <= TotalAmount.
// For credit notes the due balance is the credit still available to consume.
type AccountStatus struct {
	shared.CompanyAggregateRoot
	Flow           AccountFlow
	Country        Country
	DocumentType   DocumentType
	DocumentID     uuid.UUID
	DocumentNumber string
	PartnerID      uuid.UUID
	PartnerName    string
	Currency       valueobject.Currency
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	DueAmount      decimal.Decimal
	IssueDate      time.Time
	DueDate        *time.Time
	Status         AccountStatusState
	Expired        bool
	ExpiredAt      *time.Time
	PaidAt         *time.Time
	CancelledAt    *time.Time
	CancelReason   string
}

// NewAccountStatus opens the account status of a document
func NewAccountStatus(companyID uuid.UUID, doc DocumentInfo) (*AccountStatus, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !doc.Flow.IsValid() {
		return nil, shared.NewDomainError("INVALID_FLOW", fmt.Sprintf("Invalid account flow: %s", doc.Flow))
	}
	if !doc.Country.IsValid() {
		return nil, shared.NewDomainError("INVALID_COUNTRY", fmt.Sprintf("Unsupported country: %s", doc.Country))
	}
	if !doc.DocumentType.IsValidFor(doc.Country) {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE",
			fmt.Sprintf("Document type %s cannot be issued under %s", doc.DocumentType, doc.Country.TaxAuthority()))
	}
	if doc.DocumentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document ID cannot be empty")
	}
	doc.DocumentNumber = strings.TrimSpace(doc.DocumentNumber)
	if doc.DocumentNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if doc.PartnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if doc.Currency == "" {
		doc.Currency = doc.Country.DefaultCurrency()
	}
	if !doc.Currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency: %s", doc.Currency))
	}
	if err := validateAmount(doc.TotalAmount); err != nil {
		return nil, err
	}
	if doc.IssueDate.IsZero() {
		doc.IssueDate = time.Now()
	}
	if doc.DueDate != nil && doc.DueDate.Before(truncateDay(doc.IssueDate)) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the issue date")
	}

	s := &AccountStatus{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Flow:                 doc.Flow,
		Country:              doc.Country,
		DocumentType:         doc.DocumentType,
		DocumentID:           doc.DocumentID,
		DocumentNumber:       doc.DocumentNumber,
		PartnerID:            doc.PartnerID,
		PartnerName:          doc.PartnerName,
		Currency:             doc.Currency,
		TotalAmount:          doc.TotalAmount,
		PaidAmount:           decimal.Zero,
		DueAmount:            doc.TotalAmount,
		IssueDate:            doc.IssueDate,
		DueDate:              doc.DueDate,
		Status:               AccountStatusPending,
	}

	s.AddDomainEvent(NewAccountStatusRegisteredEvent(s))
	return s, nil
}

// Amortize applies a payment to the document.
// The amortization ID ties the movement to the Amortization that produced it.
func (s *AccountStatus) Amortize(amount decimal.Decimal, amortizationID uuid.UUID) error {
	if !s.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot amortize document %s in %s status", s.DocumentNumber, s.Status))
	}
	if amortizationID == uuid.Nil {
		return shared.NewDomainError("INVALID_AMORTIZATION", "Amortization ID cannot be empty")
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(s.DueAmount) {
		return shared.NewDomainError("EXCEEDS_DUE",
			fmt.Sprintf("Amount %s exceeds due amount %s of document %s",
				amount.StringFixed(valueobject.Scale), s.DueAmount.StringFixed(valueobject.Scale), s.DocumentNumber))
	}

	s.PaidAmount = s.PaidAmount.Add(amount)
	s.DueAmount = s.TotalAmount.Sub(s.PaidAmount)
	s.Touch()

	s.AddDomainEvent(NewAccountStatusAmortizedEvent(s, amortizationID, amount))
	if s.DueAmount.IsZero() {
		now := time.Now()
		s.Status = AccountStatusPaid
		s.PaidAt = &now
		s.AddDomainEvent(NewAccountStatusPaidEvent(s))
	} else {
		s.Status = AccountStatusPartial
	}
	return nil
}

// Revert gives back an amount previously amortized, e.g. when the amortization is cancelled
func (s *AccountStatus) Revert(amount decimal.Decimal, amortizationID uuid.UUID) error {
	if s.Status == AccountStatusCancelled {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot revert amortization on cancelled document %s", s.DocumentNumber))
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(s.PaidAmount) {
		return shared.NewDomainError("EXCEEDS_PAID",
			fmt.Sprintf("Amount %s exceeds paid amount %s of document %s",
				amount.StringFixed(valueobject.Scale), s.PaidAmount.StringFixed(valueobject.Scale), s.DocumentNumber))
	}

	s.PaidAmount = s.PaidAmount.Sub(amount)
	s.DueAmount = s.TotalAmount.Sub(s.PaidAmount)
	s.PaidAt = nil
	if s.PaidAmount.IsZero() {
		s.Status = AccountStatusPending
	} else {
		s.Status = AccountStatusPartial
	}
	s.Touch()

	s.AddDomainEvent(NewAccountStatusRevertedEvent(s, amortizationID, amount))
	return nil
}

// Cancel voids the document's account status. Only documents without payments can be cancelled.
func (s *AccountStatus) Cancel(reason string) error {
	if s.Status == AccountStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Document is already cancelled")
	}
	if s.PaidAmount.IsPositive() {
		return shared.NewDomainError("HAS_AMORTIZATIONS",
			fmt.Sprintf("Document %s has amortizations; cancel them first", s.DocumentNumber))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	s.Status = AccountStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.Touch()

	s.AddDomainEvent(NewAccountStatusCancelledEvent(s))
	return nil
}

// MarkExpired flags an open document whose due date is before asOf's day.
// It returns false when nothing changed.
func (s *AccountStatus) MarkExpired(asOf time.Time) bool {
	if s.Expired || s.DocumentType.IsCreditNote() || !s.IsOverdue(asOf) {
		return false
	}
	s.Expired = true
	s.ExpiredAt = &asOf
	s.Touch()

	s.AddDomainEvent(NewAccountStatusExpiredEvent(s, asOf))
	return true
}

// IsOverdue reports whether the document still owes money after its due date.
// A document due today is not overdue until the next day.
func (s *AccountStatus) IsOverdue(asOf time.Time) bool {
	if !s.Status.IsOpen() || s.DueDate == nil {
		return false
	}
	return truncateDay(s.DueDate.In(asOf.Location())).Before(truncateDay(asOf))
}

// DaysOverdue returns whole days past the due date, 0 when not overdue
func (s *AccountStatus) DaysOverdue(asOf time.Time) int {
	if !s.IsOverdue(asOf) {
		return 0
	}
	return int(truncateDay(asOf).Sub(truncateDay(s.DueDate.In(asOf.Location()))).Hours() / 24)
}

// TaxCode returns the document's code at the tax authority
func (s *AccountStatus) TaxCode() string {
	code, _ := s.DocumentType.TaxCode(s.Country)
	return code
}

// TotalMoney returns the total as Money
func (s *AccountStatus) TotalMoney() valueobject.Money {
	return valueobject.MustMoney(s.TotalAmount, s.Currency)
}

// DueMoney returns the due balance as Money
func (s *AccountStatus) DueMoney() valueobject.Money {
	return valueobject.MustMoney(s.DueAmount, s.Currency)
}

// PaidMoney returns the paid amount as Money
func (s *AccountStatus) PaidMoney() valueobject.Money {
	return valueobject.MustMoney(s.PaidAmount, s.Currency)
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !amount.Equal(amount.Round(valueobject.Scale)) {
		return shared.NewDomainError("INVALID_AMOUNT",
			fmt.Sprintf("Amount %s has more than %d decimals", amount.String(), valueobject.Scale))
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
