package finance

import (
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Account statuses
// =============================================================================

// RegisterDocumentRequest opens the account status of a sale or purchase document
type RegisterDocumentRequest struct {
	Flow           string          `json:"flow" binding:"required,oneof=RECEIVABLE PAYABLE"`
	Country        string          `json:"country" binding:"omitempty,country"`
	DocumentType   string          `json:"document_type" binding:"required"`
	DocumentID     uuid.UUID       `json:"document_id" binding:"required"`
	DocumentNumber string          `json:"document_number" binding:"required,min=1,max=50"`
	PartnerID      uuid.UUID       `json:"partner_id" binding:"required"`
	PartnerName    string          `json:"partner_name" binding:"max=200"`
	Currency       string          `json:"currency" binding:"omitempty,len=3"`
	TotalAmount    decimal.Decimal `json:"total_amount" binding:"decimal_gt0"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        *time.Time      `json:"due_date"`
	CreatedBy      *uuid.UUID      `json:"-"`
}

// CancelRequest carries the reason of a cancellation
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AccountStatusListFilter represents filter options for account status lists
type AccountStatusListFilter struct {
	Flow         string     `form:"flow" binding:"omitempty,oneof=RECEIVABLE PAYABLE"`
	PartnerID    *uuid.UUID `form:"partner_id"`
	Status       string     `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID CANCELLED"`
	DocumentType string     `form:"document_type"`
	Expired      *bool      `form:"expired"`
	DueFrom      *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo        *time.Time `form:"due_to" time_format:"2006-01-02"`
	Search       string     `form:"search"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AccountStatusResponse represents a document account status in API responses
type AccountStatusResponse struct {
	ID             uuid.UUID       `json:"id"`
	CompanyID      uuid.UUID       `json:"company_id"`
	Flow           string          `json:"flow"`
	FlowLabel      string          `json:"flow_label"`
	Country        string          `json:"country"`
	DocumentType   string          `json:"document_type"`
	TaxCode        string          `json:"tax_code"`
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	PartnerID      uuid.UUID       `json:"partner_id"`
	PartnerName    string          `json:"partner_name"`
	Currency       string          `json:"currency"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	DueAmount      decimal.Decimal `json:"due_amount"`
	FormattedTotal string          `json:"formatted_total"`
	FormattedDue   string          `json:"formatted_due"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Status         string          `json:"status"`
	StatusLabel    string          `json:"status_label"`
	Expired        bool            `json:"expired"`
	DaysOverdue    int             `json:"days_overdue"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// ToAccountStatusResponse converts a domain AccountStatus, computing virtual fields as of asOf
func ToAccountStatusResponse(s *finance.AccountStatus, asOf time.Time) AccountStatusResponse {
	return AccountStatusResponse{
		ID:             s.ID,
		CompanyID:      s.CompanyID,
		Flow:           string(s.Flow),
		FlowLabel:      s.Flow.Label(),
		Country:        string(s.Country),
		DocumentType:   string(s.DocumentType),
		TaxCode:        s.TaxCode(),
		DocumentID:     s.DocumentID,
		DocumentNumber: s.DocumentNumber,
		PartnerID:      s.PartnerID,
		PartnerName:    s.PartnerName,
		Currency:       string(s.Currency),
		TotalAmount:    s.TotalAmount,
		PaidAmount:     s.PaidAmount,
		DueAmount:      s.DueAmount,
		FormattedTotal: s.FormattedTotal(),
		FormattedDue:   s.FormattedDue(),
		IssueDate:      s.IssueDate,
		DueDate:        s.DueDate,
		Status:         string(s.Status),
		StatusLabel:    s.StatusLabel(asOf),
		Expired:        s.Expired,
		DaysOverdue:    s.DaysOverdue(asOf),
		PaidAt:         s.PaidAt,
		CancelledAt:    s.CancelledAt,
		CancelReason:   s.CancelReason,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		Version:        s.Version,
	}
}

// PartnerStatement is the balance of one partner's documents
type PartnerStatement struct {
	CompanyID   uuid.UUID               `json:"company_id"`
	Flow        string                  `json:"flow"`
	PartnerID   uuid.UUID               `json:"partner_id"`
	Balances    []PartnerBalanceDTO     `json:"balances"`
	Documents   []AccountStatusResponse `json:"documents"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// PartnerBalanceDTO is one currency line of a partner statement
type PartnerBalanceDTO struct {
	Currency        string          `json:"currency"`
	DocumentCount   int64           `json:"document_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
	CreditAmount    decimal.Decimal `json:"credit_amount"`
	UnappliedAmount decimal.Decimal `json:"unapplied_amount"`
	NetDue          decimal.Decimal `json:"net_due"`
}

// =============================================================================
// Amortizations
// =============================================================================

// DetailRequest asks to settle amount of one document. A zero amount settles the whole due.
type DetailRequest struct {
	AccountStatusID uuid.UUID       `json:"account_status_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
}

// PaymentLegRequest is one payment leg.
// Cash legs name a cash account; CREDIT_NOTE legs name the credit note's account status.
type PaymentLegRequest struct {
	Method        string          `json:"method" binding:"required,oneof=CASH BANK_TRANSFER DEPOSIT CARD CHECK CREDIT_NOTE"`
	CashAccountID *uuid.UUID      `json:"cash_account_id"`
	CreditNoteID  *uuid.UUID      `json:"credit_note_id"`
	Amount        decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Reference     string          `json:"reference" binding:"max=100"`
}

// CreateAmortizationRequest settles explicit documents with one payment leg
type CreateAmortizationRequest struct {
	Flow        string            `json:"flow" binding:"required,oneof=RECEIVABLE PAYABLE"`
	PartnerID   uuid.UUID         `json:"partner_id" binding:"required"`
	Currency    string            `json:"currency" binding:"required,len=3"`
	PaymentDate time.Time         `json:"payment_date"`
	Payment     PaymentLegRequest `json:"payment"`
	Details     []DetailRequest   `json:"details" binding:"required,min=1,dive"`
	Reference   string            `json:"reference" binding:"max=100"`
	Notes       string            `json:"notes" binding:"max=1000"`
	CreatedBy   *uuid.UUID        `json:"-"`
}

// CreateFreeAmortizationRequest spreads one payment leg over the partner's open documents,
// earliest due first. DocumentIDs optionally restricts the candidates.
type CreateFreeAmortizationRequest struct {
	Flow        string            `json:"flow" binding:"required,oneof=RECEIVABLE PAYABLE"`
	PartnerID   uuid.UUID         `json:"partner_id" binding:"required"`
	Currency    string            `json:"currency" binding:"required,len=3"`
	PaymentDate time.Time         `json:"payment_date"`
	Payment     PaymentLegRequest `json:"payment"`
	DocumentIDs []uuid.UUID       `json:"document_ids"`
	Reference   string            `json:"reference" binding:"max=100"`
	Notes       string            `json:"notes" binding:"max=1000"`
	CreatedBy   *uuid.UUID        `json:"-"`
}

// CreateMultiAmortizationRequest settles explicit documents with several payment legs
type CreateMultiAmortizationRequest struct {
	Flow        string              `json:"flow" binding:"required,oneof=RECEIVABLE PAYABLE"`
	PartnerID   uuid.UUID           `json:"partner_id" binding:"required"`
	Currency    string              `json:"currency" binding:"required,len=3"`
	PaymentDate time.Time           `json:"payment_date"`
	Payments    []PaymentLegRequest `json:"payments" binding:"required,min=1,dive"`
	Details     []DetailRequest     `json:"details" binding:"required,min=1,dive"`
	Reference   string              `json:"reference" binding:"max=100"`
	Notes       string              `json:"notes" binding:"max=1000"`
	CreatedBy   *uuid.UUID          `json:"-"`
}

// AmortizationListFilter represents filter options for amortization lists
type AmortizationListFilter struct {
	Flow      string     `form:"flow" binding:"omitempty,oneof=RECEIVABLE PAYABLE"`
	PartnerID *uuid.UUID `form:"partner_id"`
	Status    string     `form:"status" binding:"omitempty,oneof=ACTIVE CANCELLED"`
	Mode      string     `form:"mode" binding:"omitempty,oneof=SINGLE FREE MULTI"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AmortizationDetailResponse is one settled document
type AmortizationDetailResponse struct {
	AccountStatusID uuid.UUID       `json:"account_status_id"`
	DocumentNumber  string          `json:"document_number"`
	Amount          decimal.Decimal `json:"amount"`
	DueBefore       decimal.Decimal `json:"due_before"`
	DueAfter        decimal.Decimal `json:"due_after"`
}

// AmortizationPaymentResponse is one payment leg
type AmortizationPaymentResponse struct {
	ID                uuid.UUID       `json:"id"`
	Method            string          `json:"method"`
	MethodLabel       string          `json:"method_label"`
	CashAccountID     *uuid.UUID      `json:"cash_account_id,omitempty"`
	CreditNoteID      *uuid.UUID      `json:"credit_note_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Reference         string          `json:"reference"`
	CashTransactionID *uuid.UUID      `json:"cash_transaction_id,omitempty"`
}

// AmortizationResponse represents an amortization in API responses
type AmortizationResponse struct {
	ID              uuid.UUID                     `json:"id"`
	CompanyID       uuid.UUID                     `json:"company_id"`
	Flow            string                        `json:"flow"`
	PartnerID       uuid.UUID                     `json:"partner_id"`
	Mode            string                        `json:"mode"`
	Currency        string                        `json:"currency"`
	Amount          decimal.Decimal               `json:"amount"`
	AppliedAmount   decimal.Decimal               `json:"applied_amount"`
	UnappliedAmount decimal.Decimal               `json:"unapplied_amount"`
	PaymentDate     time.Time                     `json:"payment_date"`
	Reference       string                        `json:"reference"`
	Notes           string                        `json:"notes"`
	Status          string                        `json:"status"`
	CancelledAt     *time.Time                    `json:"cancelled_at,omitempty"`
	CancelReason    string                        `json:"cancel_reason,omitempty"`
	Details         []AmortizationDetailResponse  `json:"details"`
	Payments        []AmortizationPaymentResponse `json:"payments"`
	CreatedAt       time.Time                     `json:"created_at"`
	Version         int                           `json:"version"`
}

// ToAmortizationResponse converts a domain Amortization to AmortizationResponse
func ToAmortizationResponse(a *finance.Amortization) AmortizationResponse {
	details := make([]AmortizationDetailResponse, len(a.Details))
	for i, d := range a.Details {
		details[i] = AmortizationDetailResponse{
			AccountStatusID: d.AccountStatusID,
			DocumentNumber:  d.DocumentNumber,
			Amount:          d.Amount,
			DueBefore:       d.DueBefore,
			DueAfter:        d.DueAfter,
		}
	}
	payments := make([]AmortizationPaymentResponse, len(a.Payments))
	for i, p := range a.Payments {
		payments[i] = AmortizationPaymentResponse{
			ID:                p.ID,
			Method:            string(p.Method),
			MethodLabel:       p.Method.Label(),
			CashAccountID:     p.CashAccountID,
			CreditNoteID:      p.CreditNoteID,
			Amount:            p.Amount,
			Reference:         p.Reference,
			CashTransactionID: p.CashTransactionID,
		}
	}
	return AmortizationResponse{
		ID:              a.ID,
		CompanyID:       a.CompanyID,
		Flow:            string(a.Flow),
		PartnerID:       a.PartnerID,
		Mode:            string(a.Mode),
		Currency:        string(a.Currency),
		Amount:          a.Amount,
		AppliedAmount:   a.AppliedAmount,
		UnappliedAmount: a.UnappliedAmount,
		PaymentDate:     a.PaymentDate,
		Reference:       a.Reference,
		Notes:           a.Notes,
		Status:          string(a.Status),
		CancelledAt:     a.CancelledAt,
		CancelReason:    a.CancelReason,
		Details:         details,
		Payments:        payments,
		CreatedAt:       a.CreatedAt,
		Version:         a.Version,
	}
}

// =============================================================================
// Cash accounts
// =============================================================================

// CreateCashAccountRequest creates a cash register or bank account
type CreateCashAccountRequest struct {
	Kind          string `json:"kind" binding:"required,oneof=CASH_REGISTER BANK_ACCOUNT"`
	Name          string `json:"name" binding:"required,min=1,max=100"`
	Currency      string `json:"currency" binding:"required,len=3"`
	BankName      string `json:"bank_name" binding:"max=100"`
	AccountNumber string `json:"account_number" binding:"max=50"`
}

// RecordMovementRequest records a manual income or expense
type RecordMovementRequest struct {
	Type        string          `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Method      string          `json:"method" binding:"required,oneof=CASH BANK_TRANSFER DEPOSIT CARD CHECK"`
	Amount      decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Date        time.Time       `json:"date"`
	Reference   string          `json:"reference" binding:"max=100"`
	Description string          `json:"description" binding:"max=500"`
}

// CashAccountListFilter represents filter options for cash account lists
type CashAccountListFilter struct {
	Kind     string `form:"kind" binding:"omitempty,oneof=CASH_REGISTER BANK_ACCOUNT"`
	Currency string `form:"currency"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// CashTransactionListFilter represents filter options for cash transaction lists
type CashTransactionListFilter struct {
	Type     string     `form:"type" binding:"omitempty,oneof=INCOME EXPENSE"`
	Origin   string     `form:"origin" binding:"omitempty,oneof=AMORTIZATION MANUAL REVERSAL"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// CashAccountResponse represents a cash account in API responses
type CashAccountResponse struct {
	ID               uuid.UUID       `json:"id"`
	CompanyID        uuid.UUID       `json:"company_id"`
	Kind             string          `json:"kind"`
	Name             string          `json:"name"`
	BankName         string          `json:"bank_name,omitempty"`
	AccountNumber    string          `json:"account_number,omitempty"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	FormattedBalance string          `json:"formatted_balance"`
	Active           bool            `json:"active"`
	CreatedAt        time.Time       `json:"created_at"`
	Version          int             `json:"version"`
}

// ToCashAccountResponse converts a domain CashAccount to CashAccountResponse
func ToCashAccountResponse(a *finance.CashAccount) CashAccountResponse {
	return CashAccountResponse{
		ID:               a.ID,
		CompanyID:        a.CompanyID,
		Kind:             string(a.Kind),
		Name:             a.Name,
		BankName:         a.BankName,
		AccountNumber:    a.AccountNumber,
		Currency:         string(a.Currency),
		Balance:          a.Balance,
		FormattedBalance: a.BalanceMoney().String(),
		Active:           a.Active,
		CreatedAt:        a.CreatedAt,
		Version:          a.Version,
	}
}

// CashTransactionResponse represents a cash movement in API responses
type CashTransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	CashAccountID   uuid.UUID       `json:"cash_account_id"`
	Type            string          `json:"type"`
	Origin          string          `json:"origin"`
	AmortizationID  *uuid.UUID      `json:"amortization_id,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Reference       string          `json:"reference"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transaction_date"`
	Status          string          `json:"status"`
	ReversalOfID    *uuid.UUID      `json:"reversal_of_id,omitempty"`
	VoidedAt        *time.Time      `json:"voided_at,omitempty"`
}

// ToCashTransactionResponse converts a domain CashTransaction to CashTransactionResponse
func ToCashTransactionResponse(t *finance.CashTransaction) CashTransactionResponse {
	return CashTransactionResponse{
		ID:              t.ID,
		CashAccountID:   t.CashAccountID,
		Type:            string(t.Type),
		Origin:          string(t.Origin),
		AmortizationID:  t.AmortizationID,
		PaymentMethod:   string(t.PaymentMethod),
		Amount:          t.Amount,
		Currency:        string(t.Currency),
		BalanceAfter:    t.BalanceAfter,
		Reference:       t.Reference,
		Description:     t.Description,
		TransactionDate: t.TransactionDate,
		Status:          string(t.Status),
		ReversalOfID:    t.ReversalOfID,
		VoidedAt:        t.VoidedAt,
	}
}

// =============================================================================
// Billing sweep
// =============================================================================

// SweepSummary is the outcome of one billing sweep run
type SweepSummary struct {
	AsOf      time.Time     `json:"as_of"`
	Companies int           `json:"companies"`
	Expired   int           `json:"expired"`
	Failures  int           `json:"failures"`
	Duration  time.Duration `json:"duration"`
}

func toFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	return shared.Filter{Page: page, PageSize: pageSize, OrderBy: orderBy, OrderDir: orderDir}.Normalize()
}
