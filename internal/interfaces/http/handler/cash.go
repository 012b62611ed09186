package handler

import (
	"context"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CashService is the cash account use case surface used by the handler
type CashService interface {
	CreateAccount(ctx context.Context, companyID uuid.UUID, req appfinance.CreateCashAccountRequest) (*appfinance.CashAccountResponse, error)
	GetAccount(ctx context.Context, companyID, id uuid.UUID) (*appfinance.CashAccountResponse, error)
	ListAccounts(ctx context.Context, companyID uuid.UUID, filter appfinance.CashAccountListFilter) ([]appfinance.CashAccountResponse, int64, error)
	DeactivateAccount(ctx context.Context, companyID, id uuid.UUID) (*appfinance.CashAccountResponse, error)
	RecordMovement(ctx context.Context, companyID, accountID uuid.UUID, req appfinance.RecordMovementRequest) (*appfinance.CashTransactionResponse, error)
	ListTransactions(ctx context.Context, companyID, accountID uuid.UUID, filter appfinance.CashTransactionListFilter) ([]appfinance.CashTransactionResponse, int64, error)
}

// CashHandler handles cash register and bank account HTTP requests
type CashHandler struct {
	BaseHandler
	service CashService
}

// NewCashHandler creates a new cash handler
func NewCashHandler(service CashService) *CashHandler {
	return &CashHandler{service: service}
}

// POST /cash-accounts
func (h *CashHandler) CreateAccount(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req appfinance.CreateCashAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.service.CreateAccount(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// GET /cash-accounts/:id
func (h *CashHandler) GetAccount(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// GET /cash-accounts
func (h *CashHandler) ListAccounts(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var filter appfinance.CashAccountListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	accounts, total, err := h.service.ListAccounts(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, accounts, total, page, pageSize)
}

// DeactivateAccount closes an account for new movements.
// POST /cash-accounts/:id/deactivate
func (h *CashHandler) DeactivateAccount(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	account, err := h.service.DeactivateAccount(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// RecordMovement books a manual income or expense.
// POST /cash-accounts/:id/movements
func (h *CashHandler) RecordMovement(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appfinance.RecordMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tx, err := h.service.RecordMovement(c.Request.Context(), companyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// GET /cash-accounts/:id/transactions
func (h *CashHandler) ListTransactions(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var filter appfinance.CashTransactionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	txs, total, err := h.service.ListTransactions(c.Request.Context(), companyID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, txs, total, page, pageSize)
}
