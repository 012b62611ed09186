package handler

import (
	"context"
	"strings"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountStatusService is the account status use case surface used by the handler
type AccountStatusService interface {
	RegisterDocument(ctx context.Context, companyID uuid.UUID, req appfinance.RegisterDocumentRequest) (*appfinance.AccountStatusResponse, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*appfinance.AccountStatusResponse, error)
	List(ctx context.Context, companyID uuid.UUID, filter appfinance.AccountStatusListFilter) ([]appfinance.AccountStatusResponse, int64, error)
	CancelDocument(ctx context.Context, companyID, id uuid.UUID, reason string) (*appfinance.AccountStatusResponse, error)
	GetPartnerStatement(ctx context.Context, companyID uuid.UUID, flow finance.AccountFlow, partnerID uuid.UUID) (*appfinance.PartnerStatement, error)
}

// AccountStatusHandler handles document account status HTTP requests
type AccountStatusHandler struct {
	BaseHandler
	service AccountStatusService
}

// NewAccountStatusHandler creates a new account status handler
func NewAccountStatusHandler(service AccountStatusService) *AccountStatusHandler {
	return &AccountStatusHandler{service: service}
}

// Register opens the account status of a document.
// POST /account-statuses
func (h *AccountStatusHandler) Register(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req appfinance.RegisterDocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = middleware.GetUserID(c)

	status, err := h.service.RegisterDocument(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, status)
}

// GET /account-statuses/:id
func (h *AccountStatusHandler) Get(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.service.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// List returns a page of account statuses.
// GET /account-statuses
func (h *AccountStatusHandler) List(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var filter appfinance.AccountStatusListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	statuses, total, err := h.service.List(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, statuses, total, page, pageSize)
}

// Cancel voids a document that has no active amortizations.
// POST /account-statuses/:id/cancel
func (h *AccountStatusHandler) Cancel(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appfinance.CancelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	status, err := h.service.CancelDocument(c.Request.Context(), companyID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Statement returns the partner's balances and open documents for one flow.
// GET /partners/:partner_id/statement/:flow
func (h *AccountStatusHandler) Statement(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	partnerID, ok := h.pathID(c, "partner_id")
	if !ok {
		return
	}
	flow := finance.AccountFlow(strings.ToUpper(c.Param("flow")))

	statement, err := h.service.GetPartnerStatement(c.Request.Context(), companyID, flow, partnerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}
