package handler

import (
	"context"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AmortizationService is the amortization use case surface used by the handler
type AmortizationService interface {
	Create(ctx context.Context, companyID uuid.UUID, req appfinance.CreateAmortizationRequest) (*appfinance.AmortizationResponse, error)
	CreateFree(ctx context.Context, companyID uuid.UUID, req appfinance.CreateFreeAmortizationRequest) (*appfinance.AmortizationResponse, error)
	CreateMultiTransactions(ctx context.Context, companyID uuid.UUID, req appfinance.CreateMultiAmortizationRequest) (*appfinance.AmortizationResponse, error)
	Cancel(ctx context.Context, companyID, id uuid.UUID, reason string) (*appfinance.AmortizationResponse, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*appfinance.AmortizationResponse, error)
	List(ctx context.Context, companyID uuid.UUID, filter appfinance.AmortizationListFilter) ([]appfinance.AmortizationResponse, int64, error)
	ListByDocument(ctx context.Context, companyID, accountStatusID uuid.UUID) ([]appfinance.AmortizationResponse, error)
}

// AmortizationHandler handles amortization HTTP requests
type AmortizationHandler struct {
	BaseHandler
	service AmortizationService
}

// NewAmortizationHandler creates a new amortization handler
func NewAmortizationHandler(service AmortizationService) *AmortizationHandler {
	return &AmortizationHandler{service: service}
}

// Create settles explicit documents with a single payment.
// POST /amortizations
func (h *AmortizationHandler) Create(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req appfinance.CreateAmortizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = middleware.GetUserID(c)

	a, err := h.service.Create(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// CreateFree spreads a payment over the partner's open documents, earliest due first.
// POST /amortizations/free
func (h *AmortizationHandler) CreateFree(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req appfinance.CreateFreeAmortizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = middleware.GetUserID(c)

	a, err := h.service.CreateFree(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// CreateMulti settles explicit documents with several payment legs.
// POST /amortizations/multi
func (h *AmortizationHandler) CreateMulti(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var req appfinance.CreateMultiAmortizationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.CreatedBy = middleware.GetUserID(c)

	a, err := h.service.CreateMultiTransactions(c.Request.Context(), companyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// POST /amortizations/:id/cancel
func (h *AmortizationHandler) Cancel(c *gin.Context) {
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

	a, err := h.service.Cancel(c.Request.Context(), companyID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// GET /amortizations/:id
func (h *AmortizationHandler) Get(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// GET /amortizations
func (h *AmortizationHandler) List(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var filter appfinance.AmortizationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	list, total, err := h.service.List(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, list, total, page, pageSize)
}

// ListByDocument returns every amortization that touched one document.
// GET /account-statuses/:id/amortizations
func (h *AmortizationHandler) ListByDocument(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	list, err := h.service.ListByDocument(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}
