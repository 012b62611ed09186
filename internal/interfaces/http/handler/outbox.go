package handler

import (
	"context"

	"github.com/erp/billing/internal/application/event"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OutboxService is the outbox administration surface used by the handler
type OutboxService interface {
	GetDeadLetterEntries(ctx context.Context, companyID uuid.UUID, filter event.OutboxFilter) (*event.OutboxListResult, error)
	GetEntry(ctx context.Context, companyID, id uuid.UUID) (*event.OutboxEntryDTO, error)
	RetryDeadEntry(ctx context.Context, companyID, id uuid.UUID) (*event.OutboxEntryDTO, error)
	RetryAllDeadEntries(ctx context.Context, companyID uuid.UUID) (int64, error)
	GetStats(ctx context.Context, companyID uuid.UUID) (*event.OutboxStatsDTO, error)
}

// OutboxHandler handles outbox management HTTP requests
type OutboxHandler struct {
	BaseHandler
	service OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(service OutboxService) *OutboxHandler {
	return &OutboxHandler{service: service}
}

// RetryAllResponse reports how many dead entries were requeued
type RetryAllResponse struct {
	Count int64 `json:"count"`
}

// GetDeadLetterEntries lists the company's dead letter entries.
// GET /system/outbox/dead
func (h *OutboxHandler) GetDeadLetterEntries(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	var filter event.OutboxFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.service.GetDeadLetterEntries(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GET /system/outbox/:id
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryDeadEntry requeues one dead entry.
// POST /system/outbox/:id/retry
func (h *OutboxHandler) RetryDeadEntry(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.RetryDeadEntry(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// POST /system/outbox/dead/retry-all
func (h *OutboxHandler) RetryAllDeadEntries(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	count, err := h.service.RetryAllDeadEntries(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RetryAllResponse{Count: count})
}

// GET /system/outbox/stats
func (h *OutboxHandler) GetStats(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
