package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReadinessCheck probes one dependency
type ReadinessCheck func(ctx context.Context) error

// SweepTrigger runs the billing sweep on demand
type SweepTrigger interface {
	TriggerNow(ctx context.Context, asOf time.Time) (*appfinance.SweepSummary, error)
}

// SystemHandler serves liveness, readiness and operator endpoints
type SystemHandler struct {
	BaseHandler
	name         string
	version      string
	startTime    time.Time
	checks       map[string]ReadinessCheck
	checkTimeout time.Duration
	sweep        SweepTrigger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, checks map[string]ReadinessCheck, sweep SweepTrigger) *SystemHandler {
	return &SystemHandler{
		name:         name,
		version:      version,
		startTime:    time.Now(),
		checks:       checks,
		checkTimeout: 2 * time.Second,
		sweep:        sweep,
	}
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// ReadyResponse lists each dependency and its state
type ReadyResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Health reports the process is alive.
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready probes every dependency concurrently and answers 503 if any fails.
// GET /ready
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = "ok"
			if err := h.checks[name](ctx); err != nil {
				results[i] = err.Error()
			}
		}()
	}
	wg.Wait()

	resp := ReadyResponse{Ready: true, Checks: make(map[string]string, len(names))}
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i] != "ok" {
			resp.Ready = false
		}
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

// TriggerSweepRequest optionally backdates the sweep
type TriggerSweepRequest struct {
	AsOf *time.Time `json:"as_of"`
}

// TriggerSweep runs the billing sweep now.
// POST /system/billing-sweep
func (h *SystemHandler) TriggerSweep(c *gin.Context) {
	if h.sweep == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Billing sweep is disabled")
		return
	}
	var req TriggerSweepRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	var asOf time.Time
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	summary, err := h.sweep.TriggerNow(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
