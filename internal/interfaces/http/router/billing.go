package router

import (
	"github.com/erp/billing/internal/infrastructure/auth"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/interfaces/http/handler"
	"github.com/erp/billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers of the billing API
type Handlers struct {
	AccountStatus *handler.AccountStatusHandler
	Amortization  *handler.AmortizationHandler
	Cash          *handler.CashHandler
	Outbox        *handler.OutboxHandler
	System        *handler.SystemHandler
}

// EngineConfig holds what the middleware stack needs
type EngineConfig struct {
	ServiceName    string
	HTTP           config.HTTPConfig
	Auth           middleware.AuthConfig
	TracingEnabled bool
	Meter          metric.Meter
	Logger         *zap.Logger
}

// NewEngine builds the gin engine: ambient middleware on every request,
// /health and /ready unauthenticated, everything else under /api/v1 behind Auth.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.SpanErrorMarker(),
		middleware.CORS(cfg.HTTP),
	)
	if cfg.Meter != nil {
		engine.Use(middleware.HTTPMetrics(cfg.Meter, cfg.Logger))
	}
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}
	r := NewRouter(engine, WithMiddleware(middleware.Auth(cfg.Auth), middleware.TracingAttributes()))
	r.Register(accountStatusRoutes(h)).
		Register(partnerRoutes(h)).
		Register(amortizationRoutes(h)).
		Register(cashRoutes(h)).
		Register(systemRoutes(h))
	r.Setup()

	return engine, nil
}

func accountStatusRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("account_statuses", "/account-statuses").
		POST("", h.AccountStatus.Register).
		GET("", h.AccountStatus.List).
		GET("/:id", h.AccountStatus.Get).
		POST("/:id/cancel", h.AccountStatus.Cancel).
		GET("/:id/amortizations", h.Amortization.ListByDocument)
}

func partnerRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("partners", "/partners").
		GET("/:partner_id/statement/:flow", h.AccountStatus.Statement)
}

func amortizationRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("amortizations", "/amortizations").
		POST("", h.Amortization.Create).
		POST("/free", h.Amortization.CreateFree).
		POST("/multi", h.Amortization.CreateMulti).
		GET("", h.Amortization.List).
		GET("/:id", h.Amortization.Get).
		POST("/:id/cancel", h.Amortization.Cancel)
}

func cashRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("cash_accounts", "/cash-accounts").
		POST("", h.Cash.CreateAccount).
		GET("", h.Cash.ListAccounts).
		GET("/:id", h.Cash.GetAccount).
		POST("/:id/deactivate", h.Cash.DeactivateAccount).
		POST("/:id/movements", h.Cash.RecordMovement).
		GET("/:id/transactions", h.Cash.ListTransactions)
}

func systemRoutes(h Handlers) *DomainGroup {
	system := NewDomainGroup("system", "/system").
		Use(middleware.RequirePermission(auth.PermissionBillingAdmin)).
		POST("/billing-sweep", h.System.TriggerSweep)

	system.Group("outbox", "/outbox").
		GET("/dead", h.Outbox.GetDeadLetterEntries).
		POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries).
		GET("/stats", h.Outbox.GetStats).
		GET("/:id", h.Outbox.GetEntry).
		POST("/:id/retry", h.Outbox.RetryDeadEntry)
	return system
}
