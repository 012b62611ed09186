package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appevent "github.com/erp/billing/internal/application/event"
	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/infrastructure/auth"
	"github.com/erp/billing/internal/infrastructure/cache"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/infrastructure/event"
	"github.com/erp/billing/internal/infrastructure/logger"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/erp/billing/internal/interfaces/http/handler"
	"github.com/erp/billing/internal/interfaces/http/middleware"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("country", cfg.Billing.Country),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	billingMetrics, err := telemetry.NewBillingMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbConfig := telemetry.DefaultDBConfig()
	dbConfig.Tracing = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbConfig.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbConfig.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbConfig.PoolStatsInterval = cfg.Telemetry.DBPoolStatsPeriod
	dbTelemetry, err := telemetry.NewDBTelemetry(meter, dbConfig, log)
	if err != nil {
		log.Fatal("Failed to create database telemetry", zap.Error(err))
	}
	if err := dbTelemetry.Register(db.DB); err != nil {
		log.Fatal("Failed to register database telemetry", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		dbTelemetry.StartPoolStats(ctx, sqlDB)
	}

	// Redis backs partner locks, statement cache and event idempotency.
	// Without it the service runs single-instance.
	var (
		redisClient    *redis.Client
		locker         appfinance.Locker
		statementCache appfinance.StatementCache
		idemStore      shared.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		locker = cache.NewRedisLocker(redisClient)
		statementCache = cache.NewRedisStatementCache(redisClient, cfg.Billing.StatementCacheTTL)
		idemStore = cache.NewRedisIdempotencyStore(redisClient, "billing:idem:")
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		locker = cache.NewLocalLocker()
		idemStore = cache.NewInMemoryIdempotencyStore(time.Minute)
		log.Warn("Redis disabled: partner locks are process-local and statements are not cached")
	}
	defer func() {
		_ = idemStore.Close()
	}()

	// Repositories and the transactional outbox
	statusRepo := persistence.NewGormAccountStatusRepository(db.DB)
	amortizationRepo := persistence.NewGormAmortizationRepository(db.DB)
	cashAccountRepo := persistence.NewGormCashAccountRepository(db.DB)
	cashTransactionRepo := persistence.NewGormCashTransactionRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	eventSerializer := event.NewEventSerializer()
	event.RegisterBillingEvents(eventSerializer)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	outboxPublisher := event.NewOutboxPublisher(eventSerializer, outboxRepo)

	// Application services
	statusOpts := []appfinance.AccountStatusServiceOption{
		appfinance.WithDefaultCountry(finance.Country(cfg.Billing.Country)),
		appfinance.WithAccountStatusLogger(log.Named("account_status")),
	}
	if statementCache != nil {
		statusOpts = append(statusOpts, appfinance.WithStatementCache(statementCache))
	}
	accountStatusService := appfinance.NewAccountStatusService(
		statusRepo, amortizationRepo, txManager, outboxPublisher, statusOpts...,
	)
	amortizationService := appfinance.NewAmortizationService(
		statusRepo, amortizationRepo, cashAccountRepo, cashTransactionRepo,
		txManager, locker, outboxPublisher,
		appfinance.WithBankingThresholds(bankingThresholds(cfg.Billing)),
		appfinance.WithPartnerLockTTL(cfg.Billing.PartnerLockTTL),
		appfinance.WithBillingRecorder(billingMetrics),
		appfinance.WithAmortizationLogger(log.Named("amortization")),
	)
	cashService := appfinance.NewCashService(
		cashAccountRepo, cashTransactionRepo, txManager, outboxPublisher, log.Named("cash"),
	)
	outboxService := appevent.NewOutboxService(outboxRepo, log.Named("outbox"))

	// Event bus: outbox entries are dispatched to in-process handlers
	eventBus := event.NewInMemoryEventBus(log)
	if statementCache != nil {
		eventBus.Subscribe(event.NewIdempotentHandler(
			appfinance.NewStatementCacheInvalidator(statementCache, log),
			idemStore,
			log,
			event.WithHandlerName("statement_cache_invalidator"),
		))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	var outboxProcessor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Event.BatchSize
		processorConfig.PollInterval = cfg.Event.PollInterval
		processorConfig.MaxRetries = cfg.Event.MaxRetries
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		outboxProcessor = event.NewOutboxProcessor(
			outboxRepo, eventBus, eventSerializer, processorConfig, billingMetrics, log.Named("outbox_processor"),
		)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		log.Info("Outbox processor started")
	}

	// Daily sweep of past-due documents
	var (
		sweepTrigger *scheduler.BillingSweepTrigger
		sweep        handler.SweepTrigger
	)
	if cfg.Billing.SweepEnabled {
		sweepService := appfinance.NewBillingSweepService(
			statusRepo, txManager, outboxPublisher, billingMetrics,
			appfinance.BillingSweepConfig{
				Concurrency: cfg.Billing.SweepConcurrency,
				BatchSize:   cfg.Billing.SweepBatchSize,
			},
			log.Named("billing_sweep"),
		)
		sweepTrigger = scheduler.NewBillingSweepTrigger(scheduler.BillingSweepTriggerConfig{
			Hour:    cfg.Billing.SweepHour,
			Minute:  cfg.Billing.SweepMinute,
			Timeout: cfg.Billing.SweepTimeout,
			LockTTL: cfg.Billing.SweepLockTTL,
		}, sweepService, locker, log.Named("billing_sweep_trigger"))
		if err := sweepTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start billing sweep trigger", zap.Error(err))
		}
		sweep = sweepTrigger
		log.Info("Billing sweep scheduled",
			zap.Int("hour", cfg.Billing.SweepHour),
			zap.Int("minute", cfg.Billing.SweepMinute),
		)
	}

	// HTTP
	checks := map[string]handler.ReadinessCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		HTTP:        cfg.HTTP,
		Auth: middleware.AuthConfig{
			JWTService:         auth.NewJWTService(cfg.JWT),
			AllowCompanyHeader: cfg.JWT.AllowCompanyHeader,
			Logger:             log,
		},
		TracingEnabled: tracerProvider.IsEnabled(),
		Meter:          meter,
		Logger:         log,
	}, router.Handlers{
		AccountStatus: handler.NewAccountStatusHandler(accountStatusService),
		Amortization:  handler.NewAmortizationHandler(amortizationService),
		Cash:          handler.NewCashHandler(cashService),
		Outbox:        handler.NewOutboxHandler(outboxService),
		System:        handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, checks, sweep),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sweepTrigger != nil {
		if err := sweepTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping billing sweep trigger", zap.Error(err))
		}
	}
	if outboxProcessor != nil {
		if err := outboxProcessor.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	dbTelemetry.Stop()
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// bankingThresholds maps the configured cash limits onto the domain table
func bankingThresholds(b config.BillingConfig) finance.BankingThresholds {
	return finance.BankingThresholds{
		finance.CountryPeru: {
			valueobject.PEN: b.BankingThresholdPEPEN,
			valueobject.USD: b.BankingThresholdPEUSD,
		},
		finance.CountryEcuador: {
			valueobject.USD: b.BankingThresholdECUSD,
		},
	}
}
