package finance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BillingSweepConfig holds the sweep limits
type BillingSweepConfig struct {
	// Concurrency is the number of companies swept in parallel
	Concurrency int
	// BatchSize is the number of documents expired per query
	BatchSize int
}

// DefaultBillingSweepConfig returns the default sweep limits
func DefaultBillingSweepConfig() BillingSweepConfig {
	return BillingSweepConfig{
		Concurrency: 4,
		BatchSize:   500,
	}
}

// BillingSweepService flags documents that went past their due date unpaid
type BillingSweepService struct {
	statusRepo finance.AccountStatusRepository
	txManager  TxManager
	outbox     shared.OutboxEventSaver
	recorder   BillingRecorder
	config     BillingSweepConfig
	logger     *zap.Logger
}

// NewBillingSweepService creates a new BillingSweepService
func NewBillingSweepService(
	statusRepo finance.AccountStatusRepository,
	txManager TxManager,
	outbox shared.OutboxEventSaver,
	recorder BillingRecorder,
	config BillingSweepConfig,
	logger *zap.Logger,
) *BillingSweepService {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultBillingSweepConfig().Concurrency
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBillingSweepConfig().BatchSize
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingSweepService{
		statusRepo: statusRepo,
		txManager:  txManager,
		outbox:     outbox,
		recorder:   recorder,
		config:     config,
		logger:     logger,
	}
}

// Run expires past-due documents of every company with open documents.
// A failing company is logged and counted; it does not stop the others.
// Companies not started before ctx is done are skipped and the ctx error is returned with the summary.
func (s *BillingSweepService) Run(ctx context.Context, asOf time.Time) (*SweepSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing_sweep", "run")
	defer span.End()
	start := time.Now()

	companies, err := s.statusRepo.CompaniesWithOpenDocuments(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	var expired, failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for _, companyID := range companies {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := s.SweepCompany(gctx, companyID, asOf)
			expired.Add(int64(n))
			if err != nil {
				failures.Add(1)
				s.logger.Error("billing sweep failed for company",
					zap.String("company_id", companyID.String()),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	waitErr := g.Wait()

	summary := &SweepSummary{
		AsOf:      asOf,
		Companies: len(companies),
		Expired:   int(expired.Load()),
		Failures:  int(failures.Load()),
		Duration:  time.Since(start),
	}
	telemetry.SetAttributes(span,
		"companies", summary.Companies,
		"expired", summary.Expired,
		"failures", summary.Failures,
	)
	s.logger.Info("billing sweep finished",
		zap.Time("as_of", asOf),
		zap.Int("companies", summary.Companies),
		zap.Int("expired", summary.Expired),
		zap.Int("failures", summary.Failures),
		zap.Duration("duration", summary.Duration),
	)
	if waitErr != nil {
		telemetry.RecordError(span, waitErr)
		return summary, fmt.Errorf("billing sweep interrupted: %w", waitErr)
	}
	return summary, nil
}

// SweepCompany expires one company's past-due documents in one transaction and
// returns how many were flagged.
func (s *BillingSweepService) SweepCompany(ctx context.Context, companyID uuid.UUID, asOf time.Time) (int, error) {
	count := 0
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		count = 0
		for {
			batch, err := s.statusRepo.FindExpirable(ctx, companyID, asOf, s.config.BatchSize)
			if err != nil {
				return fmt.Errorf("failed to load expirable documents: %w", err)
			}
			changed := 0
			for _, st := range batch {
				if !st.MarkExpired(asOf) {
					continue
				}
				if err := s.statusRepo.SaveWithLock(ctx, st); err != nil {
					return fmt.Errorf("failed to save document %s: %w", st.DocumentNumber, err)
				}
				if err := saveEvents(ctx, s.outbox, st); err != nil {
					return err
				}
				changed++
			}
			count += changed
			if len(batch) < s.config.BatchSize || changed == 0 {
				return nil
			}
		}
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.recorder.RecordDocumentsExpired(ctx, companyID, count)
	}
	return count, nil
}
