package withdrawal

import (
	"context"
	"time"

	"gymledger/internal/clock"
	apperrors "gymledger/internal/errors"
	"gymledger/internal/metrics"
	"gymledger/internal/repositories"
	"gymledger/internal/services/notification"

	"go.uber.org/zap"
)

type service struct {
	repo    repositories.LedgerRepository
	sink    notification.Sink
	cache   ReportCache
	clock   clock.Clock
	metrics metrics.Collector
	log     *zap.Logger
}

// NewService creates a new withdrawal service
func NewService(repo repositories.LedgerRepository, sink notification.Sink, opts Options) Service {
	if repo == nil {
		panic("repo is required")
	}
	if sink == nil {
		panic("notification sink is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopCollector{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &service{
		repo:    repo,
		sink:    sink,
		cache:   opts.Cache,
		clock:   opts.Clock,
		metrics: opts.Metrics,
		log:     opts.Logger.Named("withdrawal.service"),
	}
}

func (s *service) observe(op string, start time.Time, err error) error {
	s.metrics.RecordOperationDuration(op, s.clock.Now().Sub(start))
	if err != nil {
		s.metrics.RecordOperationResult(op, "failure")
		s.metrics.RecordError(op, apperrors.CodeOf(err))
		if !apperrors.IsClientError(err) {
			s.log.Error("withdrawal operation failed", zap.String("operation", op), zap.Error(err))
		}
		return err
	}
	s.metrics.RecordOperationResult(op, "success")
	return nil
}

// afterCommit runs best-effort side effects; failures are logged only.
func (s *service) afterCommit(ctx context.Context, op string, effects ...func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	// report invalidation always runs first
	if s.cache != nil {
		effects = append([]func(context.Context) error{s.cache.InvalidateReports}, effects...)
	}
	for _, effect := range effects {
		if err := effect(ctx); err != nil {
			s.log.Warn("post-commit side effect failed", zap.String("operation", op), zap.Error(err))
		}
	}
}
