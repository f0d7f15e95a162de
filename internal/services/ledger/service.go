package ledger

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
	repo       repositories.LedgerRepository
	commission CommissionSource
	sink       notification.Sink
	cache      ReportCache
	clock      clock.Clock
	metrics    metrics.Collector
	log        *zap.Logger
}

// NewService creates a new ledger service
func NewService(
	repo repositories.LedgerRepository,
	commission CommissionSource,
	sink notification.Sink,
	opts Options,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if commission == nil {
		panic("commission source is required")
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
		repo:       repo,
		commission: commission,
		sink:       sink,
		cache:      opts.Cache,
		clock:      opts.Clock,
		metrics:    opts.Metrics,
		log:        opts.Logger.Named("ledger.service"),
	}
}

// observe records the duration and outcome of op and returns err unchanged.
func (s *service) observe(op string, start time.Time, err error) error {
	s.metrics.RecordOperationDuration(op, s.clock.Now().Sub(start))
	if err != nil {
		s.metrics.RecordOperationResult(op, "failure")
		s.metrics.RecordError(op, apperrors.CodeOf(err))
		if !apperrors.IsClientError(err) {
			s.log.Error("ledger operation failed", zap.String("operation", op), zap.Error(err))
		}
		return err
	}
	s.metrics.RecordOperationResult(op, "success")
	return nil
}

// afterCommit runs the best-effort side effects of a committed write. They
// must not fail the operation, so errors are only logged.
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
