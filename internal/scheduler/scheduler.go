// Package scheduler runs the periodic maintenance jobs: balance
// reconciliation and the notification outbox relay.
package scheduler

import (
	"context"
	"time"

	"gymledger/internal/services/ledger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OutboxFlusher republishes notifications the broker did not accept.
type OutboxFlusher interface {
	FlushQueued(ctx context.Context) (int, error)
}

type Config struct {
	ReconcileSchedule string
	// OutboxSchedule defaults to every minute.
	OutboxSchedule string
	JobTimeout     time.Duration
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	ledger ledger.Service
	outbox OutboxFlusher
	cfg    Config
	log    *zap.Logger
}

// New creates a scheduler. outbox may be nil.
func New(ledgerSvc ledger.Service, outbox OutboxFlusher, cfg Config, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.OutboxSchedule == "" {
		cfg.OutboxSchedule = "@every 1m"
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	log = log.Named("scheduler")
	cronLogger := cron.PrintfLogger(zap.NewStdLog(log))

	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		ledger: ledgerSvc,
		outbox: outbox,
		cfg:    cfg,
		log:    log,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ReconcileSchedule, s.ReconcileBalances); err != nil {
		return err
	}
	s.log.Info("scheduled reconciliation job", zap.String("schedule", s.cfg.ReconcileSchedule))

	if s.outbox != nil {
		if _, err := s.cron.AddFunc(s.cfg.OutboxSchedule, s.FlushOutbox); err != nil {
			return err
		}
		s.log.Info("scheduled outbox relay", zap.String("schedule", s.cfg.OutboxSchedule))
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler; the returned context is done once running
// jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// ReconcileBalances checks every gym account and logs the ones that drifted.
func (s *Scheduler) ReconcileBalances() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	results, err := s.ledger.ReconcileAll(ctx)
	if err != nil {
		s.log.Error("reconciliation run failed", zap.Error(err))
		return
	}

	drifted := 0
	for _, r := range results {
		if !r.Balanced() {
			drifted++
		}
	}
	s.log.Info("reconciliation run finished",
		zap.Int("accounts", len(results)),
		zap.Int("drifted", drifted),
	)
}

func (s *Scheduler) FlushOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	if _, err := s.outbox.FlushQueued(ctx); err != nil {
		s.log.Warn("outbox relay failed", zap.Error(err))
	}
}
