package ledger

import (
	"context"
	"strings"

	apperrors "gymledger/internal/errors"
	"gymledger/internal/models"
	"gymledger/internal/repositories"

	"go.uber.org/zap"
)

func (s *service) OpenAccount(ctx context.Context, in OpenAccountInput) (account *models.GymAccount, err error) {
	start := s.clock.Now()
	defer func() { err = s.observe(OpOpenAccount, start, err) }()

	name := strings.TrimSpace(in.Name)
	if in.GymID == 0 {
		return nil, apperrors.Validation("gym_id", "is required")
	}
	if name == "" {
		return nil, apperrors.Validation("name", "is required")
	}

	account = &models.GymAccount{
		GymID:   in.GymID,
		Name:    name,
		OwnerID: in.OwnerID,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, repositories.ToDomainError("open gym account", err)
	}

	s.afterCommit(ctx, OpOpenAccount, func(ctx context.Context) error {
		return s.sink.RecordAudit(ctx, in.OwnerID, ActionAccountOpened, map[string]interface{}{
			"id":   account.GymID,
			"name": account.Name,
		})
	})
	return account, nil
}

func (s *service) GetAccount(ctx context.Context, gymID uint) (*models.GymAccount, error) {
	account, err := s.repo.GetAccount(ctx, gymID)
	if err != nil {
		return nil, repositories.ToDomainError("load gym account", err)
	}
	return account, nil
}

// Reconcile holds the account row lock while summing, so no balance change
// can land between the reads.
func (s *service) Reconcile(ctx context.Context, gymID uint) (result *Reconciliation, err error) {
	start := s.clock.Now()
	defer func() { err = s.observe(OpReconcile, start, err) }()

	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		account, err := tx.LockAccount(ctx, gymID)
		if err != nil {
			return err
		}
		shares, err := tx.SumGymShare(ctx, gymID)
		if err != nil {
			return err
		}
		held, err := tx.SumWithdrawals(ctx, gymID, models.WithdrawalPending, models.WithdrawalCompleted)
		if err != nil {
			return err
		}
		expected := shares - held
		result = &Reconciliation{
			GymID:    gymID,
			Balance:  account.Balance,
			Expected: expected,
			Drift:    account.Balance - expected,
		}
		return nil
	})
	if err != nil {
		return nil, repositories.ToDomainError("reconcile gym account", err)
	}

	s.metrics.RecordBalanceDrift(gymID, result.Drift)
	if !result.Balanced() {
		s.log.Error("gym balance drift detected",
			zap.Uint("gym_id", gymID),
			zap.String("balance", result.Balance.String()),
			zap.String("expected", result.Expected.String()),
			zap.String("drift", result.Drift.String()),
		)
	}
	return result, nil
}

// ReconcileAll checks every account and returns the results in gym order.
// A failure on one account is logged and does not stop the sweep.
func (s *service) ReconcileAll(ctx context.Context) ([]Reconciliation, error) {
	ids, err := s.repo.ListAccountIDs(ctx)
	if err != nil {
		return nil, repositories.ToDomainError("list gym accounts", err)
	}

	results := make([]Reconciliation, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := s.Reconcile(ctx, id)
		if err != nil {
			s.log.Warn("reconciliation skipped", zap.Uint("gym_id", id), zap.Error(err))
			continue
		}
		results = append(results, *r)
	}
	return results, nil
}
