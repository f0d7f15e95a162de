package withdrawal

import (
	"context"
	"fmt"
	"strings"

	apperrors "gymledger/internal/errors"
	"gymledger/internal/models"
	"gymledger/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestWithdrawal holds amount out of the gym balance and opens a pending
// withdrawal. The balance check and the debit happen under the account row
// lock, so two concurrent requests can never overdraw the balance.
func (s *service) RequestWithdrawal(ctx context.Context, in RequestInput) (w *models.Withdrawal, err error) {
	start := s.clock.Now()
	defer func() { err = s.observe(OpRequest, start, err) }()

	if in.GymID == 0 {
		return nil, apperrors.Validation("gym_id", "is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.Validation("amount", "must be greater than zero")
	}

	w = &models.Withdrawal{
		Reference:   uuid.NewString(),
		GymID:       in.GymID,
		Amount:      in.Amount,
		Status:      models.WithdrawalPending,
		RequestedBy: in.RequestedBy,
		RequestedAt: s.clock.Now().UTC(),
	}
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		account, err := tx.LockAccount(ctx, in.GymID)
		if err != nil {
			return err
		}
		if account.Balance < in.Amount {
			return apperrors.InsufficientBalance(account.Balance, in.Amount)
		}
		if err := tx.Debit(ctx, in.GymID, in.Amount); err != nil {
			return err
		}
		return tx.CreateWithdrawal(ctx, w)
	})
	if err != nil {
		return nil, repositories.ToDomainError("request withdrawal", err)
	}

	s.metrics.RecordVolume(OpRequest, w.Amount)
	s.log.Info("withdrawal requested",
		zap.Uint("withdrawal_id", w.ID),
		zap.Uint("gym_id", w.GymID),
		zap.String("amount", w.Amount.String()),
	)
	s.afterCommit(ctx, OpRequest, func(ctx context.Context) error {
		return s.sink.RecordAudit(ctx, in.RequestedBy, ActionRequested, map[string]interface{}{
			"id":     w.ID,
			"gym_id": w.GymID,
			"amount": w.Amount.String(),
		})
	})
	return w, nil
}

// Settle marks a pending withdrawal as paid out.
func (s *service) Settle(ctx context.Context, in SettleInput) (w *models.Withdrawal, err error) {
	start := s.clock.Now()
	defer func() { err = s.observe(OpSettle, start, err) }()

	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return nil, apperrors.Validation("reference", "settlement reference is required")
	}
	if len(reference) > maxReferenceLength {
		return nil, apperrors.Validation("reference", "is too long")
	}

	w, err = s.resolve(ctx, in.WithdrawalID, repositories.WithdrawalResolution{
		Status:              models.WithdrawalCompleted,
		ProcessedBy:         in.AdminID,
		SettlementReference: reference,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordVolume(OpSettle, w.Amount)
	s.log.Info("withdrawal settled",
		zap.Uint("withdrawal_id", w.ID),
		zap.Uint("gym_id", w.GymID),
		zap.Uint("admin_id", in.AdminID),
		zap.String("reference", reference),
	)
	s.afterCommit(ctx, OpSettle,
		func(ctx context.Context) error {
			return s.sink.RecordAudit(ctx, in.AdminID, ActionSettled, map[string]interface{}{
				"id":        w.ID,
				"gym_id":    w.GymID,
				"amount":    w.Amount.String(),
				"reference": reference,
			})
		},
		func(ctx context.Context) error {
			return s.sink.EnqueueNotification(ctx, w.GymID, "Withdrawal completed",
				fmt.Sprintf("Your withdrawal of %s has been paid. Reference: %s.", w.Amount, reference))
		},
	)
	return w, nil
}

// Reject fails a pending withdrawal and returns its amount to the balance.
func (s *service) Reject(ctx context.Context, in RejectInput) (w *models.Withdrawal, err error) {
	start := s.clock.Now()
	defer func() { err = s.observe(OpReject, start, err) }()

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperrors.Validation("reason", "rejection reason is required")
	}
	if len(reason) > maxReasonLength {
		return nil, apperrors.Validation("reason", "is too long")
	}

	w, err = s.resolve(ctx, in.WithdrawalID, repositories.WithdrawalResolution{
		Status:         models.WithdrawalFailed,
		ProcessedBy:    in.AdminID,
		ResolutionNote: reason,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal rejected",
		zap.Uint("withdrawal_id", w.ID),
		zap.Uint("gym_id", w.GymID),
		zap.Uint("admin_id", in.AdminID),
	)
	s.afterCommit(ctx, OpReject,
		func(ctx context.Context) error {
			return s.sink.RecordAudit(ctx, in.AdminID, ActionRejected, map[string]interface{}{
				"id":     w.ID,
				"gym_id": w.GymID,
				"amount": w.Amount.String(),
				"reason": reason,
			})
		},
		func(ctx context.Context) error {
			return s.sink.EnqueueNotification(ctx, w.GymID, "Withdrawal failed",
				fmt.Sprintf("Your withdrawal of %s was not paid: %s. The amount is back in your balance.", w.Amount, reason))
		},
	)
	return w, nil
}

// resolve moves a pending withdrawal to res.Status in one transaction. A
// failed withdrawal is credited back to the gym in the same transaction.
func (s *service) resolve(ctx context.Context, id uint, res repositories.WithdrawalResolution) (*models.Withdrawal, error) {
	res.ProcessedAt = s.clock.Now().UTC()

	var w *models.Withdrawal
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		var err error
		w, err = tx.LockWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		if !w.IsPending() {
			return apperrors.AlreadyResolved("withdrawal", id, w.Status)
		}
		if err := tx.ResolveWithdrawal(ctx, id, res); err != nil {
			return err
		}
		if res.Status == models.WithdrawalFailed {
			if err := tx.Credit(ctx, w.GymID, w.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, repositories.ToDomainError("resolve withdrawal", err)
	}

	processedAt, processedBy := res.ProcessedAt, res.ProcessedBy
	w.Status = res.Status
	w.ProcessedAt = &processedAt
	w.ProcessedBy = &processedBy
	w.SettlementReference = res.SettlementReference
	w.ResolutionNote = res.ResolutionNote
	return w, nil
}

func (s *service) ListWithdrawals(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Status == "" {
		f.Status = models.WithdrawalPending
	}
	if !models.IsWithdrawalStatus(f.Status) {
		return nil, apperrors.Validation("status", "must be pending, completed or failed")
	}
	if f.RequestedFrom != nil && f.RequestedTo != nil && f.RequestedTo.Before(*f.RequestedFrom) {
		return nil, apperrors.Validation("requested_to", "must not be before requested_from")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}

	items, total, err := s.repo.ListWithdrawals(ctx, repositories.WithdrawalQuery{
		GymID:         f.GymID,
		Status:        f.Status,
		RequestedFrom: f.RequestedFrom,
		RequestedTo:   f.RequestedTo,
		Limit:         f.Limit,
		Offset:        (f.Page - 1) * f.Limit,
	})
	if err != nil {
		return nil, repositories.ToDomainError("list withdrawals", err)
	}
	return &Page{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *service) GetWithdrawal(ctx context.Context, id uint) (*models.Withdrawal, error) {
	w, err := s.repo.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, repositories.ToDomainError("load withdrawal", err)
	}
	return w, nil
}
