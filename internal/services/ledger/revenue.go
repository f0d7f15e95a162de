package ledger

import (
	"context"
	"strings"

	apperrors "gymledger/internal/errors"
	"gymledger/internal/models"
	"gymledger/internal/money"
	"gymledger/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *service) RecordRevenue(ctx context.Context, in RecordRevenueInput) (entry *models.RevenueEntry, err error) {
	start := s.clock.Now()
	defer func() { err = s.observe(OpRecordRevenue, start, err) }()

	if err := validateRecordInput(in); err != nil {
		return nil, err
	}
	if err := s.checkSourceReference(ctx, in); err != nil {
		return nil, err
	}

	rate, err := s.commission.CommissionPercent(ctx)
	if err != nil {
		return nil, apperrors.LedgerWriteFailed("load commission rate", err)
	}
	cut, share := money.Split(in.Gross, rate)

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	entry = &models.RevenueEntry{
		Reference:      uuid.NewString(),
		GymID:          in.GymID,
		SourceType:     in.SourceType,
		GrossAmount:    in.Gross,
		PlatformCut:    cut,
		GymShare:       share,
		CommissionRate: rate.String(),
		BookingID:      in.BookingID,
		MembershipID:   in.MembershipID,
		Description:    strings.TrimSpace(in.Description),
		RecordedBy:     in.RecordedBy,
		OccurredAt:     occurredAt.UTC(),
	}

	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		if err := tx.Credit(ctx, in.GymID, share); err != nil {
			return err
		}
		return tx.CreateEntry(ctx, entry)
	})
	if err != nil {
		return nil, repositories.ToDomainError("record revenue", err)
	}

	s.metrics.RecordVolume(OpRecordRevenue, in.Gross)
	s.log.Info("revenue recorded",
		zap.Uint("gym_id", entry.GymID),
		zap.Uint("entry_id", entry.ID),
		zap.String("gross", entry.GrossAmount.String()),
		zap.String("gym_share", entry.GymShare.String()),
	)
	s.afterCommit(ctx, OpRecordRevenue, func(ctx context.Context) error {
		return s.sink.RecordAudit(ctx, in.RecordedBy, ActionRevenueRecorded, map[string]interface{}{
			"id":           entry.ID,
			"gym_id":       entry.GymID,
			"source_type":  entry.SourceType,
			"gross":        entry.GrossAmount.String(),
			"platform_cut": entry.PlatformCut.String(),
			"gym_share":    entry.GymShare.String(),
		})
	})
	return entry, nil
}

func validateRecordInput(in RecordRevenueInput) error {
	if in.GymID == 0 {
		return apperrors.Validation("gym_id", "is required")
	}
	if !in.Gross.IsPositive() {
		return apperrors.Validation("gross_amount", "must be greater than zero")
	}
	if !models.IsRevenueSource(in.SourceType) {
		return apperrors.Validation("source_type", "must be membership_purchase or booking")
	}
	if in.BookingID != nil && in.MembershipID != nil {
		return apperrors.Validation("source_ref", "set either booking_id or membership_id, not both")
	}
	if in.BookingID != nil && in.SourceType != models.SourceBooking {
		return apperrors.Validation("booking_id", "only allowed for booking revenue")
	}
	if in.MembershipID != nil && in.SourceType != models.SourceMembershipPurchase {
		return apperrors.Validation("membership_id", "only allowed for membership purchases")
	}
	if len(in.Description) > maxDescriptionLength {
		return apperrors.Validation("description", "is too long")
	}
	return nil
}

// checkSourceReference makes sure a linked booking or membership exists and
// belongs to the gym being credited.
func (s *service) checkSourceReference(ctx context.Context, in RecordRevenueInput) error {
	var ownerGym uint
	switch {
	case in.BookingID != nil:
		b, err := s.repo.GetBooking(ctx, *in.BookingID)
		if err != nil {
			return repositories.ToDomainError("load booking", err)
		}
		ownerGym = b.GymID
	case in.MembershipID != nil:
		m, err := s.repo.GetMembership(ctx, *in.MembershipID)
		if err != nil {
			return repositories.ToDomainError("load membership", err)
		}
		ownerGym = m.GymID
	default:
		return nil
	}
	if ownerGym != in.GymID {
		return apperrors.Validation("source_ref", "belongs to a different gym")
	}
	return nil
}

func (s *service) ReverseEntry(ctx context.Context, in ReverseEntryInput) (reversal *models.RevenueEntry, err error) {
	start := s.clock.Now()
	defer func() { err = s.observe(OpReverseEntry, start, err) }()

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperrors.Validation("reason", "is required")
	}
	if len(reason) > maxDescriptionLength {
		return nil, apperrors.Validation("reason", "is too long")
	}

	var original *models.RevenueEntry
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		var err error
		original, err = tx.GetEntry(ctx, in.EntryID)
		if err != nil {
			return err
		}
		if original.SourceType == models.SourceReversal {
			return apperrors.Validation("entry_id", "reversal entries cannot be reversed")
		}
		reversed, err := tx.HasReversal(ctx, original.ID)
		if err != nil {
			return err
		}
		if reversed {
			return apperrors.AlreadyResolved("revenue entry", original.ID, "reversed")
		}

		account, err := tx.LockAccount(ctx, original.GymID)
		if err != nil {
			return err
		}
		if account.Balance < original.GymShare {
			return apperrors.InsufficientBalance(account.Balance, original.GymShare)
		}
		if err := tx.Debit(ctx, original.GymID, original.GymShare); err != nil {
			return err
		}

		reversal = &models.RevenueEntry{
			Reference:      uuid.NewString(),
			GymID:          original.GymID,
			SourceType:     models.SourceReversal,
			GrossAmount:    -original.GrossAmount,
			PlatformCut:    -original.PlatformCut,
			GymShare:       -original.GymShare,
			CommissionRate: original.CommissionRate,
			BookingID:      original.BookingID,
			MembershipID:   original.MembershipID,
			ReversalOfID:   &original.ID,
			Description:    reason,
			RecordedBy:     in.ActorID,
			OccurredAt:     s.clock.Now().UTC(),
		}
		return tx.CreateEntry(ctx, reversal)
	})
	if err != nil {
		return nil, repositories.ToDomainError("reverse revenue entry", err)
	}

	s.metrics.RecordVolume(OpReverseEntry, reversal.GrossAmount)
	s.afterCommit(ctx, OpReverseEntry, func(ctx context.Context) error {
		return s.sink.RecordAudit(ctx, in.ActorID, ActionRevenueReversed, map[string]interface{}{
			"id":          reversal.ID,
			"reversal_of": original.ID,
			"gym_id":      reversal.GymID,
			"gym_share":   reversal.GymShare.String(),
			"reason":      reason,
		})
	})
	return reversal, nil
}
