package repositories

import (
	"context"
	"errors"
	"fmt"

	"gymledger/internal/models"
	"gymledger/internal/money"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		db: db,
	}
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}

func (r *ledgerRepository) CreateAccount(ctx context.Context, account *models.GymAccount) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("failed to create gym account: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetAccount(ctx context.Context, gymID uint) (*models.GymAccount, error) {
	return r.findAccount(r.db.WithContext(ctx), gymID)
}

// LockAccount reads the account holding a row lock until the surrounding
// transaction ends.
func (r *ledgerRepository) LockAccount(ctx context.Context, gymID uint) (*models.GymAccount, error) {
	return r.findAccount(forUpdate(r.db.WithContext(ctx)), gymID)
}

func (r *ledgerRepository) findAccount(db *gorm.DB, gymID uint) (*models.GymAccount, error) {
	var account models.GymAccount
	if err := db.Where("gym_id = ?", gymID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get gym account: %w", err)
	}
	return &account, nil
}

func (r *ledgerRepository) ListAccountIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.GymAccount{}).Order("gym_id").Pluck("gym_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list gym accounts: %w", err)
	}
	return ids, nil
}

func (r *ledgerRepository) Credit(ctx context.Context, gymID uint, amount money.Amount) error {
	result := r.db.WithContext(ctx).Model(&models.GymAccount{}).
		Where("gym_id = ?", gymID).
		Update("balance", gorm.Expr("balance + ?", int64(amount)))
	if result.Error != nil {
		return fmt.Errorf("failed to credit gym account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Debit lowers the balance only if it covers amount.
func (r *ledgerRepository) Debit(ctx context.Context, gymID uint, amount money.Amount) error {
	result := r.db.WithContext(ctx).Model(&models.GymAccount{}).
		Where("gym_id = ? AND balance >= ?", gymID, int64(amount)).
		Update("balance", gorm.Expr("balance - ?", int64(amount)))
	if result.Error != nil {
		return fmt.Errorf("failed to debit gym account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetAccount(ctx, gymID); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

func (r *ledgerRepository) CreateEntry(ctx context.Context, entry *models.RevenueEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if entry.ReversalOfID != nil && isDuplicateKeyErr(err) {
			return ErrDuplicateReversal
		}
		return fmt.Errorf("failed to create revenue entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetEntry(ctx context.Context, id uint) (*models.RevenueEntry, error) {
	var entry models.RevenueEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get revenue entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) HasReversal(ctx context.Context, entryID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RevenueEntry{}).
		Where("reversal_of_id = ?", entryID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reversal: %w", err)
	}
	return n > 0, nil
}

func (r *ledgerRepository) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *ledgerRepository) GetMembership(ctx context.Context, id uint) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).First(&membership, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &membership, nil
}

func (r *ledgerRepository) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetWithdrawal(ctx context.Context, id uint) (*models.Withdrawal, error) {
	return r.findWithdrawal(r.db.WithContext(ctx), id)
}

func (r *ledgerRepository) LockWithdrawal(ctx context.Context, id uint) (*models.Withdrawal, error) {
	return r.findWithdrawal(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *ledgerRepository) findWithdrawal(db *gorm.DB, id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := db.First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return &w, nil
}

// ResolveWithdrawal moves a withdrawal out of pending. The status guard in
// the WHERE clause makes the transition a compare-and-swap: a second caller
// gets ErrStatusConflict.
func (r *ledgerRepository) ResolveWithdrawal(ctx context.Context, id uint, res WithdrawalResolution) error {
	result := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, models.WithdrawalPending).
		Updates(map[string]interface{}{
			"status":               res.Status,
			"processed_at":         res.ProcessedAt,
			"processed_by":         res.ProcessedBy,
			"settlement_reference": res.SettlementReference,
			"resolution_note":      res.ResolutionNote,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to resolve withdrawal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *ledgerRepository) ListWithdrawals(ctx context.Context, q WithdrawalQuery) ([]models.Withdrawal, int64, error) {
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Withdrawal{}).Scopes(
			withdrawalsForGym(q.GymID),
			withdrawalsWithStatus(q.Status),
			withdrawalsRequestedBetween(q.RequestedFrom, q.RequestedTo),
		)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}

	var items []models.Withdrawal
	err := query().Scopes(paginate(q.Limit, q.Offset)).
		Order("requested_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return items, total, nil
}

func (r *ledgerRepository) SumGymShare(ctx context.Context, gymID uint) (money.Amount, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.RevenueEntry{}).
		Where("gym_id = ?", gymID).
		Select("CAST(COALESCE(SUM(gym_share), 0) AS BIGINT)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum gym share: %w", err)
	}
	return money.Amount(total), nil
}

func (r *ledgerRepository) SumWithdrawals(ctx context.Context, gymID uint, statuses ...string) (money.Amount, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("gym_id = ? AND status IN ?", gymID, statuses).
		Select("CAST(COALESCE(SUM(amount), 0) AS BIGINT)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum withdrawals: %w", err)
	}
	return money.Amount(total), nil
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite has no row locks; it
// serializes writers on the database file instead.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
