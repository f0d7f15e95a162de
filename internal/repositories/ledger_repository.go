package repositories

import (
	"context"
	"errors"
	"time"

	"gymledger/internal/models"
	"gymledger/internal/money"
)

var (
	ErrAccountNotFound    = errors.New("gym account not found")
	ErrDuplicateAccount   = errors.New("gym account already exists")
	ErrEntryNotFound      = errors.New("revenue entry not found")
	ErrDuplicateReversal  = errors.New("revenue entry already reversed")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrInsufficientFunds  = errors.New("balance below requested amount")
	ErrStatusConflict     = errors.New("withdrawal is no longer pending")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrMembershipNotFound = errors.New("membership not found")
)

// LedgerRepository is the durable store behind gym balances, revenue
// entries and withdrawals. Mutations that must be atomic together run
// through ExecuteInTransaction, which hands the callback a repository bound
// to the transaction.
type LedgerRepository interface {
	// Accounts
	CreateAccount(ctx context.Context, account *models.GymAccount) error
	GetAccount(ctx context.Context, gymID uint) (*models.GymAccount, error)
	LockAccount(ctx context.Context, gymID uint) (*models.GymAccount, error)
	ListAccountIDs(ctx context.Context) ([]uint, error)
	Credit(ctx context.Context, gymID uint, amount money.Amount) error
	Debit(ctx context.Context, gymID uint, amount money.Amount) error

	// Revenue entries
	CreateEntry(ctx context.Context, entry *models.RevenueEntry) error
	GetEntry(ctx context.Context, id uint) (*models.RevenueEntry, error)
	HasReversal(ctx context.Context, entryID uint) (bool, error)
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	GetMembership(ctx context.Context, id uint) (*models.Membership, error)

	// Withdrawals
	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error
	GetWithdrawal(ctx context.Context, id uint) (*models.Withdrawal, error)
	LockWithdrawal(ctx context.Context, id uint) (*models.Withdrawal, error)
	ResolveWithdrawal(ctx context.Context, id uint, res WithdrawalResolution) error
	ListWithdrawals(ctx context.Context, q WithdrawalQuery) ([]models.Withdrawal, int64, error)

	// Reconciliation
	SumGymShare(ctx context.Context, gymID uint) (money.Amount, error)
	SumWithdrawals(ctx context.Context, gymID uint, statuses ...string) (money.Amount, error)

	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error
}

// WithdrawalResolution is the terminal state a pending withdrawal moves to.
type WithdrawalResolution struct {
	Status              string
	ProcessedAt         time.Time
	ProcessedBy         uint
	SettlementReference string
	ResolutionNote      string
}

type WithdrawalQuery struct {
	GymID         *uint
	Status        string
	RequestedFrom *time.Time
	RequestedTo   *time.Time
	Limit         int
	Offset        int
}
