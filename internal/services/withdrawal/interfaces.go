// Package withdrawal implements the payout workflow: gyms request
// withdrawals against their balance and administrators settle or reject them.
package withdrawal

import (
	"context"

	"gymledger/internal/models"
)

type Service interface {
	RequestWithdrawal(ctx context.Context, in RequestInput) (*models.Withdrawal, error)
	Settle(ctx context.Context, in SettleInput) (*models.Withdrawal, error)
	Reject(ctx context.Context, in RejectInput) (*models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, f ListFilter) (*Page, error)
	GetWithdrawal(ctx context.Context, id uint) (*models.Withdrawal, error)
}

type ReportCache interface {
	InvalidateReports(ctx context.Context) error
}
