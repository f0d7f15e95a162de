package ledger

import (
	"context"

	"gymledger/internal/models"

	"github.com/shopspring/decimal"
)

// Service defines the revenue recorder and balance operations
type Service interface {
	// Accounts
	OpenAccount(ctx context.Context, in OpenAccountInput) (*models.GymAccount, error)
	GetAccount(ctx context.Context, gymID uint) (*models.GymAccount, error)

	// Revenue
	RecordRevenue(ctx context.Context, in RecordRevenueInput) (*models.RevenueEntry, error)
	ReverseEntry(ctx context.Context, in ReverseEntryInput) (*models.RevenueEntry, error)

	// Reconciliation
	Reconcile(ctx context.Context, gymID uint) (*Reconciliation, error)
	ReconcileAll(ctx context.Context) ([]Reconciliation, error)
}

// CommissionSource supplies the platform commission rate in percent.
type CommissionSource interface {
	CommissionPercent(ctx context.Context) (decimal.Decimal, error)
}

// ReportCache is told when ledger writes make cached reports stale.
type ReportCache interface {
	InvalidateReports(ctx context.Context) error
}
