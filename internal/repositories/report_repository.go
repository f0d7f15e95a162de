package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymledger/internal/models"
	"gymledger/internal/money"

	"gorm.io/gorm"
)

// tierExpr resolves the plan tier of an entry through its membership, or
// through the membership the booking was made under.
const tierExpr = "COALESCE(p.tier, '" + models.TierUnassigned + "')"

type Grouping string

const (
	GroupByGym    Grouping = "gym"
	GroupByTier   Grouping = "tier"
	GroupBySource Grouping = "source"
)

var groupColumns = map[Grouping]string{
	GroupByGym:    "CAST(e.gym_id AS TEXT)",
	GroupByTier:   tierExpr,
	GroupBySource: "e.source_type",
}

// ReportQuery selects revenue entries with OccurredAt in [From, To).
type ReportQuery struct {
	From       time.Time
	To         time.Time
	GymID      *uint
	Tier       string
	SourceType string
}

type EntryTotals struct {
	Bucket      string
	EntryCount  int64
	Gross       money.Amount
	PlatformCut money.Amount
	GymShare    money.Amount
}

type EntryPoint struct {
	OccurredAt  time.Time
	Gross       money.Amount
	PlatformCut money.Amount
	GymShare    money.Amount
}

type StatusTotals struct {
	Status          string
	WithdrawalCount int64
	Amount          money.Amount
}

// ReportRepository runs the read-only aggregate queries behind reports.
type ReportRepository interface {
	Totals(ctx context.Context, q ReportQuery) (EntryTotals, error)
	GroupTotals(ctx context.Context, q ReportQuery, g Grouping) ([]EntryTotals, error)
	EachEntry(ctx context.Context, q ReportQuery, fn func(EntryPoint) error) error
	WithdrawalsByStatus(ctx context.Context, q ReportQuery) ([]StatusTotals, error)

	// Snapshot runs fn against a repository whose queries all read the same
	// committed state.
	Snapshot(ctx context.Context, fn func(ReportRepository) error) error
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Snapshot(ctx context.Context, fn func(ReportRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&reportRepository{db: tx})
	}, snapshotOptions(r.db))
}

// snapshotOptions asks for a read-only repeatable-read transaction. SQLite
// transactions are already serializable and its driver rejects explicit
// isolation levels.
func snapshotOptions(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

const totalsColumns = "COUNT(e.id) AS entry_count, " +
	"CAST(COALESCE(SUM(e.gross_amount), 0) AS BIGINT) AS gross, " +
	"CAST(COALESCE(SUM(e.platform_cut), 0) AS BIGINT) AS platform_cut, " +
	"CAST(COALESCE(SUM(e.gym_share), 0) AS BIGINT) AS gym_share"

func (r *reportRepository) entries(ctx context.Context, q ReportQuery) *gorm.DB {
	return r.db.WithContext(ctx).Table("revenue_entries AS e").
		Joins("LEFT JOIN bookings b ON b.id = e.booking_id").
		Joins("LEFT JOIN memberships m ON m.id = COALESCE(e.membership_id, b.membership_id)").
		Joins("LEFT JOIN membership_plans p ON p.id = m.plan_id").
		Scopes(
			entriesOccurredBetween(q.From, q.To),
			entriesForGym(q.GymID),
			entriesWithSource(q.SourceType),
			entriesInTier(q.Tier),
		)
}

func (r *reportRepository) Totals(ctx context.Context, q ReportQuery) (EntryTotals, error) {
	var totals EntryTotals
	if err := r.entries(ctx, q).Select(totalsColumns).Scan(&totals).Error; err != nil {
		return EntryTotals{}, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	return totals, nil
}

func (r *reportRepository) GroupTotals(ctx context.Context, q ReportQuery, g Grouping) ([]EntryTotals, error) {
	col, ok := groupColumns[g]
	if !ok {
		return nil, fmt.Errorf("unknown grouping %q", g)
	}
	var rows []EntryTotals
	err := r.entries(ctx, q).
		Select(col + " AS bucket, " + totalsColumns).
		Group(col).
		Order("bucket").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue by %s: %w", g, err)
	}
	return rows, nil
}

// EachEntry streams matching entries in occurrence order.
func (r *reportRepository) EachEntry(ctx context.Context, q ReportQuery, fn func(EntryPoint) error) error {
	rows, err := r.entries(ctx, q).
		Select("e.occurred_at, e.gross_amount, e.platform_cut, e.gym_share").
		Order("e.occurred_at").
		Rows()
	if err != nil {
		return fmt.Errorf("failed to read revenue entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p EntryPoint
		var gross, cut, share int64
		if err := rows.Scan(&p.OccurredAt, &gross, &cut, &share); err != nil {
			return fmt.Errorf("failed to scan revenue entry: %w", err)
		}
		p.Gross, p.PlatformCut, p.GymShare = money.Amount(gross), money.Amount(cut), money.Amount(share)
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

// WithdrawalsByStatus groups withdrawals requested in the window. Tier and
// source filters do not apply to withdrawals.
func (r *reportRepository) WithdrawalsByStatus(ctx context.Context, q ReportQuery) ([]StatusTotals, error) {
	from, to := q.From, q.To
	var rows []StatusTotals
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Scopes(withdrawalsForGym(q.GymID), withdrawalsRequestedBetween(&from, &to)).
		Select("status, COUNT(*) AS withdrawal_count, CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS amount").
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate withdrawals: %w", err)
	}
	return rows, nil
}
