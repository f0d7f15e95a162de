package ledger

import (
	"context"
	"time"

	"gymledger/internal/clock"
	"gymledger/internal/metrics"
	"gymledger/internal/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OpenAccountInput struct {
	GymID   uint
	Name    string
	OwnerID uint
}

// RecordRevenueInput describes one billable event. BookingID and
// MembershipID are optional links back to the event's source record; at most
// one may be set and it must match SourceType.
type RecordRevenueInput struct {
	GymID        uint
	SourceType   string
	Gross        money.Amount
	OccurredAt   time.Time
	BookingID    *uint
	MembershipID *uint
	Description  string
	RecordedBy   uint
}

type ReverseEntryInput struct {
	EntryID uint
	Reason  string
	ActorID uint
}

// Reconciliation compares a stored balance with the one implied by the
// gym's entries and withdrawals.
type Reconciliation struct {
	GymID    uint         `json:"gym_id"`
	Balance  money.Amount `json:"balance"`
	Expected money.Amount `json:"expected"`
	Drift    money.Amount `json:"drift"`
}

func (r Reconciliation) Balanced() bool {
	return r.Drift == 0
}

// Options carries the optional collaborators of the service.
type Options struct {
	Clock   clock.Clock
	Metrics metrics.Collector
	Cache   ReportCache
	Logger  *zap.Logger
}

type fixedCommission struct {
	rate decimal.Decimal
}

// FixedCommission returns a CommissionSource that always answers rate.
func FixedCommission(rate decimal.Decimal) CommissionSource {
	return fixedCommission{rate: rate}
}

func (f fixedCommission) CommissionPercent(context.Context) (decimal.Decimal, error) {
	return f.rate, nil
}
