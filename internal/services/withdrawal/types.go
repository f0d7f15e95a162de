package withdrawal

import (
	"time"

	"gymledger/internal/clock"
	"gymledger/internal/metrics"
	"gymledger/internal/models"
	"gymledger/internal/money"

	"go.uber.org/zap"
)

type RequestInput struct {
	GymID       uint
	Amount      money.Amount
	RequestedBy uint
}

// SettleInput marks a withdrawal paid. Reference identifies the payout in
// the bank or payment provider and is mandatory.
type SettleInput struct {
	WithdrawalID uint
	Reference    string
	AdminID      uint
}

type RejectInput struct {
	WithdrawalID uint
	Reason       string
	AdminID      uint
}

// ListFilter narrows the admin withdrawal queue. Status defaults to pending.
type ListFilter struct {
	GymID         *uint
	Status        string
	RequestedFrom *time.Time
	RequestedTo   *time.Time
	Page          int
	Limit         int
}

type Page struct {
	Items []models.Withdrawal `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

type Options struct {
	Clock   clock.Clock
	Metrics metrics.Collector
	Cache   ReportCache
	Logger  *zap.Logger
}
