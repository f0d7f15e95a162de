package report

import (
	"context"
	"fmt"
	"time"

	"gymledger/internal/clock"
	"gymledger/internal/metrics"
	"gymledger/internal/money"

	"go.uber.org/zap"
)

type Dimension string

const (
	ByDay    Dimension = "day"
	ByGym    Dimension = "gym"
	ByStatus Dimension = "status"
	ByTier   Dimension = "tier"
	BySource Dimension = "source"
)

func (d Dimension) Valid() bool {
	switch d {
	case ByDay, ByGym, ByStatus, ByTier, BySource:
		return true
	}
	return false
}

// Filter selects the entries a report covers. Either Preset or both Start
// and End may be given; with neither the current month is used.
type Filter struct {
	Preset     string
	Start      *time.Time
	End        *time.Time
	GymID      *uint
	Tier       string
	SourceType string
}

// cacheKey identifies a report once its range is resolved.
func (f Filter) cacheKey(d Dimension, r DateRange) string {
	gym := "all"
	if f.GymID != nil {
		gym = fmt.Sprint(*f.GymID)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", d, r, gym, f.Tier, f.SourceType)
}

// Bucket is one row of a report. For the status dimension Count is the
// number of withdrawals and Amount their sum; otherwise Count is the number
// of revenue entries.
type Bucket struct {
	Key         string       `json:"key"`
	Count       int64        `json:"count"`
	Gross       money.Amount `json:"gross"`
	PlatformCut money.Amount `json:"platform_cut"`
	GymShare    money.Amount `json:"gym_share"`
	Amount      money.Amount `json:"amount,omitempty"`
}

type Totals struct {
	EntryCount  int64        `json:"entry_count"`
	Gross       money.Amount `json:"gross"`
	PlatformCut money.Amount `json:"platform_cut"`
	GymShare    money.Amount `json:"gym_share"`
	Withdrawn   money.Amount `json:"withdrawn"`
	Pending     money.Amount `json:"pending"`
}

type Summary struct {
	Dimension Dimension `json:"dimension"`
	Preset    string    `json:"preset,omitempty"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Timezone  string    `json:"timezone"`
	Buckets   []Bucket  `json:"buckets"`
	Totals    Totals    `json:"totals"`
}

// Service produces read-only revenue and withdrawal summaries.
type Service interface {
	Aggregate(ctx context.Context, f Filter, d Dimension) (*Summary, error)
}

// Cache stores rendered summaries keyed by the cache generation they were
// computed under. Every ledger write advances the generation.
type Cache interface {
	ReportGeneration(ctx context.Context) (int64, error)
	GetReport(ctx context.Context, gen int64, filterKey string, dest interface{}) (bool, error)
	SetReport(ctx context.Context, gen int64, filterKey string, value interface{}) error
}

type Options struct {
	Location *time.Location
	Clock    clock.Clock
	Metrics  metrics.Collector
	Cache    Cache
	Logger   *zap.Logger
}
