package report

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gymledger/internal/clock"
	apperrors "gymledger/internal/errors"
	"gymledger/internal/metrics"
	"gymledger/internal/models"
	"gymledger/internal/repositories"

	"go.uber.org/zap"
)

const (
	dayLayout = "2006-01-02"

	// MaxSeriesDays bounds the zero-filled day series.
	MaxSeriesDays = 731

	OpAggregate = "report.aggregate"
	cacheName   = "report"
)

type service struct {
	repo    repositories.ReportRepository
	loc     *time.Location
	clock   clock.Clock
	metrics metrics.Collector
	cache   Cache
	log     *zap.Logger
}

// NewService creates a report aggregator. Dates are interpreted in
// opts.Location, UTC when unset.
func NewService(repo repositories.ReportRepository, opts Options) Service {
	if repo == nil {
		panic("report repository is required")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopCollector{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &service{
		repo:    repo,
		loc:     opts.Location,
		clock:   opts.Clock,
		metrics: opts.Metrics,
		cache:   opts.Cache,
		log:     opts.Logger.Named("report.service"),
	}
}

func (s *service) Aggregate(ctx context.Context, f Filter, d Dimension) (summary *Summary, err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpAggregate, s.clock.Now().Sub(start))
		if err != nil {
			s.metrics.RecordOperationResult(OpAggregate, "failure")
			s.metrics.RecordError(OpAggregate, apperrors.CodeOf(err))
			return
		}
		s.metrics.RecordOperationResult(OpAggregate, "success")
	}()

	if !d.Valid() {
		return nil, apperrors.Validation("dimension", fmt.Sprintf("unknown dimension %q", d))
	}
	if f.SourceType != "" && !models.IsRevenueSource(f.SourceType) && f.SourceType != models.SourceReversal {
		return nil, apperrors.Validation("source_type", fmt.Sprintf("unknown source type %q", f.SourceType))
	}
	r, err := s.resolveRange(f)
	if err != nil {
		return nil, err
	}
	if d == ByDay && r.Days() > MaxSeriesDays {
		return nil, apperrors.Validation("end", fmt.Sprintf("day series is limited to %d days", MaxSeriesDays))
	}

	key := f.cacheKey(d, r)
	gen, cacheable := s.generation(ctx)
	if cacheable {
		if cached, ok := s.cached(ctx, gen, key); ok {
			return cached, nil
		}
	}

	from, to := r.Bounds()
	q := repositories.ReportQuery{
		From:       from.UTC(),
		To:         to.UTC(),
		GymID:      f.GymID,
		Tier:       f.Tier,
		SourceType: f.SourceType,
	}

	summary = &Summary{
		Dimension: d,
		Preset:    f.Preset,
		Start:     r.From.Format(dayLayout),
		End:       r.To.Format(dayLayout),
		Timezone:  s.loc.String(),
		Buckets:   []Bucket{},
	}
	// totals and buckets read one snapshot so they always agree
	err = s.repo.Snapshot(ctx, func(repo repositories.ReportRepository) error {
		if err := s.fillTotals(ctx, repo, q, &summary.Totals); err != nil {
			return err
		}
		var buckets []Bucket
		var err error
		switch d {
		case ByDay:
			buckets, err = s.byDay(ctx, repo, q, r)
		case ByStatus:
			buckets, err = s.byStatus(ctx, repo, q)
		case ByGym:
			buckets, err = s.grouped(ctx, repo, q, repositories.GroupByGym)
		case ByTier:
			buckets, err = s.grouped(ctx, repo, q, repositories.GroupByTier)
		case BySource:
			buckets, err = s.grouped(ctx, repo, q, repositories.GroupBySource)
		}
		if err != nil {
			return err
		}
		summary.Buckets = buckets
		return nil
	})
	if err != nil {
		return nil, apperrors.LedgerWriteFailed(OpAggregate, err)
	}

	if cacheable {
		s.store(ctx, gen, key, summary)
	}
	return summary, nil
}

func (s *service) resolveRange(f Filter) (DateRange, error) {
	explicit := f.Start != nil || f.End != nil
	switch {
	case f.Preset != "" && explicit:
		return DateRange{}, apperrors.Validation("preset", "use either a preset or start/end dates, not both")
	case f.Preset != "":
		return ResolvePreset(f.Preset, s.clock.Now().In(s.loc))
	case f.Start == nil:
		if f.End != nil {
			return DateRange{}, apperrors.Validation("start", "start is required with end")
		}
		return ResolvePreset(PresetThisMonth, s.clock.Now().In(s.loc))
	case f.End == nil:
		return DateRange{}, apperrors.Validation("end", "end is required with start")
	}
	return NewDateRange(s.inLocation(*f.Start), s.inLocation(*f.End))
}

// inLocation keeps the calendar date of t and moves it to the business zone.
func (s *service) inLocation(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *service) fillTotals(ctx context.Context, repo repositories.ReportRepository, q repositories.ReportQuery, t *Totals) error {
	entries, err := repo.Totals(ctx, q)
	if err != nil {
		return err
	}
	t.EntryCount = entries.EntryCount
	t.Gross = entries.Gross
	t.PlatformCut = entries.PlatformCut
	t.GymShare = entries.GymShare

	statuses, err := repo.WithdrawalsByStatus(ctx, q)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		switch st.Status {
		case models.WithdrawalCompleted:
			t.Withdrawn += st.Amount
		case models.WithdrawalPending:
			t.Pending += st.Amount
		}
	}
	return nil
}

func (s *service) byDay(ctx context.Context, repo repositories.ReportRepository, q repositories.ReportQuery, r DateRange) ([]Bucket, error) {
	buckets := make([]Bucket, 0, r.Days())
	index := make(map[string]int, r.Days())
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		index[key] = len(buckets)
		buckets = append(buckets, Bucket{Key: key})
	}

	err := repo.EachEntry(ctx, q, func(p repositories.EntryPoint) error {
		i, ok := index[p.OccurredAt.In(s.loc).Format(dayLayout)]
		if !ok {
			return nil
		}
		b := &buckets[i]
		b.Count++
		b.Gross += p.Gross
		b.PlatformCut += p.PlatformCut
		b.GymShare += p.GymShare
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

func (s *service) byStatus(ctx context.Context, repo repositories.ReportRepository, q repositories.ReportQuery) ([]Bucket, error) {
	rows, err := repo.WithdrawalsByStatus(ctx, q)
	if err != nil {
		return nil, err
	}
	buckets := make([]Bucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, Bucket{Key: row.Status, Count: row.WithdrawalCount, Amount: row.Amount})
	}
	return buckets, nil
}

func (s *service) grouped(ctx context.Context, repo repositories.ReportRepository, q repositories.ReportQuery, g repositories.Grouping) ([]Bucket, error) {
	rows, err := repo.GroupTotals(ctx, q, g)
	if err != nil {
		return nil, err
	}
	buckets := make([]Bucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, Bucket{
			Key:         row.Bucket,
			Count:       row.EntryCount,
			Gross:       row.Gross,
			PlatformCut: row.PlatformCut,
			GymShare:    row.GymShare,
		})
	}
	if g == repositories.GroupByGym {
		// gym ids come back as text; order them numerically
		sort.SliceStable(buckets, func(i, j int) bool {
			a, _ := strconv.ParseUint(buckets[i].Key, 10, 64)
			b, _ := strconv.ParseUint(buckets[j].Key, 10, 64)
			return a < b
		})
	}
	return buckets, nil
}

// generation reads the report cache generation once, before any query, so
// a result computed across a concurrent write is stored under the
// generation that write retires.
func (s *service) generation(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.ReportGeneration(ctx)
	if err != nil {
		s.log.Warn("report cache generation read failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *service) cached(ctx context.Context, gen int64, key string) (*Summary, bool) {
	var summary Summary
	found, err := s.cache.GetReport(ctx, gen, key, &summary)
	if err != nil {
		s.log.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !found {
		s.metrics.RecordCacheMiss(cacheName)
		return nil, false
	}
	s.metrics.RecordCacheHit(cacheName)
	return &summary, true
}

func (s *service) store(ctx context.Context, gen int64, key string, summary *Summary) {
	if err := s.cache.SetReport(ctx, gen, key, summary); err != nil {
		s.log.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
