package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"gymledger/internal/clock"
	apperrors "gymledger/internal/errors"
	"gymledger/internal/models"
	"gymledger/internal/money"
	"gymledger/internal/repositories"
	"gymledger/internal/repositories/testdb"
	"gymledger/internal/services/ledger"
	"gymledger/internal/services/withdrawal"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) RecordAudit(ctx context.Context, actorID uint, action string, details map[string]interface{}) error {
	return m.Called(ctx, actorID, action, details).Error(0)
}

func (m *MockSink) EnqueueNotification(ctx context.Context, gymID uint, title, body string) error {
	return m.Called(ctx, gymID, title, body).Error(0)
}

// memoryCache keeps summaries as JSON under a generation counter the way the
// Redis cache does.
type memoryCache struct {
	items map[string][]byte
	gen   int64
	hits  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) ReportGeneration(context.Context) (int64, error) {
	return c.gen, nil
}

func (c *memoryCache) GetReport(_ context.Context, gen int64, key string, dest interface{}) (bool, error) {
	raw, ok := c.items[fmt.Sprintf("g%d:%s", gen, key)]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetReport(_ context.Context, gen int64, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[fmt.Sprintf("g%d:%s", gen, key)] = raw
	return nil
}

func (c *memoryCache) InvalidateReports(context.Context) error {
	c.gen++
	return nil
}

// writeAfterReads commits a ledger write once, after a report's reads finish
// but before its result is cached.
type writeAfterReads struct {
	repositories.ReportRepository
	write func()
}

func (w *writeAfterReads) Snapshot(ctx context.Context, fn func(repositories.ReportRepository) error) error {
	err := w.ReportRepository.Snapshot(ctx, fn)
	if w.write != nil {
		w.write()
		w.write = nil
	}
	return err
}

var errOutsideSnapshot = errors.New("read outside snapshot")

// snapshotOnly fails every read that does not go through Snapshot.
type snapshotOnly struct {
	repositories.ReportRepository
}

func (snapshotOnly) Totals(context.Context, repositories.ReportQuery) (repositories.EntryTotals, error) {
	return repositories.EntryTotals{}, errOutsideSnapshot
}

func (snapshotOnly) GroupTotals(context.Context, repositories.ReportQuery, repositories.Grouping) ([]repositories.EntryTotals, error) {
	return nil, errOutsideSnapshot
}

func (snapshotOnly) EachEntry(context.Context, repositories.ReportQuery, func(repositories.EntryPoint) error) error {
	return errOutsideSnapshot
}

func (snapshotOnly) WithdrawalsByStatus(context.Context, repositories.ReportQuery) ([]repositories.StatusTotals, error) {
	return nil, errOutsideSnapshot
}

type fixture struct {
	db     *gorm.DB
	ledger ledger.Service
	clock  *clock.FakeClock
	repo   repositories.ReportRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	sink := new(MockSink)
	sink.On("RecordAudit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	sink.On("EnqueueNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	clk := clock.NewFakeClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	ledgerSvc := ledger.NewService(repositories.NewLedgerRepository(db), ledger.FixedCommission(decimal.NewFromInt(10)), sink, ledger.Options{Clock: clk})

	ctx := context.Background()
	for _, in := range []ledger.OpenAccountInput{
		{GymID: 1, Name: "Iron Temple", OwnerID: 10},
		{GymID: 2, Name: "Flex Factory", OwnerID: 20},
	} {
		_, err := ledgerSvc.OpenAccount(ctx, in)
		require.NoError(t, err)
	}
	return &fixture{db: db, ledger: ledgerSvc, clock: clk, repo: repositories.NewReportRepository(db)}
}

func (f *fixture) service(opts Options) Service {
	if opts.Clock == nil {
		opts.Clock = f.clock
	}
	return NewService(f.repo, opts)
}

func (f *fixture) record(t *testing.T, in ledger.RecordRevenueInput) {
	t.Helper()
	_, err := f.ledger.RecordRevenue(context.Background(), in)
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

// seedMarch records four March entries across two gyms and three tiers plus
// one February entry that this_month must exclude.
//
//	gym 1  gold membership     1000.00  Mar 1
//	gym 1  basic membership     500.00  Mar 2
//	gym 1  booking (gold)        20.00  Mar 2
//	gym 2  booking (no plan)     30.00  Mar 5
//	gym 2  membership           200.00  Feb 28
func (f *fixture) seedMarch(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	catalog := repositories.NewCatalogRepository(f.db)

	gold := &models.MembershipPlan{GymID: 1, Name: "Gold", Tier: "gold", Price: money.MustParse("1000")}
	basic := &models.MembershipPlan{GymID: 1, Name: "Basic", Tier: "basic", Price: money.MustParse("500")}
	require.NoError(t, catalog.CreatePlan(ctx, gold))
	require.NoError(t, catalog.CreatePlan(ctx, basic))

	goldMember := &models.Membership{GymID: 1, MemberID: 100, PlanID: gold.ID, StartsAt: at(1, 0), EndsAt: at(31, 0)}
	basicMember := &models.Membership{GymID: 1, MemberID: 101, PlanID: basic.ID, StartsAt: at(2, 0), EndsAt: at(31, 0)}
	require.NoError(t, catalog.CreateMembership(ctx, goldMember))
	require.NoError(t, catalog.CreateMembership(ctx, basicMember))

	goldClass := &models.Booking{GymID: 1, MemberID: 100, MembershipID: &goldMember.ID, ClassName: "Spin", ScheduledAt: at(2, 18)}
	dropIn := &models.Booking{GymID: 2, MemberID: 200, ClassName: "Yoga", ScheduledAt: at(5, 9)}
	require.NoError(t, catalog.CreateBooking(ctx, goldClass))
	require.NoError(t, catalog.CreateBooking(ctx, dropIn))

	f.record(t, ledger.RecordRevenueInput{GymID: 1, SourceType: models.SourceMembershipPurchase, Gross: money.MustParse("1000"), MembershipID: &goldMember.ID, OccurredAt: at(1, 10)})
	f.record(t, ledger.RecordRevenueInput{GymID: 1, SourceType: models.SourceMembershipPurchase, Gross: money.MustParse("500"), MembershipID: &basicMember.ID, OccurredAt: at(2, 11)})
	f.record(t, ledger.RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("20"), BookingID: &goldClass.ID, OccurredAt: at(2, 18)})
	f.record(t, ledger.RecordRevenueInput{GymID: 2, SourceType: models.SourceBooking, Gross: money.MustParse("30"), BookingID: &dropIn.ID, OccurredAt: at(5, 9)})
	f.record(t, ledger.RecordRevenueInput{GymID: 2, SourceType: models.SourceMembershipPurchase, Gross: money.MustParse("200"), OccurredAt: time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC)})
}

func keys(buckets []Bucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Key
	}
	return out
}

func TestAggregate_DefaultsToThisMonth(t *testing.T) {
	f := newFixture(t)
	f.seedMarch(t)

	summary, err := f.service(Options{}).Aggregate(context.Background(), Filter{}, ByGym)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", summary.Start)
	assert.Equal(t, "2024-03-31", summary.End)
	assert.Equal(t, int64(4), summary.Totals.EntryCount)
	assert.Equal(t, money.MustParse("1550"), summary.Totals.Gross)
	assert.Equal(t, money.MustParse("155"), summary.Totals.PlatformCut)
	assert.Equal(t, money.MustParse("1395"), summary.Totals.GymShare)
}

func TestAggregate_ByDaySumsToPeriodTotal(t *testing.T) {
	f := newFixture(t)
	f.seedMarch(t)

	summary, err := f.service(Options{}).Aggregate(context.Background(), Filter{Preset: PresetThisMonth}, ByDay)
	require.NoError(t, err)

	require.Len(t, summary.Buckets, 31)
	assert.Equal(t, "2024-03-01", summary.Buckets[0].Key)
	assert.Equal(t, "2024-03-31", summary.Buckets[30].Key)

	assert.Equal(t, money.MustParse("1000"), summary.Buckets[0].Gross)
	assert.Equal(t, money.MustParse("520"), summary.Buckets[1].Gross)
	assert.Equal(t, int64(2), summary.Buckets[1].Count)
	assert.Equal(t, money.Zero, summary.Buckets[2].Gross)
	assert.Equal(t, money.MustParse("30"), summary.Buckets[4].Gross)

	var gross, cut, share money.Amount
	var count int64
	for _, b := range summary.Buckets {
		gross += b.Gross
		cut += b.PlatformCut
		share += b.GymShare
		count += b.Count
	}
	assert.Equal(t, summary.Totals.Gross, gross)
	assert.Equal(t, summary.Totals.PlatformCut, cut)
	assert.Equal(t, summary.Totals.GymShare, share)
	assert.Equal(t, summary.Totals.EntryCount, count)
}

func TestAggregate_ByTier(t *testing.T) {
	f := newFixture(t)
	f.seedMarch(t)

	summary, err := f.service(Options{}).Aggregate(context.Background(), Filter{Preset: PresetThisMonth}, ByTier)
	require.NoError(t, err)

	require.Equal(t, []string{"basic", "gold", models.TierUnassigned}, keys(summary.Buckets))
	assert.Equal(t, money.MustParse("500"), summary.Buckets[0].Gross)
	assert.Equal(t, money.MustParse("1020"), summary.Buckets[1].Gross)
	assert.Equal(t, int64(2), summary.Buckets[1].Count)
	assert.Equal(t, money.MustParse("918"), summary.Buckets[1].GymShare)
	assert.Equal(t, money.MustParse("30"), summary.Buckets[2].Gross)

	t.Run("tier filter", func(t *testing.T) {
		gold, err := f.service(Options{}).Aggregate(context.Background(), Filter{Preset: PresetThisMonth, Tier: "gold"}, ByGym)
		require.NoError(t, err)
		assert.Equal(t, money.MustParse("1020"), gold.Totals.Gross)
		assert.Equal(t, []string{"1"}, keys(gold.Buckets))
	})
}

func TestAggregate_ByGymAndSource(t *testing.T) {
	f := newFixture(t)
	f.seedMarch(t)
	svc := f.service(Options{})
	ctx := context.Background()

	byGym, err := svc.Aggregate(ctx, Filter{Preset: PresetThisMonth}, ByGym)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, keys(byGym.Buckets))
	assert.Equal(t, money.MustParse("1520"), byGym.Buckets[0].Gross)
	assert.Equal(t, money.MustParse("1368"), byGym.Buckets[0].GymShare)
	assert.Equal(t, money.MustParse("30"), byGym.Buckets[1].Gross)

	bySource, err := svc.Aggregate(ctx, Filter{Preset: PresetThisMonth, GymID: ptr(uint(1))}, BySource)
	require.NoError(t, err)
	require.Equal(t, []string{models.SourceBooking, models.SourceMembershipPurchase}, keys(bySource.Buckets))
	assert.Equal(t, money.MustParse("20"), bySource.Buckets[0].Gross)
	assert.Equal(t, money.MustParse("1500"), bySource.Buckets[1].Gross)
}

func TestAggregate_ByStatus(t *testing.T) {
	f := newFixture(t)
	f.seedMarch(t)
	ctx := context.Background()

	sink := new(MockSink)
	sink.On("RecordAudit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	sink.On("EnqueueNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	payouts := withdrawal.NewService(repositories.NewLedgerRepository(f.db), sink, withdrawal.Options{Clock: f.clock})

	paid, err := payouts.RequestWithdrawal(ctx, withdrawal.RequestInput{GymID: 1, Amount: money.MustParse("200"), RequestedBy: 10})
	require.NoError(t, err)
	_, err = payouts.Settle(ctx, withdrawal.SettleInput{WithdrawalID: paid.ID, Reference: "BANK-1", AdminID: 1})
	require.NoError(t, err)
	_, err = payouts.RequestWithdrawal(ctx, withdrawal.RequestInput{GymID: 1, Amount: money.MustParse("100"), RequestedBy: 10})
	require.NoError(t, err)

	summary, err := f.service(Options{}).Aggregate(ctx, Filter{Preset: PresetThisMonth}, ByStatus)
	require.NoError(t, err)

	require.Equal(t, []string{models.WithdrawalCompleted, models.WithdrawalPending}, keys(summary.Buckets))
	assert.Equal(t, int64(1), summary.Buckets[0].Count)
	assert.Equal(t, money.MustParse("200"), summary.Buckets[0].Amount)
	assert.Equal(t, money.MustParse("100"), summary.Buckets[1].Amount)
	assert.Equal(t, money.MustParse("200"), summary.Totals.Withdrawn)
	assert.Equal(t, money.MustParse("100"), summary.Totals.Pending)

	lastMonth, err := f.service(Options{}).Aggregate(ctx, Filter{Preset: PresetLastMonth}, ByStatus)
	require.NoError(t, err)
	assert.Empty(t, lastMonth.Buckets)
}

func TestAggregate_EmptyRangeIsZero(t *testing.T) {
	f := newFixture(t)
	svc := f.service(Options{})

	for _, d := range []Dimension{ByGym, ByTier, BySource, ByStatus} {
		summary, err := svc.Aggregate(context.Background(), Filter{Preset: PresetLastYear}, d)
		require.NoError(t, err, d)
		assert.Empty(t, summary.Buckets, d)
		assert.NotNil(t, summary.Buckets, d)
		assert.Equal(t, Totals{}, summary.Totals, d)
	}

	series, err := svc.Aggregate(context.Background(), Filter{Preset: PresetLast7Days}, ByDay)
	require.NoError(t, err)
	require.Len(t, series.Buckets, 7)
	for _, b := range series.Buckets {
		assert.Equal(t, money.Zero, b.Gross)
		assert.Zero(t, b.Count)
	}
}

func TestAggregate_BucketsDaysInBusinessTimezone(t *testing.T) {
	f := newFixture(t)
	// 02:00 UTC on Mar 2 is still Mar 1 in UTC-5.
	f.record(t, ledger.RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("40"), OccurredAt: at(2, 2)})
	// 03:00 UTC on Mar 1 is Feb 29 in UTC-5.
	f.record(t, ledger.RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("60"), OccurredAt: at(1, 3)})

	est := time.FixedZone("EST", -5*60*60)
	svc := f.service(Options{Location: est})

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	summary, err := svc.Aggregate(context.Background(), Filter{Start: &day, End: &day}, ByDay)
	require.NoError(t, err)

	require.Len(t, summary.Buckets, 1)
	assert.Equal(t, "2024-03-01", summary.Buckets[0].Key)
	assert.Equal(t, money.MustParse("40"), summary.Buckets[0].Gross)
	assert.Equal(t, money.MustParse("40"), summary.Totals.Gross)
	assert.Equal(t, "EST", summary.Timezone)
}

func TestAggregate_ExplicitRangeIsInclusive(t *testing.T) {
	f := newFixture(t)
	f.seedMarch(t)

	start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	summary, err := f.service(Options{}).Aggregate(context.Background(), Filter{Start: &start, End: &end}, ByDay)
	require.NoError(t, err)

	assert.Len(t, summary.Buckets, 4)
	assert.Equal(t, money.MustParse("550"), summary.Totals.Gross)
	assert.Empty(t, summary.Preset)
}

func TestAggregate_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.service(Options{})

	march1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	march9 := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	longAgo := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		dim    Dimension
	}{
		{"start after end", Filter{Start: &march9, End: &march1}, ByGym},
		{"preset with dates", Filter{Preset: PresetToday, Start: &march1, End: &march9}, ByGym},
		{"start without end", Filter{Start: &march1}, ByGym},
		{"end without start", Filter{End: &march9}, ByGym},
		{"unknown preset", Filter{Preset: "fortnight"}, ByGym},
		{"unknown dimension", Filter{}, Dimension("week")},
		{"unknown source", Filter{SourceType: "merch"}, ByGym},
		{"day series too long", Filter{Start: &longAgo, End: &march9}, ByDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Aggregate(context.Background(), tt.filter, tt.dim)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	_, err := svc.Aggregate(context.Background(), Filter{Start: &longAgo, End: &march9}, ByGym)
	assert.NoError(t, err, "long ranges are fine outside the day series")
}

func TestAggregate_UsesCache(t *testing.T) {
	f := newFixture(t)
	f.seedMarch(t)
	cache := newMemoryCache()
	svc := f.service(Options{Cache: cache})
	ctx := context.Background()

	first, err := svc.Aggregate(ctx, Filter{Preset: PresetThisMonth}, ByTier)
	require.NoError(t, err)
	assert.Len(t, cache.items, 1)
	assert.Zero(t, cache.hits)

	second, err := svc.Aggregate(ctx, Filter{Preset: PresetThisMonth}, ByTier)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first, second)

	_, err = svc.Aggregate(ctx, Filter{Preset: PresetThisMonth, GymID: ptr(uint(2))}, ByTier)
	require.NoError(t, err)
	assert.Len(t, cache.items, 2)
}

func TestAggregate_CachedResultDropsWriteDuringComputation(t *testing.T) {
	f := newFixture(t)
	cache := newMemoryCache()
	ctx := context.Background()

	sink := new(MockSink)
	sink.On("RecordAudit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	sink.On("EnqueueNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	writer := ledger.NewService(repositories.NewLedgerRepository(f.db), ledger.FixedCommission(decimal.NewFromInt(10)), sink, ledger.Options{Clock: f.clock, Cache: cache})

	repo := &writeAfterReads{
		ReportRepository: f.repo,
		write: func() {
			_, err := writer.RecordRevenue(ctx, ledger.RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("100"), OccurredAt: at(3, 9)})
			require.NoError(t, err)
		},
	}
	svc := NewService(repo, Options{Clock: f.clock, Cache: cache})

	stale, err := svc.Aggregate(ctx, Filter{Preset: PresetThisMonth}, ByGym)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, stale.Totals.Gross)

	fresh, err := svc.Aggregate(ctx, Filter{Preset: PresetThisMonth}, ByGym)
	require.NoError(t, err)
	assert.Zero(t, cache.hits)
	assert.Equal(t, money.MustParse("100"), fresh.Totals.Gross)
	assert.Equal(t, int64(1), fresh.Totals.EntryCount)
}

func TestAggregate_ReadsOneSnapshot(t *testing.T) {
	f := newFixture(t)
	f.seedMarch(t)
	svc := NewService(snapshotOnly{f.repo}, Options{Clock: f.clock})

	for _, d := range []Dimension{ByDay, ByGym, ByStatus, ByTier, BySource} {
		summary, err := svc.Aggregate(context.Background(), Filter{Preset: PresetThisMonth}, d)
		require.NoError(t, err, d)
		assert.Equal(t, money.MustParse("1550"), summary.Totals.Gross, d)
	}
}
