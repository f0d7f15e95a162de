package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymledger/internal/clock"
	apperrors "gymledger/internal/errors"
	"gymledger/internal/models"
	"gymledger/internal/money"
	"gymledger/internal/repositories"
	"gymledger/internal/repositories/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockSink is a mock implementation of notification.Sink
type MockSink struct {
	mock.Mock
}

func (m *MockSink) RecordAudit(ctx context.Context, actorID uint, action string, details map[string]interface{}) error {
	args := m.Called(ctx, actorID, action, details)
	return args.Error(0)
}

func (m *MockSink) EnqueueNotification(ctx context.Context, gymID uint, title, body string) error {
	args := m.Called(ctx, gymID, title, body)
	return args.Error(0)
}

var errInsertFailed = errors.New("insert failed")

// failingEntryInsert fails every revenue entry insert, including those made
// inside a transaction.
type failingEntryInsert struct {
	repositories.LedgerRepository
}

func (failingEntryInsert) CreateEntry(context.Context, *models.RevenueEntry) error {
	return errInsertFailed
}

func (r failingEntryInsert) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	return r.LedgerRepository.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		return fn(failingEntryInsert{tx})
	})
}

// recordingCache appends to a shared call log.
type recordingCache struct {
	calls *[]string
}

func (c recordingCache) InvalidateReports(context.Context) error {
	*c.calls = append(*c.calls, "invalidate")
	return nil
}

type fixture struct {
	db   *gorm.DB
	repo repositories.LedgerRepository
	sink *MockSink
	svc  Service
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	repo := repositories.NewLedgerRepository(db)
	sink := new(MockSink)
	sink.On("RecordAudit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	svc := NewService(repo, FixedCommission(decimal.NewFromInt(10)), sink, Options{
		Clock: clock.NewFakeClock(now),
	})

	_, err := svc.OpenAccount(context.Background(), OpenAccountInput{GymID: 1, Name: "Iron Temple", OwnerID: 10})
	require.NoError(t, err)
	return &fixture{db: db, repo: repo, sink: sink, svc: svc, now: now}
}

func (f *fixture) balance(t *testing.T, gymID uint) money.Amount {
	t.Helper()
	acct, err := f.svc.GetAccount(context.Background(), gymID)
	require.NoError(t, err)
	return acct.Balance
}

func (f *fixture) entryCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.RevenueEntry{}).Count(&n).Error)
	return n
}

func TestRecordRevenue_SplitsAndCreditsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.RecordRevenue(ctx, RecordRevenueInput{
		GymID:      1,
		SourceType: models.SourceMembershipPurchase,
		Gross:      money.MustParse("1000"),
		RecordedBy: 99,
	})
	require.NoError(t, err)

	assert.Equal(t, money.MustParse("100"), entry.PlatformCut)
	assert.Equal(t, money.MustParse("900"), entry.GymShare)
	assert.Equal(t, entry.GrossAmount, entry.PlatformCut+entry.GymShare)
	assert.Equal(t, "10", entry.CommissionRate)
	assert.Equal(t, f.now, entry.OccurredAt)
	assert.NotEmpty(t, entry.Reference)
	assert.Equal(t, money.MustParse("900"), f.balance(t, 1))

	f.sink.AssertCalled(t, "RecordAudit", mock.Anything, uint(99), ActionRevenueRecorded, mock.Anything)
}

func TestRecordRevenue_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uint(5)

	tests := []struct {
		name string
		in   RecordRevenueInput
	}{
		{"zero gross", RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: 0}},
		{"negative gross", RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: -100}},
		{"unknown source", RecordRevenueInput{GymID: 1, SourceType: "merch", Gross: 100}},
		{"reversal is not a revenue source", RecordRevenueInput{GymID: 1, SourceType: models.SourceReversal, Gross: 100}},
		{"missing gym", RecordRevenueInput{SourceType: models.SourceBooking, Gross: 100}},
		{"booking link on membership purchase", RecordRevenueInput{GymID: 1, SourceType: models.SourceMembershipPurchase, Gross: 100, BookingID: &id}},
		{"both links", RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: 100, BookingID: &id, MembershipID: &id}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordRevenue(ctx, tt.in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
	assert.Equal(t, money.Zero, f.balance(t, 1))
	assert.Zero(t, f.entryCount(t))
}

func TestRecordRevenue_UnknownGym(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordRevenue(context.Background(), RecordRevenueInput{
		GymID:      404,
		SourceType: models.SourceBooking,
		Gross:      money.MustParse("25"),
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, f.entryCount(t))
}

func TestRecordRevenue_SourceReferenceMustBelongToGym(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catalog := repositories.NewCatalogRepository(f.db)

	plan := &models.MembershipPlan{GymID: 2, Name: "Gold", Tier: "gold", Price: money.MustParse("80")}
	require.NoError(t, catalog.CreatePlan(ctx, plan))
	membership := &models.Membership{GymID: 2, MemberID: 7, PlanID: plan.ID}
	require.NoError(t, catalog.CreateMembership(ctx, membership))

	_, err := f.svc.RecordRevenue(ctx, RecordRevenueInput{
		GymID:        1,
		SourceType:   models.SourceMembershipPurchase,
		Gross:        money.MustParse("80"),
		MembershipID: &membership.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	missing := uint(12345)
	_, err = f.svc.RecordRevenue(ctx, RecordRevenueInput{
		GymID:      1,
		SourceType: models.SourceBooking,
		Gross:      money.MustParse("15"),
		BookingID:  &missing,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, f.entryCount(t))
}

func TestRecordRevenue_SinkFailureIsNotFatal(t *testing.T) {
	db := testdb.New(t)
	repo := repositories.NewLedgerRepository(db)
	sink := new(MockSink)
	sink.On("RecordAudit", mock.Anything, mock.Anything, ActionAccountOpened, mock.Anything).Return(nil)
	sink.On("RecordAudit", mock.Anything, mock.Anything, ActionRevenueRecorded, mock.Anything).Return(errors.New("audit store down"))
	svc := NewService(repo, FixedCommission(decimal.NewFromInt(10)), sink, Options{})
	ctx := context.Background()

	_, err := svc.OpenAccount(ctx, OpenAccountInput{GymID: 1, Name: "Iron Temple"})
	require.NoError(t, err)

	_, err = svc.RecordRevenue(ctx, RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("50")})
	require.NoError(t, err)

	acct, err := svc.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("45"), acct.Balance)
	sink.AssertExpectations(t)
}

func TestRecordRevenue_EntryInsertFailureRollsBackCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.RecordRevenue(ctx, RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("100")})
	require.NoError(t, err)
	require.Equal(t, money.MustParse("90"), f.balance(t, 1))

	broken := NewService(failingEntryInsert{f.repo}, FixedCommission(decimal.NewFromInt(10)), f.sink, Options{Clock: clock.NewFakeClock(f.now)})
	_, err = broken.RecordRevenue(ctx, RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("1000"), RecordedBy: 77})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLedgerWriteFailed)

	assert.Equal(t, money.MustParse("90"), f.balance(t, 1))
	assert.Equal(t, int64(1), f.entryCount(t))
	f.sink.AssertNotCalled(t, "RecordAudit", mock.Anything, uint(77), ActionRevenueRecorded, mock.Anything)

	r, err := f.svc.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, r.Balanced())
}

func TestRecordRevenue_InvalidatesReportsBeforeAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var calls []string
	sink := new(MockSink)
	sink.On("RecordAudit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { calls = append(calls, "audit") }).Return(nil)
	svc := NewService(f.repo, FixedCommission(decimal.NewFromInt(10)), sink, Options{
		Clock: clock.NewFakeClock(f.now),
		Cache: recordingCache{calls: &calls},
	})

	_, err := svc.RecordRevenue(ctx, RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("100")})
	require.NoError(t, err)
	assert.Equal(t, []string{"invalidate", "audit"}, calls)
}

func TestReverseEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.RecordRevenue(ctx, RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("1000")})
	require.NoError(t, err)

	reversal, err := f.svc.ReverseEntry(ctx, ReverseEntryInput{EntryID: entry.ID, Reason: "duplicate charge", ActorID: 99})
	require.NoError(t, err)

	assert.Equal(t, models.SourceReversal, reversal.SourceType)
	assert.Equal(t, -entry.GrossAmount, reversal.GrossAmount)
	assert.Equal(t, -entry.GymShare, reversal.GymShare)
	assert.Equal(t, reversal.GrossAmount, reversal.GymShare+reversal.PlatformCut)
	require.NotNil(t, reversal.ReversalOfID)
	assert.Equal(t, entry.ID, *reversal.ReversalOfID)
	assert.Equal(t, money.Zero, f.balance(t, 1))

	t.Run("second reversal is rejected", func(t *testing.T) {
		_, err := f.svc.ReverseEntry(ctx, ReverseEntryInput{EntryID: entry.ID, Reason: "again"})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)
		assert.Equal(t, money.Zero, f.balance(t, 1))
	})

	t.Run("reversal cannot be reversed", func(t *testing.T) {
		_, err := f.svc.ReverseEntry(ctx, ReverseEntryInput{EntryID: reversal.ID, Reason: "undo"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("reason is required", func(t *testing.T) {
		_, err := f.svc.ReverseEntry(ctx, ReverseEntryInput{EntryID: entry.ID, Reason: "  "})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown entry", func(t *testing.T) {
		_, err := f.svc.ReverseEntry(ctx, ReverseEntryInput{EntryID: 9999, Reason: "typo"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestReverseEntry_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.RecordRevenue(ctx, RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse("1000")})
	require.NoError(t, err)

	// Hold 600 of the 900 share in a pending withdrawal.
	require.NoError(t, f.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		if err := tx.Debit(ctx, 1, money.MustParse("600")); err != nil {
			return err
		}
		return tx.CreateWithdrawal(ctx, &models.Withdrawal{
			Reference:   "w-1",
			GymID:       1,
			Amount:      money.MustParse("600"),
			Status:      models.WithdrawalPending,
			RequestedAt: f.now,
		})
	}))

	_, err = f.svc.ReverseEntry(ctx, ReverseEntryInput{EntryID: entry.ID, Reason: "chargeback"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, money.MustParse("300"), f.balance(t, 1))
	assert.Equal(t, int64(1), f.entryCount(t))
}

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.OpenAccount(ctx, OpenAccountInput{GymID: 2, Name: "Flex Hall"})
	require.NoError(t, err)
	for _, gross := range []string{"1000", "49.99", "12.35"} {
		_, err := f.svc.RecordRevenue(ctx, RecordRevenueInput{GymID: 1, SourceType: models.SourceBooking, Gross: money.MustParse(gross)})
		require.NoError(t, err)
	}

	r, err := f.svc.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, r.Balanced())
	assert.Equal(t, r.Balance, r.Expected)

	require.NoError(t, f.db.Exec("UPDATE gym_accounts SET balance = balance + 125 WHERE gym_id = ?", 1).Error)

	results, err := f.svc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint(1), results[0].GymID)
	assert.Equal(t, money.Amount(125), results[0].Drift)
	assert.True(t, results[1].Balanced())

	_, err = f.svc.Reconcile(ctx, 77)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOpenAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.OpenAccount(ctx, OpenAccountInput{GymID: 1, Name: "Duplicate"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.OpenAccount(ctx, OpenAccountInput{GymID: 3, Name: " "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
