// Package service integration tests run the full attendance and gratitude
// flows against a real PostgreSQL container.
package service

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"cohort-points-bot/internal/clock"
	"cohort-points-bot/internal/model"
	"cohort-points-bot/internal/pkg/db"
	"cohort-points-bot/internal/repository"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

// fixture wires the full service stack onto one database with a pinned
// clock.
type fixture struct {
	userRepo   *repository.UserRepository
	txRepo     *repository.TransactionRepository
	ledger     *Ledger
	attendance *AttendanceService
	gratitude  *GratitudeService
	admin      *AdminService
	legacy     *LegacyService
	clk        clock.Fixed
}

func newFixture(pool *pgxpool.Pool) *fixture {
	clk := clock.Fixed{T: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}

	userRepo := repository.NewUserRepository(pool)
	txRepo := repository.NewTransactionRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	gratitudeRepo := repository.NewGratitudeRepository(pool)
	codeRepo := repository.NewAttendanceCodeRepository(pool)

	ledger := NewLedger(userRepo, txRepo)
	return &fixture{
		userRepo:   userRepo,
		txRepo:     txRepo,
		ledger:     ledger,
		attendance: NewAttendanceService(userRepo, attendanceRepo, ledger, clk, 100),
		gratitude:  NewGratitudeService(userRepo, gratitudeRepo, ledger, clk, 5, 2, 200, 6),
		admin:      NewAdminService(userRepo, ledger, 6),
		legacy:     NewLegacyService(userRepo, attendanceRepo, codeRepo, ledger, clk, 100, 6),
		clk:        clk,
	}
}

// requireConsistent asserts the cached balance equals the sum over the
// transaction log.
func (f *fixture) requireConsistent(t *testing.T, ctx context.Context, userID string) {
	t.Helper()
	balance, err := f.ledger.Balance(ctx, userID)
	require.NoError(t, err)
	sum, err := f.txRepo.SumByUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, sum, balance, "cached balance must equal transaction sum for %s", userID)
}

// ============================================================================
// Attendance flow
// ============================================================================

func TestAttendanceService_Record_IdempotentApproval(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	req := &RecordRequest{
		UserID:     "600000000000000001",
		Username:   "alice",
		Generation: 6,
		Week:       3,
		Day:        1,
	}

	first, err := f.attendance.Record(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Credited)
	assert.Equal(t, 100, first.PointsAdded)
	assert.Equal(t, int64(100), first.TotalPoints)

	// Redelivered approval for the same period key: no double credit,
	// and no error either.
	second, err := f.attendance.Record(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.Credited)
	assert.Equal(t, 0, second.PointsAdded)
	assert.Equal(t, int64(100), second.TotalPoints)

	f.requireConsistent(t, ctx, req.UserID)
}

func TestAttendanceService_Record_DistinctPeriods(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	base := RecordRequest{
		UserID:     "600000000000000002",
		Username:   "bob",
		Generation: 6,
		Week:       1,
		Day:        1,
	}

	week2 := base
	week2.Week = 2

	for _, req := range []*RecordRequest{&base, &week2} {
		result, err := f.attendance.Record(ctx, req)
		require.NoError(t, err)
		assert.True(t, result.Credited)
	}

	total, err := f.ledger.Balance(ctx, base.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)
	f.requireConsistent(t, ctx, base.UserID)
}

func TestAttendanceService_MyAttendance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	userID := "600000000000000003"
	for week := 1; week <= 3; week++ {
		_, err := f.attendance.Record(ctx, &RecordRequest{
			UserID: userID, Username: "carol", Generation: 6, Week: week, Day: 1,
		})
		require.NoError(t, err)
	}

	summary, err := f.attendance.MyAttendance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalAttendance)
	assert.Equal(t, 300, summary.PointsEarned)
	assert.True(t, summary.AttendedToday)
	assert.Len(t, summary.Records, 3)
}

// ============================================================================
// Gratitude flow
// ============================================================================

func TestGratitudeService_Send_QuotaAndCredit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	sender := "700000000000000001"
	receiverA := "700000000000000002"
	receiverB := "700000000000000003"

	// First send: both sides gain the award.
	result, err := f.gratitude.Send(ctx, &SendRequest{
		FromUserID: sender, FromUsername: "dave",
		ToUserID: receiverA, ToUsername: "erin",
		Message: "발표 잘 봤어요!",
	})
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, 1, result.RemainingToday)
	assert.Equal(t, int64(5), result.FromTotal)
	assert.Equal(t, int64(5), result.ToTotal)

	// Second send exhausts the daily quota.
	result, err = f.gratitude.Send(ctx, &SendRequest{
		FromUserID: sender, FromUsername: "dave",
		ToUserID: receiverB, ToUsername: "frank",
	})
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, 0, result.RemainingToday)
	assert.Equal(t, int64(10), result.FromTotal)

	// Third send on the same day: rejected, no balances change.
	result, err = f.gratitude.Send(ctx, &SendRequest{
		FromUserID: sender, FromUsername: "dave",
		ToUserID: receiverA, ToUsername: "erin",
	})
	require.NoError(t, err)
	assert.False(t, result.Sent)
	assert.Equal(t, RejectQuotaExhausted, result.Reason)

	for _, id := range []string{sender, receiverA, receiverB} {
		f.requireConsistent(t, ctx, id)
	}
	senderTotal, err := f.ledger.Balance(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, int64(10), senderTotal)
}

func TestGratitudeService_Send_SelfSendWritesNothing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	userID := "700000000000000004"
	result, err := f.gratitude.Send(ctx, &SendRequest{
		FromUserID: userID, FromUsername: "grace",
		ToUserID: userID, ToUsername: "grace",
	})
	require.NoError(t, err)
	assert.False(t, result.Sent)
	assert.Equal(t, RejectSelfSend, result.Reason)

	// The fast-fail happens before any write: not even the user row exists.
	_, err = f.userRepo.GetByPlatformID(ctx, userID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestGratitudeService_Stats(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	a, b := "700000000000000005", "700000000000000006"
	_, err := f.gratitude.Send(ctx, &SendRequest{
		FromUserID: a, FromUsername: "henry", ToUserID: b, ToUsername: "iris",
	})
	require.NoError(t, err)
	_, err = f.gratitude.Send(ctx, &SendRequest{
		FromUserID: b, FromUsername: "iris", ToUserID: a, ToUsername: "henry",
	})
	require.NoError(t, err)

	stats, err := f.gratitude.Stats(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSent)
	assert.Equal(t, 1, stats.TotalReceived)
	assert.Equal(t, 1, stats.SentToday)
	assert.Equal(t, 5, stats.PointsSent)
	assert.Equal(t, 5, stats.PointsGotten)
}

// ============================================================================
// Ledger validation and observers
// ============================================================================

func TestLedger_Record_RejectsInvalidTransactions(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	_, err := f.ledger.Record(ctx, &model.Transaction{
		UserID: "", Points: 100, Reason: model.ReasonAttendance,
	})
	assert.ErrorIs(t, err, ErrEmptyUserID)

	_, err = f.ledger.Record(ctx, &model.Transaction{
		UserID: "800000000000000001", Points: 0, Reason: model.ReasonAttendance,
	})
	assert.ErrorIs(t, err, ErrZeroPoints)

	_, err = f.ledger.Record(ctx, &model.Transaction{
		UserID: "800000000000000001", Points: 100, Reason: "bonus",
	})
	assert.ErrorIs(t, err, ErrUnknownReason)
}

type recordingObserver struct {
	seen []*model.Transaction
}

func (o *recordingObserver) OnTransaction(_ context.Context, tx *model.Transaction) error {
	o.seen = append(o.seen, tx)
	return nil
}

type panickingObserver struct{}

func (panickingObserver) OnTransaction(context.Context, *model.Transaction) error {
	panic("observer exploded")
}

func TestLedger_ObserverFailureDoesNotAffectAccounting(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	recorder := &recordingObserver{}
	f.ledger.AddObserver(panickingObserver{})
	f.ledger.AddObserver(recorder)

	userID := "800000000000000002"
	_, _, err := f.userRepo.GetOrCreate(ctx, userID, "judy", 6, "")
	require.NoError(t, err)

	// The first observer panics; the write still lands and the second
	// observer still runs.
	tx, err := f.ledger.Record(ctx, &model.Transaction{
		UserID: userID, Points: 100, Reason: model.ReasonAttendance,
	})
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)

	require.Len(t, recorder.seen, 1)
	assert.Equal(t, tx.ID, recorder.seen[0].ID)

	total, err := f.ledger.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), total)
}

func TestLedger_BalanceUnknownUserIsZero(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	total, err := f.ledger.Balance(context.Background(), "999999999999999998")
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

// ============================================================================
// Admin flow
// ============================================================================

func TestAdminService_GrantAndRevoke(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	adminID := "900000000000000001"
	targetID := "900000000000000002"

	result, err := f.admin.Grant(ctx, adminID, targetID, "kate", 50, "이벤트 보상")
	require.NoError(t, err)
	assert.True(t, result.Credited)
	assert.Equal(t, int64(50), result.TotalPoints)

	result, err = f.admin.Revoke(ctx, adminID, targetID, "kate", 20, "")
	require.NoError(t, err)
	assert.Equal(t, int64(30), result.TotalPoints)

	// Both must be positive on input; Revoke negates internally.
	_, err = f.admin.Grant(ctx, adminID, targetID, "kate", 0, "")
	assert.ErrorIs(t, err, ErrZeroPoints)
	_, err = f.admin.Revoke(ctx, adminID, targetID, "kate", -5, "")
	assert.ErrorIs(t, err, ErrZeroPoints)

	f.requireConsistent(t, ctx, targetID)

	history, err := f.ledger.History(ctx, targetID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ReasonAdminRevoke, history[0].Reason)
	assert.Equal(t, int64(-20), history[0].Points)
	assert.Equal(t, model.ReasonAdminGrant, history[1].Reason)
	assert.Equal(t, int64(50), history[1].Points)
}

// ============================================================================
// Legacy session-code check-in
// ============================================================================

func TestLegacyService_CheckIn(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	created, err := f.legacy.CreateCode(ctx, 1, "sunny", "900000000000000001", nil)
	require.NoError(t, err)
	assert.True(t, created.Credited)

	// Duplicate code for the same session is rejected, not overwritten.
	dup, err := f.legacy.CreateCode(ctx, 1, "SUNNY", "900000000000000001", nil)
	require.NoError(t, err)
	assert.False(t, dup.Credited)

	userID := "910000000000000001"
	result, err := f.legacy.CheckIn(ctx, userID, "leo", 1, "sunny")
	require.NoError(t, err)
	assert.True(t, result.Credited)
	assert.Equal(t, int64(100), result.TotalPoints)

	// Re-check-in for the same session is idempotent.
	result, err = f.legacy.CheckIn(ctx, userID, "leo", 1, "sunny")
	require.NoError(t, err)
	assert.False(t, result.Credited)

	// Wrong code never credits.
	result, err = f.legacy.CheckIn(ctx, userID, "leo", 1, "wrong")
	require.NoError(t, err)
	assert.False(t, result.Credited)

	f.requireConsistent(t, ctx, userID)
}

func TestLegacyService_CheckIn_ExpiredCode(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	expired := f.clk.Now().Add(-time.Hour)
	_, err := f.legacy.CreateCode(ctx, 2, "late", "900000000000000001", &expired)
	require.NoError(t, err)

	result, err := f.legacy.CheckIn(ctx, "910000000000000002", "mia", 2, "late")
	require.NoError(t, err)
	assert.False(t, result.Credited)
}

func TestLegacyService_DisjointFromPeriodKeyAttendance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	userID := "910000000000000003"
	_, err := f.legacy.CreateCode(ctx, 1, "code1", "900000000000000001", nil)
	require.NoError(t, err)

	// Session 1 check-in and generation 6 / week 1 approval must both
	// credit: the legacy path keys on generation 0 / day 0.
	legacyResult, err := f.legacy.CheckIn(ctx, userID, "noah", 1, "code1")
	require.NoError(t, err)
	assert.True(t, legacyResult.Credited)

	approval, err := f.attendance.Record(ctx, &RecordRequest{
		UserID: userID, Username: "noah", Generation: 6, Week: 1, Day: 1,
	})
	require.NoError(t, err)
	assert.True(t, approval.Credited)

	total, err := f.ledger.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)

	// Both credits are attendance-reason transactions.
	count, err := f.txRepo.CountByUserAndReason(ctx, userID, model.ReasonAttendance)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLedger_Top(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	f := newFixture(pool)
	ctx := context.Background()

	adminID := "920000000000000000"
	for i, points := range []int64{30, 10, 20} {
		targetID := fmt.Sprintf("92000000000000000%d", i+1)
		_, err := f.admin.Grant(ctx, adminID, targetID, fmt.Sprintf("user%d", i+1), points, "")
		require.NoError(t, err)
	}

	top, err := f.ledger.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(30), top[0].TotalPoints)
	assert.Equal(t, int64(20), top[1].TotalPoints)
}
