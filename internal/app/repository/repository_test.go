package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder captures the statements GORM builds. In dry-run mode nothing
// reaches a server, so the recorded SQL is what the repositories would send.
type sqlRecorder struct {
	mu         sync.Mutex
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Info(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Warn(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	r.statements = append(r.statements, sql)
	r.mu.Unlock()
}

func (r *sqlRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statements...)
}

func newDryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=paylink dbname=paylink sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               rec,
	})
	require.NoError(t, err)
	return db, rec
}

func TestCpmRateUpsert_WritesInactiveFlag(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewCpmRateRepository(db)

	err := repo.Upsert(context.Background(), &model.CpmRate{
		ID:       "11111111-1111-1111-1111-111111111111",
		Country:  "US",
		Device:   model.DeviceAll,
		Rate:     decimal.RequireFromString("4.00"),
		IsActive: false,
	})
	require.NoError(t, err)

	statements := rec.all()
	require.Len(t, statements, 2)
	insert := statements[0]
	assert.Contains(t, insert, `INSERT INTO "cpm_rates"`)
	assert.Contains(t, insert, `ON CONFLICT ("country","device") DO UPDATE SET`)
	assert.Contains(t, insert, `"is_active"="excluded"."is_active"`)
	assert.Contains(t, insert, "false")
	assert.NotContains(t, insert, "true")
}

func TestCpmRateUpsert_ReloadsByKeyNotByNewID(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewCpmRateRepository(db)

	rate := &model.CpmRate{
		ID:       "22222222-2222-2222-2222-222222222222",
		Country:  "DE",
		Device:   model.DeviceAll,
		Rate:     decimal.RequireFromString("3.50"),
		IsActive: true,
	}
	require.NoError(t, repo.Upsert(context.Background(), rate))

	statements := rec.all()
	require.Len(t, statements, 2)
	reload := statements[1]
	assert.Contains(t, reload, `SELECT * FROM "cpm_rates"`)
	assert.Contains(t, reload, "country = 'DE' AND device = 'all'")
	assert.NotContains(t, reload, `"cpm_rates"."id" =`)
	assert.NotContains(t, reload, "22222222-2222-2222-2222-222222222222")
}

func TestCpmRateListActive_FiltersInactive(t *testing.T) {
	db, rec := newDryRunDB(t)

	_, err := NewCpmRateRepository(db).ListActive(context.Background())
	require.NoError(t, err)

	statements := rec.all()
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], "is_active = true")
}

func TestUserHold_GuardsPendingBalance(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewUserRepository(db)

	// No row is updated in dry-run mode, so the guard reads as unmet.
	err := repo.Hold(context.Background(), "user-1", decimal.RequireFromString("15.00"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	statements := rec.all()
	require.NotEmpty(t, statements)
	update := statements[0]
	assert.Contains(t, update, `UPDATE "users" SET`)
	assert.Contains(t, update, "pending_earnings - '15'")
	assert.Contains(t, update, "id = 'user-1' AND pending_earnings >= '15'")
}

func TestUserCredit_IncrementsInPlace(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewUserRepository(db)

	err := repo.Credit(context.Background(), "user-1", decimal.RequireFromString("0.004"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	statements := rec.all()
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], "total_earnings + '0.004'")
	assert.Contains(t, statements[0], "pending_earnings + '0.004'")
	assert.Contains(t, statements[0], "id = 'user-1'")
}

func TestUserCreateIfAbsent_DoesNothingOnConflict(t *testing.T) {
	db, rec := newDryRunDB(t)

	_, err := NewUserRepository(db).CreateIfAbsent(context.Background(), &model.User{
		ID:           "user-1",
		Email:        "a@example.com",
		Role:         model.RoleUser,
		IsActive:     true,
		ReferralCode: "ABCDEF123456",
	})
	require.NoError(t, err)

	statements := rec.all()
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], `ON CONFLICT ("id") DO NOTHING`)
}

func TestLinkAddVisit_IncrementsInPlace(t *testing.T) {
	db, rec := newDryRunDB(t)

	err := NewLinkRepository(db).AddVisit(context.Background(), "link-1", decimal.RequireFromString("0.004"))
	assert.ErrorIs(t, err, ErrLinkNotFound)

	statements := rec.all()
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], `UPDATE "links" SET`)
	assert.Contains(t, statements[0], "total_views + 1")
	assert.Contains(t, statements[0], "total_earnings + '0.004'")
	assert.Contains(t, statements[0], "id = 'link-1'")
}

func TestWithdrawalCompareAndSetStatus_MatchesExpectedStatus(t *testing.T) {
	db, rec := newDryRunDB(t)
	notes := "checked"

	err := NewWithdrawalRepository(db).CompareAndSetStatus(context.Background(),
		"w-1", model.WithdrawalPending, model.WithdrawalApproved, &notes, time.Now().UTC())
	assert.ErrorIs(t, err, ErrStatusMismatch)

	statements := rec.all()
	require.NotEmpty(t, statements)
	update := statements[0]
	assert.Contains(t, update, `UPDATE "withdrawals" SET`)
	assert.Contains(t, update, `"status"='approved'`)
	assert.Contains(t, update, `"admin_notes"='checked'`)
	assert.Contains(t, update, "id = 'w-1' AND status = 'pending'")
}

func TestAnalyticsCreate_DedupsOnEventID(t *testing.T) {
	db, rec := newDryRunDB(t)

	_, err := NewAnalyticsRepository(db).Create(context.Background(), &model.AnalyticsEvent{
		ID:        "33333333-3333-3333-3333-333333333333",
		LinkID:    "44444444-4444-4444-4444-444444444444",
		Country:   "US",
		Device:    model.DeviceDesktop,
		Earnings:  decimal.Zero,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	statements := rec.all()
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], `INSERT INTO "link_analytics"`)
	assert.Contains(t, statements[0], `ON CONFLICT ("id") DO NOTHING`)
}
