package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
)

// ReportRepository runs read-only aggregate queries.
type ReportRepository interface {
	UserAnalytics(ctx context.Context, userID string, from, to *time.Time) (*model.UserAnalytics, error)
	SystemStats(ctx context.Context) (*model.SystemStats, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a pgx-backed ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

const userAnalyticsSQL = `
SELECT COUNT(a.id),
       COALESCE(SUM(a.earnings), 0)::text,
       COALESCE(array_agg(DISTINCT a.country) FILTER (WHERE a.country <> ''), '{}'),
       COALESCE(array_agg(DISTINCT a.device) FILTER (WHERE a.device <> ''), '{}')
FROM link_analytics a
JOIN links l ON l.id = a.link_id
WHERE l.user_id = $1
  AND ($2::timestamptz IS NULL OR a.timestamp >= $2)
  AND ($3::timestamptz IS NULL OR a.timestamp <= $3)`

func (r *reportRepository) UserAnalytics(ctx context.Context, userID string, from, to *time.Time) (*model.UserAnalytics, error) {
	var (
		result   model.UserAnalytics
		earnings string
	)
	err := r.pool.QueryRow(ctx, userAnalyticsSQL, userID, from, to).
		Scan(&result.TotalViews, &earnings, &result.Countries, &result.Devices)
	if err != nil {
		return nil, fmt.Errorf("report: user analytics: %w", err)
	}
	if result.TotalEarnings, err = decimal.NewFromString(earnings); err != nil {
		return nil, fmt.Errorf("report: parse earnings: %w", err)
	}
	return &result, nil
}

const systemStatsSQL = `
SELECT
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM users WHERE is_active),
  (SELECT COUNT(*) FROM links),
  (SELECT COALESCE(SUM(total_views), 0)::bigint FROM links),
  (SELECT COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)::text FROM withdrawals),
  (SELECT COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0)::text FROM withdrawals)`

func (r *reportRepository) SystemStats(ctx context.Context) (*model.SystemStats, error) {
	var (
		stats         model.SystemStats
		pending, paid string
	)
	err := r.pool.QueryRow(ctx, systemStatsSQL).Scan(
		&stats.Users.Total,
		&stats.Users.Active,
		&stats.Links.Total,
		&stats.Links.TotalViews,
		&pending,
		&paid,
	)
	if err != nil {
		return nil, fmt.Errorf("report: system stats: %w", err)
	}
	if stats.Withdrawals.Pending, err = decimal.NewFromString(pending); err != nil {
		return nil, fmt.Errorf("report: parse pending: %w", err)
	}
	if stats.Withdrawals.Paid, err = decimal.NewFromString(paid); err != nil {
		return nil, fmt.Errorf("report: parse paid: %w", err)
	}
	return &stats, nil
}
