package service

import (
	"context"
	"time"

	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
)

// ReportService serves dashboard aggregates.
type ReportService struct {
	reports repository.ReportRepository
}

// NewReportService builds a ReportService.
func NewReportService(reports repository.ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

// UserAnalytics summarises the visits of userID's links within [from, to].
func (s *ReportService) UserAnalytics(ctx context.Context, userID string, from, to *time.Time) (*model.UserAnalytics, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	result, err := s.reports.UserAnalytics(ctx, userID, from, to)
	if err != nil {
		return nil, internalError("ANALYTICS_FAILED", "failed to load analytics", err)
	}
	if result.Countries == nil {
		result.Countries = []string{}
	}
	if result.Devices == nil {
		result.Devices = []string{}
	}
	return result, nil
}

// SystemStats returns platform-wide totals.
func (s *ReportService) SystemStats(ctx context.Context) (*model.SystemStats, error) {
	stats, err := s.reports.SystemStats(ctx)
	if err != nil {
		return nil, internalError("STATS_FAILED", "failed to load stats", err)
	}
	return stats, nil
}
