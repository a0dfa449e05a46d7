package repository

import (
	"context"
	"time"

	"github.com/sifan077/PayLink/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalyticsRepository is the append-only store of attributed visits.
type AnalyticsRepository interface {
	// Create inserts event and reports false when an event with the same id
	// was already recorded.
	Create(ctx context.Context, event *model.AnalyticsEvent) (bool, error)
	ListByLink(ctx context.Context, linkID string, from, to *time.Time) ([]model.AnalyticsEvent, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository returns a GORM-backed AnalyticsRepository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Create(ctx context.Context, event *model.AnalyticsEvent) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *analyticsRepository) ListByLink(ctx context.Context, linkID string, from, to *time.Time) ([]model.AnalyticsEvent, error) {
	query := conn(ctx, r.db).Where("link_id = ?", linkID)
	if from != nil {
		query = query.Where("timestamp >= ?", *from)
	}
	if to != nil {
		query = query.Where("timestamp <= ?", *to)
	}

	var events []model.AnalyticsEvent
	if err := query.Order("timestamp DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
