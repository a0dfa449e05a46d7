package repository

import (
	"context"

	"github.com/sifan077/PayLink/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository stores referrer/referred pairs.
type ReferralRepository interface {
	// Create records referral once per referred user.
	Create(ctx context.Context, referral *model.Referral) error
	ListByReferrer(ctx context.Context, referrerID string) ([]model.Referral, error)
}

type referralRepository struct {
	db *gorm.DB
}

// NewReferralRepository returns a GORM-backed ReferralRepository.
func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) Create(ctx context.Context, referral *model.Referral) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "referred_id"}}, DoNothing: true}).
		Create(referral).Error
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]model.Referral, error) {
	var result []model.Referral
	if err := conn(ctx, r.db).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
