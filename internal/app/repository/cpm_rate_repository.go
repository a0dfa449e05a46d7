package repository

import (
	"context"

	"github.com/sifan077/PayLink/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CpmRateRepository stores the CPM price list.
type CpmRateRepository interface {
	// Upsert replaces the rate stored under (country, device).
	Upsert(ctx context.Context, rate *model.CpmRate) error
	ListActive(ctx context.Context) ([]model.CpmRate, error)
}

type cpmRateRepository struct {
	db *gorm.DB
}

// NewCpmRateRepository returns a GORM-backed CpmRateRepository.
func NewCpmRateRepository(db *gorm.DB) CpmRateRepository {
	return &cpmRateRepository{db: db}
}

func (r *cpmRateRepository) Upsert(ctx context.Context, rate *model.CpmRate) error {
	db := conn(ctx, r.db)
	if err := db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "country"}, {Name: "device"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "is_active", "updated_at"}),
		}).
		Create(rate).Error; err != nil {
		return err
	}
	// Reload into a fresh value: rate still carries the new id, which a
	// conflicting row does not have.
	var stored model.CpmRate
	if err := db.Where("country = ? AND device = ?", rate.Country, rate.Device).First(&stored).Error; err != nil {
		return err
	}
	*rate = stored
	return nil
}

func (r *cpmRateRepository) ListActive(ctx context.Context) ([]model.CpmRate, error) {
	var rates []model.CpmRate
	if err := conn(ctx, r.db).
		Where("is_active = ?", true).
		Order("country ASC, device ASC").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}
