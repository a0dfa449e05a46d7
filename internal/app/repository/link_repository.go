package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"gorm.io/gorm"
)

// LinkRepository defines the data access contract for short links.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByCode(ctx context.Context, code string) (*model.Link, error)
	GetByID(ctx context.Context, id string) (*model.Link, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Link, error)
	ShortCodes(ctx context.Context) ([]string, error)
	SetActive(ctx context.Context, id string, active bool) error
	// AddVisit atomically adds one view and amount earnings to the link.
	AddVisit(ctx context.Context, id string, amount decimal.Decimal) error
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := conn(ctx, r.db).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateShortCode
		}
		return err
	}
	return nil
}

func (r *linkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	return r.first(ctx, "short_code = ?", code)
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (*model.Link, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *linkRepository) first(ctx context.Context, query string, arg any) (*model.Link, error) {
	var link model.Link
	if err := conn(ctx, r.db).Where(query, arg).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var result []model.Link
	if err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *linkRepository) ShortCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := conn(ctx, r.db).Model(&model.Link{}).Pluck("short_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *linkRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := conn(ctx, r.db).
		Model(&model.Link{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *linkRepository) AddVisit(ctx context.Context, id string, amount decimal.Decimal) error {
	result := conn(ctx, r.db).
		Model(&model.Link{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"total_views":    gorm.Expr("total_views + 1"),
			"total_earnings": gorm.Expr("total_earnings + ?", amount),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}
