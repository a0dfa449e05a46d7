package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the data access contract for users and their balances.
type UserRepository interface {
	// CreateIfAbsent inserts user unless a row with the same id exists.
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByReferralCode(ctx context.Context, code string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	// Credit atomically adds amount to total and pending earnings.
	Credit(ctx context.Context, id string, amount decimal.Decimal) error
	// Hold atomically subtracts amount from pending earnings, failing with
	// ErrInsufficientBalance when the pending balance is lower than amount.
	Hold(ctx context.Context, id string, amount decimal.Decimal) error
	// Release returns a previously held amount to pending earnings.
	Release(ctx context.Context, id string, amount decimal.Decimal) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*model.User, error) {
	return r.first(ctx, "referral_code = ?", code)
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User
	if err := conn(ctx, r.db).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var users []model.User
	if err := conn(ctx, r.db).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := conn(ctx, r.db).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.adjust(ctx, conn(ctx, r.db).Where("id = ?", id), map[string]interface{}{
		"total_earnings":   gorm.Expr("total_earnings + ?", amount),
		"pending_earnings": gorm.Expr("pending_earnings + ?", amount),
	})
}

func (r *userRepository) Hold(ctx context.Context, id string, amount decimal.Decimal) error {
	result := conn(ctx, r.db).
		Model(&model.User{}).
		Where("id = ? AND pending_earnings >= ?", id, amount).
		UpdateColumns(map[string]interface{}{
			"pending_earnings": gorm.Expr("pending_earnings - ?", amount),
			"updated_at":       gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}
	return nil
}

func (r *userRepository) Release(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.adjust(ctx, conn(ctx, r.db).Where("id = ?", id), map[string]interface{}{
		"pending_earnings": gorm.Expr("pending_earnings + ?", amount),
	})
}

func (r *userRepository) adjust(ctx context.Context, scope *gorm.DB, columns map[string]interface{}) error {
	columns["updated_at"] = gorm.Expr("NOW()")
	result := scope.Model(&model.User{}).UpdateColumns(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
