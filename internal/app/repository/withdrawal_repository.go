package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sifan077/PayLink/internal/app/model"
	"gorm.io/gorm"
)

// WithdrawalRepository defines the data access contract for payout requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, withdrawal *model.Withdrawal) error
	GetByID(ctx context.Context, id string) (*model.Withdrawal, error)
	ListByUser(ctx context.Context, userID string) ([]model.Withdrawal, error)
	ListByStatus(ctx context.Context, status string) ([]model.Withdrawal, error)
	// CompareAndSetStatus moves a withdrawal from status from to status to.
	// It returns ErrStatusMismatch when the stored status is not from and
	// ErrWithdrawalNotFound when the row does not exist.
	CompareAndSetStatus(ctx context.Context, id, from, to string, adminNotes *string, processedAt time.Time) error
}

type withdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository returns a GORM-backed WithdrawalRepository.
func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(ctx context.Context, withdrawal *model.Withdrawal) error {
	return conn(ctx, r.db).Create(withdrawal).Error
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id string) (*model.Withdrawal, error) {
	var withdrawal model.Withdrawal
	if err := conn(ctx, r.db).Where("id = ?", id).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID string) ([]model.Withdrawal, error) {
	var result []model.Withdrawal
	if err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *withdrawalRepository) ListByStatus(ctx context.Context, status string) ([]model.Withdrawal, error) {
	var result []model.Withdrawal
	if err := conn(ctx, r.db).
		Where("status = ?", status).
		Order("requested_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *withdrawalRepository) CompareAndSetStatus(ctx context.Context, id, from, to string, adminNotes *string, processedAt time.Time) error {
	updates := map[string]interface{}{
		"status":       to,
		"processed_at": processedAt,
	}
	if adminNotes != nil {
		updates["admin_notes"] = *adminNotes
	}

	result := conn(ctx, r.db).
		Model(&model.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStatusMismatch
	}
	return nil
}
