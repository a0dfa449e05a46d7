package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
	"github.com/sifan077/PayLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// DefaultMinimumWithdrawal applies when no minimum is configured.
var DefaultMinimumWithdrawal = decimal.RequireFromString("10.00")

// CreateWithdrawalInput is a payout request.
type CreateWithdrawalInput struct {
	UserID  string
	Amount  decimal.Decimal
	Method  string
	Details model.PaymentDetails
}

// TransitionInput is an admin decision on a withdrawal.
type TransitionInput struct {
	ID         string
	Status     string
	AdminNotes *string
}

// WithdrawalDeps groups the collaborators of a WithdrawalService.
type WithdrawalDeps struct {
	Logger      *zap.Logger
	Tx          repository.Transactor
	Users       repository.UserRepository
	Withdrawals repository.WithdrawalRepository
	Ledger      *BalanceLedger
	Minimum     decimal.Decimal
	Now         func() time.Time
}

// WithdrawalService creates payout requests and drives their state machine.
// The requested amount is held from pending earnings at creation and
// returned on rejection.
type WithdrawalService struct {
	logger      *zap.Logger
	tx          repository.Transactor
	users       repository.UserRepository
	withdrawals repository.WithdrawalRepository
	ledger      *BalanceLedger
	minimum     decimal.Decimal
	now         func() time.Time
}

// NewWithdrawalService builds a WithdrawalService.
func NewWithdrawalService(deps WithdrawalDeps) *WithdrawalService {
	svc := &WithdrawalService{
		logger:      deps.Logger,
		tx:          deps.Tx,
		users:       deps.Users,
		withdrawals: deps.Withdrawals,
		ledger:      deps.Ledger,
		minimum:     deps.Minimum,
		now:         deps.Now,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if !svc.minimum.IsPositive() {
		svc.minimum = DefaultMinimumWithdrawal
	}
	if svc.now == nil {
		svc.now = func() time.Time { return time.Now().UTC() }
	}
	return svc
}

// Create validates and stores a pending withdrawal, holding its amount.
func (s *WithdrawalService) Create(ctx context.Context, input CreateWithdrawalInput) (*model.Withdrawal, error) {
	method := strings.ToLower(strings.TrimSpace(input.Method))
	switch {
	case !input.Amount.IsPositive():
		return nil, validationError("INVALID_AMOUNT", "amount must be greater than zero")
	case !input.Amount.Equal(input.Amount.Truncate(CurrencyScale)):
		return nil, validationError("INVALID_AMOUNT", "amount must have at most two decimal places")
	case input.Amount.LessThan(s.minimum):
		return nil, validationError("AMOUNT_BELOW_MINIMUM", "minimum withdrawal amount is "+s.minimum.StringFixed(CurrencyScale))
	case !model.IsValidMethod(method):
		return nil, validationError("INVALID_METHOD", "unsupported payout method")
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("USER_LOOKUP_FAILED", "failed to load user", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if input.Amount.GreaterThan(user.PendingEarnings) {
		return nil, ErrInsufficientFunds
	}

	withdrawal := &model.Withdrawal{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Amount:      input.Amount.Round(CurrencyScale),
		Method:      method,
		Details:     input.Details,
		Status:      model.WithdrawalPending,
		RequestedAt: s.now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ledger.Hold(ctx, user.ID, withdrawal.Amount); err != nil {
			return err
		}
		return s.withdrawals.Create(ctx, withdrawal)
	})
	if err != nil {
		// The balance may have moved since it was read.
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientFunds
		}
		return nil, internalError("WITHDRAWAL_CREATE_FAILED", "failed to create withdrawal", err)
	}

	s.logger.Info("withdrawal requested",
		zap.String("withdrawal_id", withdrawal.ID),
		zap.String("user_id", user.ID),
		zap.String("amount", withdrawal.Amount.StringFixed(CurrencyScale)),
		zap.String("method", method))
	return withdrawal, nil
}

// ListUser returns the withdrawals of userID, newest first.
func (s *WithdrawalService) ListUser(ctx context.Context, userID string) ([]model.Withdrawal, error) {
	withdrawals, err := s.withdrawals.ListByUser(ctx, userID)
	if err != nil {
		return nil, internalError("WITHDRAWAL_LIST_FAILED", "failed to list withdrawals", err)
	}
	return withdrawals, nil
}

// ListPending returns the withdrawals awaiting an admin decision.
func (s *WithdrawalService) ListPending(ctx context.Context) ([]model.Withdrawal, error) {
	withdrawals, err := s.withdrawals.ListByStatus(ctx, model.WithdrawalPending)
	if err != nil {
		return nil, internalError("WITHDRAWAL_LIST_FAILED", "failed to list withdrawals", err)
	}
	return withdrawals, nil
}

// Transition moves a withdrawal to input.Status. Rejection releases the
// held amount in the same transaction.
func (s *WithdrawalService) Transition(ctx context.Context, input TransitionInput) (*model.Withdrawal, error) {
	target := strings.ToLower(strings.TrimSpace(input.Status))
	from, ok := model.PreviousStatus(target)
	if !ok {
		return nil, ErrInvalidTransition
	}

	var notes *string
	if input.AdminNotes != nil {
		trimmed := strings.TrimSpace(*input.AdminNotes)
		notes = &trimmed
	}

	var updated *model.Withdrawal
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.withdrawals.CompareAndSetStatus(ctx, input.ID, from, target, notes, s.now()); err != nil {
			return err
		}
		w, err := s.withdrawals.GetByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if target == model.WithdrawalRejected {
			if err := s.ledger.Release(ctx, w.UserID, w.Amount); err != nil {
				return err
			}
		}
		updated = w
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrWithdrawalNotFound):
			return nil, ErrWithdrawalNotFound
		case errors.Is(err, repository.ErrStatusMismatch):
			return nil, ErrInvalidTransition
		}
		return nil, internalError("WITHDRAWAL_UPDATE_FAILED", "failed to update withdrawal", err)
	}

	prometheus.ObserveWithdrawalTransition(target)
	s.logger.Info("withdrawal transitioned",
		zap.String("withdrawal_id", updated.ID),
		zap.String("from", from),
		zap.String("to", target))
	return updated, nil
}
