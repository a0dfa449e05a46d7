package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
	"go.uber.org/zap"
)

// referralCodeBytes yields a 12 character hex code.
const referralCodeBytes = 6

// Identity is the verified caller taken from an access token.
type Identity struct {
	ID    string
	Email string
	// ReferralCode is the code the user signed up with, if any.
	ReferralCode string
}

// UserService manages accounts.
type UserService interface {
	// EnsureUser returns the account of identity, creating it on first sight.
	EnsureUser(ctx context.Context, identity Identity) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]model.User, error)
	SetUserActive(ctx context.Context, id string, active bool) (*model.User, error)
}

// UserDeps groups the collaborators of a UserService.
type UserDeps struct {
	Logger      *zap.Logger
	Tx          repository.Transactor
	Users       repository.UserRepository
	Referrals   repository.ReferralRepository
	AdminEmails []string
}

type userService struct {
	logger    *zap.Logger
	tx        repository.Transactor
	users     repository.UserRepository
	referrals repository.ReferralRepository
	admins    map[string]struct{}
}

// NewUserService builds a UserService.
func NewUserService(deps UserDeps) UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	admins := make(map[string]struct{}, len(deps.AdminEmails))
	for _, email := range deps.AdminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &userService{
		logger:    logger,
		tx:        deps.Tx,
		users:     deps.Users,
		referrals: deps.Referrals,
		admins:    admins,
	}
}

func (s *userService) EnsureUser(ctx context.Context, identity Identity) (*model.User, error) {
	if identity.ID == "" {
		return nil, &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "missing subject"}
	}

	user, err := s.users.GetByID(ctx, identity.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, internalError("USER_LOOKUP_FAILED", "failed to load user", err)
	}

	code, err := newReferralCode()
	if err != nil {
		return nil, internalError("REFERRAL_CODE_FAILED", "failed to generate referral code", err)
	}
	user = &model.User{
		ID:              identity.ID,
		Email:           identity.Email,
		Role:            s.roleFor(identity.Email),
		IsActive:        true,
		TotalEarnings:   decimal.Zero,
		PendingEarnings: decimal.Zero,
		ReferralCode:    code,
	}

	referrer := s.referrer(ctx, identity)
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.users.CreateIfAbsent(ctx, user)
		if err != nil || !created || referrer == nil {
			return err
		}
		return s.referrals.Create(ctx, &model.Referral{
			ID:            uuid.New().String(),
			ReferrerID:    referrer.ID,
			ReferredID:    user.ID,
			Commission:    decimal.Zero,
			TotalEarnings: decimal.Zero,
		})
	})
	if err != nil {
		return nil, internalError("USER_CREATE_FAILED", "failed to create user", err)
	}

	// A concurrent first request may have created the row; read it back.
	stored, err := s.users.GetByID(ctx, identity.ID)
	if err != nil {
		return nil, internalError("USER_LOOKUP_FAILED", "failed to load user", err)
	}
	s.logger.Info("user registered", zap.String("user_id", stored.ID), zap.String("role", stored.Role))
	return stored, nil
}

// referrer resolves the sign-up referral code. Unknown and self codes are ignored.
func (s *userService) referrer(ctx context.Context, identity Identity) *model.User {
	code := strings.ToUpper(strings.TrimSpace(identity.ReferralCode))
	if code == "" {
		return nil
	}
	referrer, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("referral lookup failed", zap.Error(err), zap.String("code", code))
		}
		return nil
	}
	if referrer.ID == identity.ID {
		return nil
	}
	return referrer
}

func (s *userService) roleFor(email string) string {
	if _, ok := s.admins[strings.ToLower(strings.TrimSpace(email))]; ok {
		return model.RoleAdmin
	}
	return model.RoleUser
}

func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("USER_LOOKUP_FAILED", "failed to load user", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, internalError("USER_LIST_FAILED", "failed to list users", err)
	}
	return users, nil
}

func (s *userService) SetUserActive(ctx context.Context, id string, active bool) (*model.User, error) {
	if err := s.users.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("USER_UPDATE_FAILED", "failed to update user", err)
	}
	return s.GetUser(ctx, id)
}

func newReferralCode() (string, error) {
	buf := make([]byte, referralCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
