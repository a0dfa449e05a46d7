package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/repository"
)

// commissionRate is the share of a referred user's earnings owed to the referrer.
var commissionRate = decimal.RequireFromString("0.10")

// ReferralEntry reports one referred account.
type ReferralEntry struct {
	ID            string          `json:"id"`
	ReferredID    string          `json:"referredId"`
	ReferredEmail string          `json:"referredEmail"`
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	Commission    decimal.Decimal `json:"commission"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ReferralSummary is the referral dashboard of one user.
type ReferralSummary struct {
	ReferralCode    string          `json:"referralCode"`
	Referrals       []ReferralEntry `json:"referrals"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
}

// ReferralService reports referral commissions. Commissions are derived from
// the referred users' current earnings and never move balances.
type ReferralService struct {
	users     repository.UserRepository
	referrals repository.ReferralRepository
}

// NewReferralService builds a ReferralService.
func NewReferralService(users repository.UserRepository, referrals repository.ReferralRepository) *ReferralService {
	return &ReferralService{users: users, referrals: referrals}
}

// Commission returns the referrer's share of earnings.
func Commission(earnings decimal.Decimal) decimal.Decimal {
	return earnings.Mul(commissionRate).Round(CurrencyScale)
}

// Summary lists the referrals of userID.
func (s *ReferralService) Summary(ctx context.Context, userID string) (*ReferralSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("USER_LOOKUP_FAILED", "failed to load user", err)
	}

	referrals, err := s.referrals.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, internalError("REFERRAL_LIST_FAILED", "failed to list referrals", err)
	}

	summary := &ReferralSummary{
		ReferralCode:    user.ReferralCode,
		Referrals:       make([]ReferralEntry, 0, len(referrals)),
		TotalCommission: decimal.Zero,
	}
	for _, ref := range referrals {
		entry := ReferralEntry{
			ID:            ref.ID,
			ReferredID:    ref.ReferredID,
			TotalEarnings: decimal.Zero,
			CreatedAt:     ref.CreatedAt,
		}
		referred, err := s.users.GetByID(ctx, ref.ReferredID)
		switch {
		case err == nil:
			entry.ReferredEmail = referred.Email
			entry.TotalEarnings = referred.TotalEarnings
		case !errors.Is(err, repository.ErrUserNotFound):
			return nil, internalError("USER_LOOKUP_FAILED", "failed to load referred user", err)
		}
		entry.Commission = Commission(entry.TotalEarnings)
		summary.TotalCommission = summary.TotalCommission.Add(entry.Commission)
		summary.Referrals = append(summary.Referrals, entry)
	}
	return summary, nil
}
