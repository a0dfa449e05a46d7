package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/repository"
)

// BalanceLedger applies visit credits to link and user counters. Every
// mutation is a single atomic increment in storage.
type BalanceLedger struct {
	links repository.LinkRepository
	users repository.UserRepository
}

// NewBalanceLedger returns a ledger writing through the given repositories.
func NewBalanceLedger(links repository.LinkRepository, users repository.UserRepository) *BalanceLedger {
	return &BalanceLedger{links: links, users: users}
}

// Credit records one view and amount on the link and, when ownerID is set,
// adds amount to the owner's total and pending earnings.
func (l *BalanceLedger) Credit(ctx context.Context, linkID string, ownerID *string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("ledger: negative credit %s", amount)
	}
	if err := l.links.AddVisit(ctx, linkID, amount); err != nil {
		return fmt.Errorf("ledger: credit link %s: %w", linkID, err)
	}
	if ownerID == nil || *ownerID == "" || amount.IsZero() {
		return nil
	}
	if err := l.users.Credit(ctx, *ownerID, amount); err != nil {
		return fmt.Errorf("ledger: credit user %s: %w", *ownerID, err)
	}
	return nil
}

// Hold reserves amount of the user's pending earnings for a withdrawal.
func (l *BalanceLedger) Hold(ctx context.Context, userID string, amount decimal.Decimal) error {
	return l.users.Hold(ctx, userID, amount)
}

// Release returns a held amount to the user's pending earnings.
func (l *BalanceLedger) Release(ctx context.Context, userID string, amount decimal.Decimal) error {
	return l.users.Release(ctx, userID, amount)
}
