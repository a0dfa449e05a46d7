package service

import (
	"context"
	"testing"

	"github.com/sifan077/PayLink/internal/app/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommission(t *testing.T) {
	assert.Equal(t, "1.23", Commission(dec("12.345678")).StringFixed(2))
	assert.True(t, Commission(dec("0.004")).IsZero())
	assert.Equal(t, "10.00", Commission(dec("100")).StringFixed(2))
}

func TestReferralSummary_ComputesCommissionOnRead(t *testing.T) {
	store := memory.New()
	users := newUserService(store)
	ctx := context.Background()

	referrer, err := users.EnsureUser(ctx, Identity{ID: "sub-ref", Email: "ref@example.com"})
	require.NoError(t, err)
	_, err = users.EnsureUser(ctx, Identity{ID: "sub-a", Email: "a@example.com", ReferralCode: referrer.ReferralCode})
	require.NoError(t, err)
	_, err = users.EnsureUser(ctx, Identity{ID: "sub-b", Email: "b@example.com", ReferralCode: referrer.ReferralCode})
	require.NoError(t, err)

	require.NoError(t, store.Users().Credit(ctx, "sub-a", dec("50.00")))
	require.NoError(t, store.Users().Credit(ctx, "sub-b", dec("7.45")))

	svc := NewReferralService(store.Users(), store.Referrals())
	summary, err := svc.Summary(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, referrer.ReferralCode, summary.ReferralCode)
	require.Len(t, summary.Referrals, 2)

	byID := map[string]ReferralEntry{}
	for _, entry := range summary.Referrals {
		byID[entry.ReferredID] = entry
	}
	assert.Equal(t, "5.00", byID["sub-a"].Commission.StringFixed(2))
	assert.Equal(t, "a@example.com", byID["sub-a"].ReferredEmail)
	assert.Equal(t, "0.75", byID["sub-b"].Commission.StringFixed(2))
	assert.Equal(t, "5.75", summary.TotalCommission.StringFixed(2))

	// Reading commissions never moves the referrer's balance.
	stored, err := store.Users().GetByID(ctx, referrer.ID)
	require.NoError(t, err)
	assert.True(t, stored.PendingEarnings.IsZero())
}

func TestReferralSummary_UnknownUser(t *testing.T) {
	store := memory.New()
	svc := NewReferralService(store.Users(), store.Referrals())

	_, err := svc.Summary(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
