package service

import (
	"context"
	"testing"

	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithdrawal(t *testing.T, env *testEnv, userID, amount string) *model.Withdrawal {
	t.Helper()
	w, err := env.withdrawals.Create(context.Background(), CreateWithdrawalInput{
		UserID:  userID,
		Amount:  dec(amount),
		Method:  model.MethodPayPal,
		Details: model.PaymentDetails{"email": userID + "@example.com"},
	})
	require.NoError(t, err)
	return w
}

func TestWithdrawalCreate_HoldsAmount(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "25.00")

	w := requestWithdrawal(t, env, "u1", "15.00")
	assert.Equal(t, model.WithdrawalPending, w.Status)
	assert.False(t, w.RequestedAt.IsZero())
	assert.Nil(t, w.ProcessedAt)

	user := env.user(t, "u1")
	assert.True(t, user.PendingEarnings.Equal(dec("10.00")), user.PendingEarnings.String())
	assert.True(t, user.TotalEarnings.Equal(dec("25.00")))
}

func TestWithdrawalCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		method string
		code   string
	}{
		{name: "below minimum", amount: "5.00", method: model.MethodPayPal, code: "AMOUNT_BELOW_MINIMUM"},
		{name: "zero", amount: "0", method: model.MethodPayPal, code: "INVALID_AMOUNT"},
		{name: "negative", amount: "-20", method: model.MethodPayPal, code: "INVALID_AMOUNT"},
		{name: "sub-cent", amount: "12.345", method: model.MethodPayPal, code: "INVALID_AMOUNT"},
		{name: "unknown method", amount: "12.00", method: "cheque", code: "INVALID_METHOD"},
		{name: "exceeds balance", amount: "40.00", method: model.MethodBitcoin, code: "INSUFFICIENT_BALANCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seedUser(t, "u1", "25.00")

			_, err := env.withdrawals.Create(context.Background(), CreateWithdrawalInput{
				UserID: "u1",
				Amount: dec(tt.amount),
				Method: tt.method,
			})
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, tt.code, CodeOf(err))

			list, err := env.withdrawals.ListUser(context.Background(), "u1")
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.True(t, env.user(t, "u1").PendingEarnings.Equal(dec("25.00")))
		})
	}
}

func TestWithdrawalCreate_InactiveUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "25.00")
	require.NoError(t, env.store.Users().SetActive(context.Background(), "u1", false))

	_, err := env.withdrawals.Create(context.Background(), CreateWithdrawalInput{
		UserID: "u1",
		Amount: dec("20.00"),
		Method: model.MethodPayoneer,
	})
	require.ErrorIs(t, err, ErrUserInactive)
}

func TestWithdrawalCreate_SecondRequestCannotOverdraw(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "25.00")
	requestWithdrawal(t, env, "u1", "20.00")

	_, err := env.withdrawals.Create(context.Background(), CreateWithdrawalInput{
		UserID: "u1",
		Amount: dec("10.00"),
		Method: model.MethodPayPal,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestWithdrawalTransition_ApproveThenPay(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "25.00")
	w := requestWithdrawal(t, env, "u1", "20.00")
	ctx := context.Background()

	approved, err := env.withdrawals.Transition(ctx, TransitionInput{ID: w.ID, Status: model.WithdrawalApproved, AdminNotes: ptr(" verified ")})
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalApproved, approved.Status)
	require.NotNil(t, approved.ProcessedAt)
	require.NotNil(t, approved.AdminNotes)
	assert.Equal(t, "verified", *approved.AdminNotes)

	paid, err := env.withdrawals.Transition(ctx, TransitionInput{ID: w.ID, Status: model.WithdrawalPaid})
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalPaid, paid.Status)

	// Approval and payment leave the held balance alone.
	assert.True(t, env.user(t, "u1").PendingEarnings.Equal(dec("5.00")))

	pending, err := env.withdrawals.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWithdrawalTransition_RejectReleasesHold(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "25.00")
	w := requestWithdrawal(t, env, "u1", "20.00")

	rejected, err := env.withdrawals.Transition(context.Background(), TransitionInput{ID: w.ID, Status: model.WithdrawalRejected})
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalRejected, rejected.Status)
	assert.NotNil(t, rejected.ProcessedAt)

	user := env.user(t, "u1")
	assert.True(t, user.PendingEarnings.Equal(dec("25.00")), user.PendingEarnings.String())
	assert.True(t, user.TotalEarnings.Equal(dec("25.00")))
}

func TestWithdrawalTransition_InvalidMoves(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		to    string
	}{
		{name: "pending to paid", to: model.WithdrawalPaid},
		{name: "rejected to approved", setup: []string{model.WithdrawalRejected}, to: model.WithdrawalApproved},
		{name: "paid to approved", setup: []string{model.WithdrawalApproved, model.WithdrawalPaid}, to: model.WithdrawalApproved},
		{name: "approved to rejected", setup: []string{model.WithdrawalApproved}, to: model.WithdrawalRejected},
		{name: "back to pending", to: model.WithdrawalPending},
		{name: "unknown status", to: "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seedUser(t, "u1", "25.00")
			w := requestWithdrawal(t, env, "u1", "20.00")
			ctx := context.Background()

			for _, status := range tt.setup {
				_, err := env.withdrawals.Transition(ctx, TransitionInput{ID: w.ID, Status: status})
				require.NoError(t, err)
			}
			before := env.user(t, "u1").PendingEarnings

			_, err := env.withdrawals.Transition(ctx, TransitionInput{ID: w.ID, Status: tt.to})
			require.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.True(t, env.user(t, "u1").PendingEarnings.Equal(before))
		})
	}
}

func TestWithdrawalTransition_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.withdrawals.Transition(context.Background(), TransitionInput{ID: "missing", Status: model.WithdrawalApproved})
	require.ErrorIs(t, err, ErrWithdrawalNotFound)
}
