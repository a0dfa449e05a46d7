package service

import (
	"context"
	"testing"

	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_UserAnalyticsAndStats(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "30.00")
	env.seedLink(t, ptr("u1"), "report01")
	env.setRate(t, "DE", model.DeviceAll, "4.00")
	ctx := context.Background()

	_, err := env.redirect.Resolve(ctx, "report01", visitFrom("DE", model.DeviceMobile, "10.0.0.1"))
	require.NoError(t, err)
	_, err = env.redirect.Resolve(ctx, "report01", visitFrom("FR", model.DeviceDesktop, "10.0.0.2"))
	require.NoError(t, err)
	requestWithdrawal(t, env, "u1", "12.00")

	svc := NewReportService(env.store.Reports())

	analytics, err := svc.UserAnalytics(ctx, "u1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), analytics.TotalViews)
	assert.True(t, analytics.TotalEarnings.Equal(dec("0.004")))
	assert.Equal(t, []string{"DE", "FR"}, analytics.Countries)
	assert.Equal(t, []string{model.DeviceDesktop, model.DeviceMobile}, analytics.Devices)

	stats, err := svc.SystemStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users.Total)
	assert.Equal(t, int64(1), stats.Links.Total)
	assert.Equal(t, int64(2), stats.Links.TotalViews)
	assert.True(t, stats.Withdrawals.Pending.Equal(dec("12.00")))
	assert.True(t, stats.Withdrawals.Paid.IsZero())
}
