package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
	"github.com/sifan077/PayLink/internal/app/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateTable_SetRateValidation(t *testing.T) {
	table := NewRateTable(memory.New().Rates(), nil)

	tests := []struct {
		name  string
		input SetRateInput
		code  string
	}{
		{name: "short country", input: SetRateInput{Country: "D", Rate: dec("1")}, code: "INVALID_COUNTRY"},
		{name: "bad device", input: SetRateInput{Country: "DE", Device: "tablet", Rate: dec("1")}, code: "INVALID_DEVICE"},
		{name: "negative", input: SetRateInput{Country: "DE", Rate: dec("-1")}, code: "INVALID_RATE"},
		{name: "too precise", input: SetRateInput{Country: "DE", Rate: dec("1.005")}, code: "INVALID_RATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.SetRate(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestRateTable_SetRateReplacesRule(t *testing.T) {
	store := memory.New()
	table := NewRateTable(store.Rates(), nil)
	ctx := context.Background()

	first, err := table.SetRate(ctx, SetRateInput{Country: "de", Rate: dec("4.00"), IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "DE", first.Country)
	assert.Equal(t, model.DeviceAll, first.Device)

	second, err := table.SetRate(ctx, SetRateInput{Country: "DE", Device: "ALL", Rate: dec("5.50"), IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	rate, found := table.Lookup("DE", model.DeviceMobile)
	require.True(t, found)
	assert.True(t, rate.Equal(dec("5.50")))

	rates, err := table.ListRates(ctx)
	require.NoError(t, err)
	assert.Len(t, rates, 1)

	// Deactivating removes the rule from lookups.
	_, err = table.SetRate(ctx, SetRateInput{Country: "DE", Rate: dec("5.50"), IsActive: false})
	require.NoError(t, err)
	_, found = table.Lookup("DE", model.DeviceMobile)
	assert.False(t, found)
}

func TestRateTable_RefreshPicksUpExternalChanges(t *testing.T) {
	store := memory.New()
	table := NewRateTable(store.Rates(), nil)
	ctx := context.Background()

	require.NoError(t, store.Rates().Upsert(ctx, &model.CpmRate{ID: "r1", Country: "US", Device: model.DeviceAll, Rate: dec("2.00"), IsActive: true}))
	_, found := table.Lookup("US", model.DeviceDesktop)
	assert.False(t, found)

	require.NoError(t, table.Refresh(ctx))
	rate, found := table.Lookup("us", model.DeviceDesktop)
	require.True(t, found)
	assert.True(t, rate.Equal(dec("2.00")))
}

type flakyRates struct {
	repository.CpmRateRepository
	fail bool
}

func (f *flakyRates) ListActive(ctx context.Context) ([]model.CpmRate, error) {
	if f.fail {
		return nil, errors.New("db unavailable")
	}
	return f.CpmRateRepository.ListActive(ctx)
}

func TestRateTable_FailedRefreshKeepsSnapshot(t *testing.T) {
	store := memory.New()
	repo := &flakyRates{CpmRateRepository: store.Rates()}
	table := NewRateTable(repo, nil)
	ctx := context.Background()

	require.NoError(t, store.Rates().Upsert(ctx, &model.CpmRate{ID: "r1", Country: "US", Device: model.DeviceAll, Rate: dec("2.00"), IsActive: true}))
	require.NoError(t, table.Refresh(ctx))

	repo.fail = true
	require.Error(t, table.Refresh(ctx))

	_, found := table.Lookup("US", model.DeviceAll)
	assert.True(t, found)
}

func TestRateRefresher_ReloadsPeriodically(t *testing.T) {
	store := memory.New()
	table := NewRateTable(store.Rates(), nil)
	refresher := NewRateRefresher(nil, table, 10*time.Millisecond)
	refresher.Start()
	defer refresher.Stop()

	require.NoError(t, store.Rates().Upsert(context.Background(), &model.CpmRate{ID: "r1", Country: "GB", Device: model.DeviceAll, Rate: dec("3.00"), IsActive: true}))

	assert.Eventually(t, func() bool {
		_, found := table.Lookup("GB", model.DeviceDesktop)
		return found
	}, time.Second, 10*time.Millisecond)
}
