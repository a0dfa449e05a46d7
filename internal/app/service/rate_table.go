package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
	"go.uber.org/zap"
)

// SetRateInput is an admin upsert of one CPM rule.
type SetRateInput struct {
	Country  string
	Device   string
	Rate     decimal.Decimal
	IsActive bool
}

type rateKey struct {
	country string
	device  string
}

// RateTable answers CPM lookups from an in-memory snapshot of the active
// rates. The snapshot is rebuilt by Refresh and after every SetRate.
type RateTable struct {
	repo   repository.CpmRateRepository
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot map[rateKey]decimal.Decimal
}

// NewRateTable returns an empty table; call Refresh before serving traffic.
func NewRateTable(repo repository.CpmRateRepository, logger *zap.Logger) *RateTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateTable{
		repo:     repo,
		logger:   logger,
		snapshot: map[rateKey]decimal.Decimal{},
	}
}

// Lookup returns the rate for (country, device), falling back to the
// country's "all" rate. found is false when neither exists.
func (t *RateTable) Lookup(country, device string) (rate decimal.Decimal, found bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	country = strings.ToUpper(country)
	if rate, ok := t.snapshot[rateKey{country: country, device: device}]; ok {
		return rate, true
	}
	if rate, ok := t.snapshot[rateKey{country: country, device: model.DeviceAll}]; ok {
		return rate, true
	}
	return decimal.Zero, false
}

// Refresh reloads the snapshot. On failure the previous snapshot stays in place.
func (t *RateTable) Refresh(ctx context.Context) error {
	rates, err := t.repo.ListActive(ctx)
	if err != nil {
		return internalError("RATE_REFRESH_FAILED", "failed to load cpm rates", err)
	}

	next := make(map[rateKey]decimal.Decimal, len(rates))
	for _, r := range rates {
		next[rateKey{country: r.Country, device: r.Device}] = r.Rate
	}

	t.mu.Lock()
	t.snapshot = next
	t.mu.Unlock()

	t.logger.Debug("cpm rate table refreshed", zap.Int("rates", len(next)))
	return nil
}

// ListRates returns the active rates straight from storage.
func (t *RateTable) ListRates(ctx context.Context) ([]model.CpmRate, error) {
	rates, err := t.repo.ListActive(ctx)
	if err != nil {
		return nil, internalError("RATE_LIST_FAILED", "failed to list cpm rates", err)
	}
	return rates, nil
}

// SetRate validates and upserts a rate keyed by (country, device), replacing
// the previous rule entirely.
func (t *RateTable) SetRate(ctx context.Context, input SetRateInput) (*model.CpmRate, error) {
	country := strings.ToUpper(strings.TrimSpace(input.Country))
	if len(country) < 2 || len(country) > 8 {
		return nil, validationError("INVALID_COUNTRY", "country must be a 2-8 character code")
	}

	device := strings.ToLower(strings.TrimSpace(input.Device))
	if device == "" {
		device = model.DeviceAll
	}
	switch device {
	case model.DeviceAll, model.DeviceDesktop, model.DeviceMobile:
	default:
		return nil, validationError("INVALID_DEVICE", "device must be one of: desktop, mobile, all")
	}

	if input.Rate.IsNegative() {
		return nil, validationError("INVALID_RATE", "rate must not be negative")
	}
	if !input.Rate.Equal(input.Rate.Round(CurrencyScale)) {
		return nil, validationError("INVALID_RATE", "rate must have at most 2 decimal places")
	}

	rate := &model.CpmRate{
		ID:       uuid.New().String(),
		Country:  country,
		Device:   device,
		Rate:     input.Rate,
		IsActive: input.IsActive,
	}
	if err := t.repo.Upsert(ctx, rate); err != nil {
		return nil, internalError("RATE_UPSERT_FAILED", "failed to save cpm rate", err)
	}

	if err := t.Refresh(ctx); err != nil {
		t.logger.Warn("cpm rate saved but table refresh failed", zap.Error(err))
	}
	return rate, nil
}
