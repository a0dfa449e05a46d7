package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
	"github.com/sifan077/PayLink/internal/app/repository/memory"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store       *memory.Store
	links       repository.LinkRepository
	rates       *RateTable
	ledger      *BalanceLedger
	attributor  *Attributor
	redirect    *RedirectService
	withdrawals *WithdrawalService
}

type envOption func(*testEnvConfig)

type testEnvConfig struct {
	links       func(repository.LinkRepository) repository.LinkRepository
	publisher   VisitPublisher
	guard       ClickGuard
	dedupWindow time.Duration
}

func withLinks(wrap func(repository.LinkRepository) repository.LinkRepository) envOption {
	return func(c *testEnvConfig) { c.links = wrap }
}

func withPublisher(p VisitPublisher) envOption {
	return func(c *testEnvConfig) { c.publisher = p }
}

func withGuard(g ClickGuard, window time.Duration) envOption {
	return func(c *testEnvConfig) { c.guard, c.dedupWindow = g, window }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	var cfg testEnvConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	store := memory.New()
	links := store.Links()
	if cfg.links != nil {
		links = cfg.links(links)
	}

	rates := NewRateTable(store.Rates(), nil)
	ledger := NewBalanceLedger(links, store.Users())
	attributor := NewAttributor(AttributorDeps{
		Tx:          store.Transactor(),
		Analytics:   store.Analytics(),
		Ledger:      ledger,
		Rates:       rates,
		Guard:       cfg.guard,
		DedupWindow: cfg.dedupWindow,
	})

	return &testEnv{
		store:      store,
		links:      links,
		rates:      rates,
		ledger:     ledger,
		attributor: attributor,
		redirect: NewRedirectService(RedirectDeps{
			Links:      links,
			Attributor: attributor,
			Publisher:  cfg.publisher,
		}),
		withdrawals: NewWithdrawalService(WithdrawalDeps{
			Tx:          store.Transactor(),
			Users:       store.Users(),
			Withdrawals: store.Withdrawals(),
			Ledger:      ledger,
		}),
	}
}

func (e *testEnv) setRate(t *testing.T, country, device, rate string) {
	t.Helper()
	_, err := e.rates.SetRate(context.Background(), SetRateInput{
		Country:  country,
		Device:   device,
		Rate:     decimal.RequireFromString(rate),
		IsActive: true,
	})
	require.NoError(t, err)
}

func (e *testEnv) seedUser(t *testing.T, id, pending string) *model.User {
	t.Helper()
	user := &model.User{
		ID:              id,
		Email:           id + "@example.com",
		Role:            model.RoleUser,
		IsActive:        true,
		TotalEarnings:   decimal.RequireFromString(pending),
		PendingEarnings: decimal.RequireFromString(pending),
		ReferralCode:    "REF" + id,
	}
	_, err := e.store.Users().CreateIfAbsent(context.Background(), user)
	require.NoError(t, err)
	return user
}

func (e *testEnv) seedLink(t *testing.T, ownerID *string, code string) *model.Link {
	t.Helper()
	link := &model.Link{
		ID:            "link-" + code,
		UserID:        ownerID,
		OriginalURL:   "https://example.com/" + code,
		ShortCode:     code,
		IsActive:      true,
		TotalEarnings: decimal.Zero,
	}
	require.NoError(t, e.store.Links().Create(context.Background(), link))
	return link
}

func (e *testEnv) link(t *testing.T, id string) *model.Link {
	t.Helper()
	link, err := e.store.Links().GetByID(context.Background(), id)
	require.NoError(t, err)
	return link
}

func (e *testEnv) user(t *testing.T, id string) *model.User {
	t.Helper()
	user, err := e.store.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func (e *testEnv) events(t *testing.T, linkID string) []model.AnalyticsEvent {
	t.Helper()
	events, err := e.store.Analytics().ListByLink(context.Background(), linkID, nil, nil)
	require.NoError(t, err)
	return events
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
