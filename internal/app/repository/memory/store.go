// Package memory implements the repository contracts on an in-process store.
// Transactions take the store lock, run against a copy of the state and swap
// it in on success, so a failed unit of work leaves no trace.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
)

type rateKey struct {
	country string
	device  string
}

type state struct {
	links       map[string]model.Link
	linkOrder   []string
	codes       map[string]string
	users       map[string]model.User
	userOrder   []string
	events      map[string]model.AnalyticsEvent
	eventOrder  []string
	rates       map[rateKey]model.CpmRate
	withdrawals map[string]model.Withdrawal
	wdOrder     []string
	referrals   map[string]model.Referral
	refOrder    []string
}

func newState() *state {
	return &state{
		links:       make(map[string]model.Link),
		codes:       make(map[string]string),
		users:       make(map[string]model.User),
		events:      make(map[string]model.AnalyticsEvent),
		rates:       make(map[rateKey]model.CpmRate),
		withdrawals: make(map[string]model.Withdrawal),
		referrals:   make(map[string]model.Referral),
	}
}

func (s *state) clone() *state {
	c := &state{
		links:       make(map[string]model.Link, len(s.links)),
		linkOrder:   append([]string(nil), s.linkOrder...),
		codes:       make(map[string]string, len(s.codes)),
		users:       make(map[string]model.User, len(s.users)),
		userOrder:   append([]string(nil), s.userOrder...),
		events:      make(map[string]model.AnalyticsEvent, len(s.events)),
		eventOrder:  append([]string(nil), s.eventOrder...),
		rates:       make(map[rateKey]model.CpmRate, len(s.rates)),
		withdrawals: make(map[string]model.Withdrawal, len(s.withdrawals)),
		wdOrder:     append([]string(nil), s.wdOrder...),
		referrals:   make(map[string]model.Referral, len(s.referrals)),
		refOrder:    append([]string(nil), s.refOrder...),
	}
	for k, v := range s.links {
		c.links[k] = v
	}
	for k, v := range s.codes {
		c.codes[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.rates {
		c.rates[k] = v
	}
	for k, v := range s.withdrawals {
		c.withdrawals[k] = v
	}
	for k, v := range s.referrals {
		c.referrals[k] = v
	}
	return c
}

// Store holds every entity in memory and hands out repositories over it.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

type txBinding struct {
	store *Store
	st    *state
}

type txContextKey struct{}

// acquire returns the state visible to ctx and the function releasing it.
func (s *Store) acquire(ctx context.Context) (*state, func()) {
	if b, ok := ctx.Value(txContextKey{}).(*txBinding); ok && b.store == s {
		return b.st, func() {}
	}
	s.mu.Lock()
	return s.st, s.mu.Unlock
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if b, ok := ctx.Value(txContextKey{}).(*txBinding); ok && b.store == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(context.WithValue(ctx, txContextKey{}, &txBinding{store: s, st: working})); err != nil {
		return err
	}
	s.st = working
	return nil
}

// Transactor returns the store as a repository.Transactor.
func (s *Store) Transactor() repository.Transactor { return s }

// Links returns a LinkRepository backed by the store.
func (s *Store) Links() repository.LinkRepository { return &linkRepository{s: s} }

// Users returns a UserRepository backed by the store.
func (s *Store) Users() repository.UserRepository { return &userRepository{s: s} }

// Analytics returns an AnalyticsRepository backed by the store.
func (s *Store) Analytics() repository.AnalyticsRepository { return &analyticsRepository{s: s} }

// Rates returns a CpmRateRepository backed by the store.
func (s *Store) Rates() repository.CpmRateRepository { return &cpmRateRepository{s: s} }

// Withdrawals returns a WithdrawalRepository backed by the store.
func (s *Store) Withdrawals() repository.WithdrawalRepository { return &withdrawalRepository{s: s} }

// Referrals returns a ReferralRepository backed by the store.
func (s *Store) Referrals() repository.ReferralRepository { return &referralRepository{s: s} }

// Reports returns a ReportRepository backed by the store.
func (s *Store) Reports() repository.ReportRepository { return &reportRepository{s: s} }

func page(n, limit, offset, defaultLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + limit
	if end > n {
		end = n
	}
	return offset, end
}
