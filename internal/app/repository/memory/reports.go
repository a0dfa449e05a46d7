package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
)

type reportRepository struct {
	s *Store
}

func (r *reportRepository) UserAnalytics(ctx context.Context, userID string, from, to *time.Time) (*model.UserAnalytics, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	result := &model.UserAnalytics{
		TotalEarnings: decimal.Zero,
		Countries:     []string{},
		Devices:       []string{},
	}
	countries := map[string]struct{}{}
	devices := map[string]struct{}{}
	for _, event := range st.events {
		link, ok := st.links[event.LinkID]
		if !ok || link.UserID == nil || *link.UserID != userID {
			continue
		}
		if from != nil && event.Timestamp.Before(*from) {
			continue
		}
		if to != nil && event.Timestamp.After(*to) {
			continue
		}
		result.TotalViews++
		result.TotalEarnings = result.TotalEarnings.Add(event.Earnings)
		if event.Country != "" {
			countries[event.Country] = struct{}{}
		}
		if event.Device != "" {
			devices[event.Device] = struct{}{}
		}
	}
	result.Countries = sortedKeys(countries)
	result.Devices = sortedKeys(devices)
	return result, nil
}

func (r *reportRepository) SystemStats(ctx context.Context) (*model.SystemStats, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	stats := &model.SystemStats{}
	for _, user := range st.users {
		stats.Users.Total++
		if user.IsActive {
			stats.Users.Active++
		}
	}
	for _, link := range st.links {
		stats.Links.Total++
		stats.Links.TotalViews += link.TotalViews
	}
	stats.Withdrawals.Pending = decimal.Zero
	stats.Withdrawals.Paid = decimal.Zero
	for _, w := range st.withdrawals {
		switch w.Status {
		case model.WithdrawalPending:
			stats.Withdrawals.Pending = stats.Withdrawals.Pending.Add(w.Amount)
		case model.WithdrawalPaid:
			stats.Withdrawals.Paid = stats.Withdrawals.Paid.Add(w.Amount)
		}
	}
	return stats, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
