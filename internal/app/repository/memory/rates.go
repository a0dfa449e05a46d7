package memory

import (
	"context"
	"sort"

	"github.com/sifan077/PayLink/internal/app/model"
)

type cpmRateRepository struct {
	s *Store
}

func (r *cpmRateRepository) Upsert(ctx context.Context, rate *model.CpmRate) error {
	st, release := r.s.acquire(ctx)
	defer release()

	key := rateKey{country: rate.Country, device: rate.Device}
	stored := *rate
	if prev, ok := st.rates[key]; ok {
		stored.ID = prev.ID
	}
	stored.UpdatedAt = r.s.now()
	st.rates[key] = stored
	*rate = stored
	return nil
}

func (r *cpmRateRepository) ListActive(ctx context.Context) ([]model.CpmRate, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	rates := make([]model.CpmRate, 0, len(st.rates))
	for _, rate := range st.rates {
		if rate.IsActive {
			rates = append(rates, rate)
		}
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Country != rates[j].Country {
			return rates[i].Country < rates[j].Country
		}
		return rates[i].Device < rates[j].Device
	})
	return rates, nil
}
