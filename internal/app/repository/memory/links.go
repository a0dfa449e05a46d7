package memory

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
)

type linkRepository struct {
	s *Store
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	st, release := r.s.acquire(ctx)
	defer release()

	if _, taken := st.codes[link.ShortCode]; taken {
		return repository.ErrDuplicateShortCode
	}
	now := r.s.now()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now

	st.links[link.ID] = *link
	st.codes[link.ShortCode] = link.ID
	st.linkOrder = append(st.linkOrder, link.ID)
	return nil
}

func (r *linkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	id, ok := st.codes[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	link := st.links[id]
	return &link, nil
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (*model.Link, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	link, ok := st.links[id]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return &link, nil
}

func (r *linkRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Link, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	var owned []model.Link
	for i := len(st.linkOrder) - 1; i >= 0; i-- {
		link := st.links[st.linkOrder[i]]
		if link.UserID != nil && *link.UserID == userID {
			owned = append(owned, link)
		}
	}
	from, to := page(len(owned), limit, offset, 20)
	return owned[from:to], nil
}

func (r *linkRepository) ShortCodes(ctx context.Context) ([]string, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	codes := make([]string, 0, len(st.codes))
	for code := range st.codes {
		codes = append(codes, code)
	}
	return codes, nil
}

func (r *linkRepository) SetActive(ctx context.Context, id string, active bool) error {
	st, release := r.s.acquire(ctx)
	defer release()

	link, ok := st.links[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.IsActive = active
	link.UpdatedAt = r.s.now()
	st.links[id] = link
	return nil
}

func (r *linkRepository) AddVisit(ctx context.Context, id string, amount decimal.Decimal) error {
	st, release := r.s.acquire(ctx)
	defer release()

	link, ok := st.links[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.TotalViews++
	link.TotalEarnings = link.TotalEarnings.Add(amount)
	link.UpdatedAt = r.s.now()
	st.links[id] = link
	return nil
}
