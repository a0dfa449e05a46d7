package memory

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	if _, exists := st.users[user.ID]; exists {
		return false, nil
	}
	now := r.s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	st.users[user.ID] = *user
	st.userOrder = append(st.userOrder, user.ID)
	return true, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	user, ok := st.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*model.User, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	for _, user := range st.users {
		if user.ReferralCode == code {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	users := make([]model.User, 0, len(st.userOrder))
	for i := len(st.userOrder) - 1; i >= 0; i-- {
		users = append(users, st.users[st.userOrder[i]])
	}
	from, to := page(len(users), limit, offset, 50)
	return users[from:to], nil
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, id, func(u *model.User) error {
		u.IsActive = active
		return nil
	})
}

func (r *userRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.update(ctx, id, func(u *model.User) error {
		u.TotalEarnings = u.TotalEarnings.Add(amount)
		u.PendingEarnings = u.PendingEarnings.Add(amount)
		return nil
	})
}

func (r *userRepository) Hold(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.update(ctx, id, func(u *model.User) error {
		if u.PendingEarnings.LessThan(amount) {
			return repository.ErrInsufficientBalance
		}
		u.PendingEarnings = u.PendingEarnings.Sub(amount)
		return nil
	})
}

func (r *userRepository) Release(ctx context.Context, id string, amount decimal.Decimal) error {
	return r.update(ctx, id, func(u *model.User) error {
		u.PendingEarnings = u.PendingEarnings.Add(amount)
		return nil
	})
}

func (r *userRepository) update(ctx context.Context, id string, mutate func(u *model.User) error) error {
	st, release := r.s.acquire(ctx)
	defer release()

	user, ok := st.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if err := mutate(&user); err != nil {
		return err
	}
	user.UpdatedAt = r.s.now()
	st.users[id] = user
	return nil
}
