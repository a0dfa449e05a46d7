package memory

import (
	"context"
	"time"

	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
)

type withdrawalRepository struct {
	s *Store
}

func (r *withdrawalRepository) Create(ctx context.Context, withdrawal *model.Withdrawal) error {
	st, release := r.s.acquire(ctx)
	defer release()

	st.withdrawals[withdrawal.ID] = *withdrawal
	st.wdOrder = append(st.wdOrder, withdrawal.ID)
	return nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id string) (*model.Withdrawal, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	withdrawal, ok := st.withdrawals[id]
	if !ok {
		return nil, repository.ErrWithdrawalNotFound
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID string) ([]model.Withdrawal, error) {
	return r.filter(ctx, func(w model.Withdrawal) bool { return w.UserID == userID })
}

func (r *withdrawalRepository) ListByStatus(ctx context.Context, status string) ([]model.Withdrawal, error) {
	return r.filter(ctx, func(w model.Withdrawal) bool { return w.Status == status })
}

func (r *withdrawalRepository) filter(ctx context.Context, keep func(model.Withdrawal) bool) ([]model.Withdrawal, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	var result []model.Withdrawal
	for i := len(st.wdOrder) - 1; i >= 0; i-- {
		w := st.withdrawals[st.wdOrder[i]]
		if keep(w) {
			result = append(result, w)
		}
	}
	return result, nil
}

func (r *withdrawalRepository) CompareAndSetStatus(ctx context.Context, id, from, to string, adminNotes *string, processedAt time.Time) error {
	st, release := r.s.acquire(ctx)
	defer release()

	withdrawal, ok := st.withdrawals[id]
	if !ok {
		return repository.ErrWithdrawalNotFound
	}
	if withdrawal.Status != from {
		return repository.ErrStatusMismatch
	}
	withdrawal.Status = to
	withdrawal.ProcessedAt = &processedAt
	if adminNotes != nil {
		notes := *adminNotes
		withdrawal.AdminNotes = &notes
	}
	st.withdrawals[id] = withdrawal
	return nil
}
