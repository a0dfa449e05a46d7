package memory

import (
	"context"

	"github.com/sifan077/PayLink/internal/app/model"
)

type referralRepository struct {
	s *Store
}

func (r *referralRepository) Create(ctx context.Context, referral *model.Referral) error {
	st, release := r.s.acquire(ctx)
	defer release()

	if _, exists := st.referrals[referral.ReferredID]; exists {
		return nil
	}
	if referral.CreatedAt.IsZero() {
		referral.CreatedAt = r.s.now()
	}
	st.referrals[referral.ReferredID] = *referral
	st.refOrder = append(st.refOrder, referral.ReferredID)
	return nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]model.Referral, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	var result []model.Referral
	for i := len(st.refOrder) - 1; i >= 0; i-- {
		ref := st.referrals[st.refOrder[i]]
		if ref.ReferrerID == referrerID {
			result = append(result, ref)
		}
	}
	return result, nil
}
