package memory

import (
	"context"
	"time"

	"github.com/sifan077/PayLink/internal/app/model"
)

type analyticsRepository struct {
	s *Store
}

func (r *analyticsRepository) Create(ctx context.Context, event *model.AnalyticsEvent) (bool, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	if _, exists := st.events[event.ID]; exists {
		return false, nil
	}
	st.events[event.ID] = *event
	st.eventOrder = append(st.eventOrder, event.ID)
	return true, nil
}

func (r *analyticsRepository) ListByLink(ctx context.Context, linkID string, from, to *time.Time) ([]model.AnalyticsEvent, error) {
	st, release := r.s.acquire(ctx)
	defer release()

	var events []model.AnalyticsEvent
	for i := len(st.eventOrder) - 1; i >= 0; i-- {
		event := st.events[st.eventOrder[i]]
		if event.LinkID != linkID {
			continue
		}
		if from != nil && event.Timestamp.Before(*from) {
			continue
		}
		if to != nil && event.Timestamp.After(*to) {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
