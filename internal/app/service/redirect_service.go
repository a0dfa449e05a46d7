package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
	"github.com/sifan077/PayLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// VisitPublisher hands a visit to asynchronous attribution.
type VisitPublisher interface {
	Publish(ctx context.Context, visit model.Visit) error
}

// RedirectDeps groups the collaborators of a RedirectService.
type RedirectDeps struct {
	Logger     *zap.Logger
	Links      repository.LinkRepository
	Attributor *Attributor
	// Publisher switches the service to async attribution when non-nil.
	Publisher VisitPublisher
}

// RedirectService resolves short codes and triggers attribution.
type RedirectService struct {
	logger     *zap.Logger
	links      repository.LinkRepository
	attributor *Attributor
	publisher  VisitPublisher
}

// NewRedirectService builds a RedirectService.
func NewRedirectService(deps RedirectDeps) *RedirectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectService{
		logger:     logger,
		links:      deps.Links,
		attributor: deps.Attributor,
		publisher:  deps.Publisher,
	}
}

// Resolve returns the destination of code after attributing visit.
// Missing and disabled links both yield ErrLinkNotFound. In synchronous
// mode an attribution failure aborts the redirect.
func (s *RedirectService) Resolve(ctx context.Context, code string, visit model.Visit) (string, error) {
	link, err := s.activeLink(ctx, code)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			prometheus.ObserveRedirect(prometheus.RedirectNotFound)
		} else {
			prometheus.ObserveRedirect(prometheus.RedirectFailed)
		}
		return "", err
	}

	visit.ShortCode = link.ShortCode
	if visit.EventID == "" {
		visit.EventID = uuid.New().String()
	}
	if visit.Timestamp.IsZero() {
		visit.Timestamp = time.Now().UTC()
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, visit); err != nil {
			prometheus.ObserveRedirect(prometheus.RedirectFailed)
			return "", internalError("VISIT_PUBLISH_FAILED", "failed to queue visit", err)
		}
		prometheus.ObserveRedirect(prometheus.RedirectQueued)
		return link.OriginalURL, nil
	}

	if _, _, err := s.attributor.Attribute(ctx, link, visit); err != nil {
		prometheus.ObserveRedirect(prometheus.RedirectFailed)
		return "", err
	}
	prometheus.ObserveRedirect(prometheus.RedirectServed)
	return link.OriginalURL, nil
}

// AttributeVisit attributes a visit delivered by the visit stream. Visits of
// links that vanished or were disabled after the redirect are dropped.
func (s *RedirectService) AttributeVisit(ctx context.Context, visit model.Visit) error {
	link, err := s.activeLink(ctx, visit.ShortCode)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			s.logger.Info("dropping visit for unavailable link",
				zap.String("id", visit.EventID),
				zap.String("short_code", visit.ShortCode))
			return nil
		}
		return err
	}

	_, recorded, err := s.attributor.Attribute(ctx, link, visit)
	if err != nil {
		return err
	}
	if !recorded {
		prometheus.ObserveRedirect(prometheus.RedirectDuplicate)
	}
	return nil
}

func (s *RedirectService) activeLink(ctx context.Context, code string) (*model.Link, error) {
	if code == "" {
		return nil, ErrLinkNotFound
	}
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		s.logger.Error("failed to load link", zap.Error(err), zap.String("code", code))
		return nil, internalError("LINK_LOOKUP_FAILED", "failed to load link", err)
	}
	if !link.IsActive {
		return nil, ErrLinkNotFound
	}
	return link, nil
}
