package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
)

const (
	maxURLLength       = 2048
	maxShortenAttempts = 5
)

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	Shorten(ctx context.Context, input ShortenInput) (*model.Link, error)
	ListUserLinks(ctx context.Context, userID string, limit, offset int) ([]model.Link, error)
	LinkAnalytics(ctx context.Context, userID, linkID string, from, to *time.Time) ([]model.AnalyticsEvent, error)
	SetLinkActive(ctx context.Context, linkID string, active bool) (*model.Link, error)
}

// ShortenInput captures data required to create a link. A nil UserID
// creates an anonymous link.
type ShortenInput struct {
	UserID      *string
	OriginalURL string
	Title       string
	Description string
}

type linkService struct {
	links     repository.LinkRepository
	users     repository.UserRepository
	analytics repository.AnalyticsRepository
	codes     *ShortCodeGenerator
}

// NewLinkService returns a LinkService backed by the given repositories.
func NewLinkService(links repository.LinkRepository, users repository.UserRepository, analytics repository.AnalyticsRepository, codes *ShortCodeGenerator) LinkService {
	return &linkService{links: links, users: users, analytics: analytics, codes: codes}
}

func (s *linkService) Shorten(ctx context.Context, input ShortenInput) (*model.Link, error) {
	target, err := normalizeURL(input.OriginalURL)
	if err != nil {
		return nil, err
	}

	if input.UserID != nil {
		user, err := s.users.GetByID(ctx, *input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, internalError("USER_LOOKUP_FAILED", "failed to load user", err)
		}
		if !user.IsActive {
			return nil, ErrUserInactive
		}
	}

	for attempt := 0; attempt < maxShortenAttempts; attempt++ {
		link := &model.Link{
			ID:            uuid.New().String(),
			UserID:        input.UserID,
			OriginalURL:   target,
			ShortCode:     s.codes.Generate(),
			Title:         strings.TrimSpace(input.Title),
			Description:   strings.TrimSpace(input.Description),
			IsActive:      true,
			TotalEarnings: decimal.Zero,
		}
		err := s.links.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrDuplicateShortCode) {
			return nil, internalError("LINK_CREATE_FAILED", "failed to create link", err)
		}
	}
	return nil, &Error{Kind: KindConflict, Code: "SHORT_CODE_EXHAUSTED", Message: "could not allocate a unique short code"}
}

func (s *linkService) ListUserLinks(ctx context.Context, userID string, limit, offset int) ([]model.Link, error) {
	links, err := s.links.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, internalError("LINK_LIST_FAILED", "failed to list links", err)
	}
	return links, nil
}

func (s *linkService) LinkAnalytics(ctx context.Context, userID, linkID string, from, to *time.Time) ([]model.AnalyticsEvent, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, internalError("LINK_LOOKUP_FAILED", "failed to load link", err)
	}
	// Other users' links are reported as missing.
	if link.UserID == nil || *link.UserID != userID {
		return nil, ErrLinkNotFound
	}

	events, err := s.analytics.ListByLink(ctx, linkID, from, to)
	if err != nil {
		return nil, internalError("ANALYTICS_LIST_FAILED", "failed to list analytics", err)
	}
	return events, nil
}

func (s *linkService) SetLinkActive(ctx context.Context, linkID string, active bool) (*model.Link, error) {
	if err := s.links.SetActive(ctx, linkID, active); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, internalError("LINK_UPDATE_FAILED", "failed to update link", err)
	}
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, internalError("LINK_LOOKUP_FAILED", "failed to load link", err)
	}
	return link, nil
}

func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", validationError("URL_REQUIRED", "originalUrl is required")
	}
	if len(raw) > maxURLLength {
		return "", validationError("URL_TOO_LONG", "originalUrl is too long")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", validationError("INVALID_URL", "originalUrl must be an absolute http(s) URL")
	}
	return u.String(), nil
}

func validateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return validationError("INVALID_RANGE", "from must not be after to")
	}
	return nil
}
