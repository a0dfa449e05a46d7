package service

import (
	"context"
	"testing"
	"time"

	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository"
	"github.com/sifan077/PayLink/internal/app/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkService(t *testing.T, store *memory.Store, links repository.LinkRepository) LinkService {
	t.Helper()
	codes, err := NewShortCodeGenerator(1000)
	require.NoError(t, err)
	if links == nil {
		links = store.Links()
	}
	return NewLinkService(links, store.Users(), store.Analytics(), codes)
}

func TestShorten_AnonymousLink(t *testing.T) {
	store := memory.New()
	svc := newLinkService(t, store, nil)

	link, err := svc.Shorten(context.Background(), ShortenInput{OriginalURL: " https://example.com/landing?x=1 ", Title: " Landing "})
	require.NoError(t, err)
	assert.Len(t, link.ShortCode, model.ShortCodeLength)
	assert.Equal(t, "https://example.com/landing?x=1", link.OriginalURL)
	assert.Equal(t, "Landing", link.Title)
	assert.True(t, link.IsActive)
	assert.Nil(t, link.UserID)
	assert.Equal(t, int64(0), link.TotalViews)

	stored, err := store.Links().GetByCode(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, link.ID, stored.ID)
}

func TestShorten_RejectsInvalidURLs(t *testing.T) {
	svc := newLinkService(t, memory.New(), nil)

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "https://", "/relative/path"} {
		_, err := svc.Shorten(context.Background(), ShortenInput{OriginalURL: raw})
		require.Error(t, err, raw)
		assert.Equal(t, KindValidation, KindOf(err), raw)
	}
}

func TestShorten_OwnerMustBeActive(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "0")
	require.NoError(t, env.store.Users().SetActive(context.Background(), "u1", false))
	svc := newLinkService(t, env.store, nil)

	_, err := svc.Shorten(context.Background(), ShortenInput{UserID: ptr("u1"), OriginalURL: "https://example.com"})
	require.ErrorIs(t, err, ErrUserInactive)

	_, err = svc.Shorten(context.Background(), ShortenInput{UserID: ptr("ghost"), OriginalURL: "https://example.com"})
	require.ErrorIs(t, err, ErrUserNotFound)
}

type collidingLinks struct {
	repository.LinkRepository
	collisions int
}

func (c *collidingLinks) Create(ctx context.Context, link *model.Link) error {
	if c.collisions > 0 {
		c.collisions--
		return repository.ErrDuplicateShortCode
	}
	return c.LinkRepository.Create(ctx, link)
}

func TestShorten_RetriesOnCodeCollision(t *testing.T) {
	store := memory.New()
	links := &collidingLinks{LinkRepository: store.Links(), collisions: 2}
	svc := newLinkService(t, store, links)

	link, err := svc.Shorten(context.Background(), ShortenInput{OriginalURL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 0, links.collisions)
	assert.NotEmpty(t, link.ShortCode)
}

func TestShorten_GivesUpAfterRepeatedCollisions(t *testing.T) {
	store := memory.New()
	svc := newLinkService(t, store, &collidingLinks{LinkRepository: store.Links(), collisions: 100})

	_, err := svc.Shorten(context.Background(), ShortenInput{OriginalURL: "https://example.com"})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestLinkAnalytics_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "0")
	env.seedUser(t, "u2", "0")
	link := env.seedLink(t, ptr("u1"), "owned001")
	env.setRate(t, "DE", model.DeviceAll, "4.00")
	_, err := env.redirect.Resolve(context.Background(), "owned001", visitFrom("DE", model.DeviceDesktop, "10.0.0.1"))
	require.NoError(t, err)

	svc := newLinkService(t, env.store, nil)
	events, err := svc.LinkAnalytics(context.Background(), "u1", link.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	future := time.Now().Add(time.Hour)
	events, err = svc.LinkAnalytics(context.Background(), "u1", link.ID, &future, nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = svc.LinkAnalytics(context.Background(), "u2", link.ID, nil, nil)
	require.ErrorIs(t, err, ErrLinkNotFound)

	past := time.Now().Add(-time.Hour)
	_, err = svc.LinkAnalytics(context.Background(), "u1", link.ID, &future, &past)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSetLinkActive(t *testing.T) {
	env := newTestEnv(t)
	link := env.seedLink(t, nil, "toggle01")
	svc := newLinkService(t, env.store, nil)

	updated, err := svc.SetLinkActive(context.Background(), link.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = svc.SetLinkActive(context.Background(), "missing", true)
	require.ErrorIs(t, err, ErrLinkNotFound)
}

func TestListUserLinks(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "0")
	env.seedLink(t, ptr("u1"), "list0001")
	env.seedLink(t, ptr("u1"), "list0002")
	env.seedLink(t, nil, "anon0001")
	svc := newLinkService(t, env.store, nil)

	links, err := svc.ListUserLinks(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}
