package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/repository/memory"
	"github.com/sifan077/PayLink/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func validClaims(sub, email string) Claims {
	return Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newAuthApp(t *testing.T, admins ...string) *fiber.App {
	t.Helper()
	store := memory.New()
	users := service.NewUserService(service.UserDeps{
		Tx:          store.Transactor(),
		Users:       store.Users(),
		Referrals:   store.Referrals(),
		AdminEmails: admins,
	})
	auth := Authenticate(NewTokenVerifier(testSecret, ""), users, zap.NewNop())

	app := fiber.New()
	app.Get("/me", auth, func(c *fiber.Ctx) error {
		return c.JSON(CurrentUser(c))
	})
	app.Get("/admin", auth, RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func errorCode(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload.Code
}

func TestAuthenticate_RejectsMissingAndMalformedTokens(t *testing.T) {
	app := newAuthApp(t)

	expired := validClaims("sub-1", "a@example.com")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims("sub-1", "a@example.com")
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing", header: "", code: "MISSING_AUTHORIZATION_HEADER"},
		{name: "not bearer", header: "Basic abc", code: "INVALID_AUTHORIZATION_FORMAT"},
		{name: "garbage", header: "Bearer not-a-jwt", code: "TOKEN_INVALID"},
		{name: "wrong secret", header: "Bearer " + signToken(t, []byte("other"), validClaims("sub-1", "")), code: "TOKEN_INVALID"},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, expired), code: "TOKEN_EXPIRED"},
		{name: "no expiry", header: "Bearer " + signToken(t, testSecret, noExpiry), code: "TOKEN_INVALID"},
		{name: "no subject", header: "Bearer " + signToken(t, testSecret, validClaims("", "")), code: "TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp.Body))
		})
	}
}

func TestAuthenticate_RegistersCaller(t *testing.T) {
	app := newAuthApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, testSecret, validClaims("sub-1", "a@example.com")))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user model.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "sub-1", user.ID)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
}

func TestRequireRole(t *testing.T) {
	app := newAuthApp(t, "boss@example.com")

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, testSecret, validClaims("sub-1", "a@example.com")))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp.Body))

	req = httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, testSecret, validClaims("sub-2", "boss@example.com")))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRequireRole_RejectsDisabledAccount(t *testing.T) {
	store := memory.New()
	users := service.NewUserService(service.UserDeps{
		Tx:          store.Transactor(),
		Users:       store.Users(),
		Referrals:   store.Referrals(),
		AdminEmails: []string{"boss@example.com"},
	})
	auth := Authenticate(NewTokenVerifier(testSecret, ""), users, zap.NewNop())
	app := fiber.New()
	app.Get("/admin", auth, RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	ctx := context.Background()
	admin, err := users.EnsureUser(ctx, service.Identity{ID: "sub-1", Email: "boss@example.com"})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, admin.Role)
	_, err = users.SetUserActive(ctx, "sub-1", false)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, testSecret, validClaims("sub-1", "boss@example.com")))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "USER_INACTIVE", errorCode(t, resp.Body))
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error { return nil })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID(), Recovery(zap.NewNop()))
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, resp.Body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestID_PropagatesCallerID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "req-42", string(body))
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestCORS_Preflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(""))
	app.Get("/", func(c *fiber.Ctx) error { return nil })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodOptions, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}
