package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/service"
	"github.com/sifan077/PayLink/internal/http/util"
	"go.uber.org/zap"
)

const userLocalKey = "user"

// Claims are the access token claims. Subject identifies the user; Ref
// carries the referral code used at sign-up.
type Claims struct {
	Email string `json:"email,omitempty"`
	Ref   string `json:"ref,omitempty"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid access token")

// TokenVerifier checks HS256 access tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier returns a verifier for tokens signed with secret. A
// non-empty issuer must match the iss claim.
func NewTokenVerifier(secret []byte, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: secret, issuer: issuer}
}

// Verify parses raw and returns its claims.
func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, err
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate verifies the Bearer token, loads (or registers) the caller
// and stores it for CurrentUser.
func Authenticate(verifier *TokenVerifier, users service.UserService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return util.Fail(c, fiber.StatusUnauthorized, "MISSING_AUTHORIZATION_HEADER", "authorization header is required")
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return util.Fail(c, fiber.StatusUnauthorized, "INVALID_AUTHORIZATION_FORMAT", "expected 'Bearer <token>'")
		}

		claims, err := verifier.Verify(strings.TrimSpace(raw))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return util.Fail(c, fiber.StatusUnauthorized, "TOKEN_EXPIRED", "access token has expired")
			}
			return util.Fail(c, fiber.StatusUnauthorized, "TOKEN_INVALID", "invalid access token")
		}

		user, err := users.EnsureUser(c.UserContext(), service.Identity{
			ID:           claims.Subject,
			Email:        claims.Email,
			ReferralCode: claims.Ref,
		})
		if err != nil {
			return util.WriteError(c, logger, err)
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(userLocalKey).(*model.User)
	return user
}
