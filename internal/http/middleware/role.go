package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PayLink/internal/http/util"
)

// RequireRole rejects callers whose role differs from role, and disabled
// accounts. It must run after Authenticate.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return util.Fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}
		if !user.IsActive {
			return util.Fail(c, fiber.StatusForbidden, "USER_INACTIVE", "account is disabled")
		}
		if user.Role != role {
			return util.Fail(c, fiber.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		}
		return c.Next()
	}
}
