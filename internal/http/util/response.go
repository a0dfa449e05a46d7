package util

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PayLink/internal/app/service"
	"go.uber.org/zap"
)

// StatusFor maps a service error kind onto an HTTP status.
func StatusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindUnauthorized:
		return fiber.StatusUnauthorized
	case service.KindForbidden:
		return fiber.StatusForbidden
	case service.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteError renders err as {"error", "code"}. Internal errors are logged and
// their message is withheld from the client.
func WriteError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	kind := service.KindOf(err)
	status := StatusFor(kind)
	code := service.CodeOf(err)

	message := err.Error()
	var se *service.Error
	if errors.As(err, &se) {
		message = se.Message
	}
	if kind == service.KindInternal {
		if logger != nil {
			logger.Error("request failed",
				zap.Error(err),
				zap.String("code", code),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()))
		}
		message = "internal server error"
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

// Fail renders a transport-level error that never reached a service.
func Fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
