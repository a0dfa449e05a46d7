package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/service"
	"github.com/sifan077/PayLink/internal/http/util"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger     *zap.Logger
	Redirects  *service.RedirectService
	Classifier service.VisitClassifier
	// CountryHeader names the header carrying the visitor's country code.
	CountryHeader string
}

// RedirectHandler serves short link redirects and liveness.
type RedirectHandler struct {
	logger        *zap.Logger
	redirects     *service.RedirectService
	classifier    service.VisitClassifier
	countryHeader string
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	header := deps.CountryHeader
	if header == "" {
		header = "CF-IPCountry"
	}
	return &RedirectHandler{
		logger:        logger,
		redirects:     deps.Redirects,
		classifier:    deps.Classifier,
		countryHeader: header,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/s/:shortCode", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "PayLink",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Resolve handles GET /s/:shortCode: the visit is attributed, then the
// caller is sent to the destination with a 302.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("shortCode")
	userAgent := c.Get(fiber.HeaderUserAgent)

	visit := model.Visit{
		IP:        c.IP(),
		UserAgent: userAgent,
		Country:   h.classifier.Country(c.Get(h.countryHeader)),
		Device:    h.classifier.Device(userAgent),
		Referrer:  c.Get(fiber.HeaderReferer),
	}

	target, err := h.redirects.Resolve(c.UserContext(), code, visit)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}

	h.logger.Debug("redirecting short link", zap.String("code", code), zap.String("target", target))
	return c.Redirect(target, fiber.StatusFound)
}
