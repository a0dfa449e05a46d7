package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/service"
	"github.com/sifan077/PayLink/internal/http/middleware"
	"github.com/sifan077/PayLink/internal/http/util"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	BaseURL     string
	Links       service.LinkService
	Reports     *service.ReportService
	Withdrawals *service.WithdrawalService
	Referrals   *service.ReferralService
}

// APIHandler implements the public and user API endpoints.
type APIHandler struct {
	logger      *zap.Logger
	baseURL     string
	links       service.LinkService
	reports     *service.ReportService
	withdrawals *service.WithdrawalService
	referrals   *service.ReferralService
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:      logger,
		baseURL:     strings.TrimRight(deps.BaseURL, "/"),
		links:       deps.Links,
		reports:     deps.Reports,
		withdrawals: deps.Withdrawals,
		referrals:   deps.Referrals,
	}
}

// Register wires API routes onto router (mounted at /api). auth guards the
// user endpoints.
func (h *APIHandler) Register(router fiber.Router, auth fiber.Handler) {
	router.Post("/shorten", h.Shorten)

	router.Get("/auth/user", auth, h.CurrentUser)

	router.Post("/links", auth, h.CreateLink)
	router.Get("/links", auth, h.ListLinks)
	router.Get("/links/:linkId/analytics", auth, h.LinkAnalytics)

	router.Get("/analytics", auth, h.Analytics)

	router.Post("/withdrawals", auth, h.CreateWithdrawal)
	router.Get("/withdrawals", auth, h.ListWithdrawals)

	router.Get("/referrals", auth, h.Referrals)
}

// Shorten handles POST /api/shorten and creates an anonymous link.
func (h *APIHandler) Shorten(c *fiber.Ctx) error {
	link, err := h.shorten(c, nil)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}
	return c.JSON(ShortenResponse{
		ShortURL:    h.shortURL(link.ShortCode),
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
	})
}

// CreateLink handles POST /api/links and creates a link owned by the caller.
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	link, err := h.shorten(c, &user.ID)
	if err != nil || link == nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

// shorten returns a nil link once an error response has been written.
func (h *APIHandler) shorten(c *fiber.Ctx, userID *string) (*model.Link, error) {
	var req ShortenRequest
	if err := bind(c, &req); err != nil {
		return nil, util.Fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}

	link, err := h.links.Shorten(c.UserContext(), service.ShortenInput{
		UserID:      userID,
		OriginalURL: req.OriginalURL,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return nil, util.WriteError(c, h.logger, err)
	}
	return link, nil
}

func (h *APIHandler) shortURL(code string) string {
	return h.baseURL + "/s/" + code
}

// CurrentUser handles GET /api/auth/user.
func (h *APIHandler) CurrentUser(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// ListLinks handles GET /api/links
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	limit, offset := pagination(c)

	links, err := h.links.ListUserLinks(c.UserContext(), user.ID, limit, offset)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	if links == nil {
		links = []model.Link{}
	}

	return c.JSON(fiber.Map{
		"links":  links,
		"limit":  limit,
		"offset": offset,
		"count":  len(links),
	})
}

// LinkAnalytics handles GET /api/links/:linkId/analytics
func (h *APIHandler) LinkAnalytics(c *fiber.Ctx) error {
	from, to, err := timeRange(c)
	if err != nil {
		return util.Fail(c, fiber.StatusBadRequest, "INVALID_RANGE", err.Error())
	}

	user := middleware.CurrentUser(c)
	events, err := h.links.LinkAnalytics(c.UserContext(), user.ID, c.Params("linkId"), from, to)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	if events == nil {
		events = []model.AnalyticsEvent{}
	}
	return c.JSON(fiber.Map{
		"events": events,
		"count":  len(events),
	})
}

// Analytics handles GET /api/analytics?from=&to=
func (h *APIHandler) Analytics(c *fiber.Ctx) error {
	from, to, err := timeRange(c)
	if err != nil {
		return util.Fail(c, fiber.StatusBadRequest, "INVALID_RANGE", err.Error())
	}

	user := middleware.CurrentUser(c)
	analytics, err := h.reports.UserAnalytics(c.UserContext(), user.ID, from, to)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	return c.JSON(analytics)
}

// CreateWithdrawal handles POST /api/withdrawals
func (h *APIHandler) CreateWithdrawal(c *fiber.Ctx) error {
	var req WithdrawalRequest
	if err := bind(c, &req); err != nil {
		return util.Fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}

	user := middleware.CurrentUser(c)
	withdrawal, err := h.withdrawals.Create(c.UserContext(), service.CreateWithdrawalInput{
		UserID:  user.ID,
		Amount:  req.Amount,
		Method:  req.Method,
		Details: req.Details,
	})
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(withdrawal)
}

// ListWithdrawals handles GET /api/withdrawals
func (h *APIHandler) ListWithdrawals(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	withdrawals, err := h.withdrawals.ListUser(c.UserContext(), user.ID)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	if withdrawals == nil {
		withdrawals = []model.Withdrawal{}
	}
	return c.JSON(fiber.Map{"withdrawals": withdrawals})
}

// Referrals handles GET /api/referrals
func (h *APIHandler) Referrals(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	summary, err := h.referrals.Summary(c.UserContext(), user.ID)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	return c.JSON(summary)
}
