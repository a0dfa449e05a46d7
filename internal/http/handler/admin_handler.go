package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/service"
	"github.com/sifan077/PayLink/internal/http/util"
	"go.uber.org/zap"
)

// AdminDeps groups dependencies required by admin handlers.
type AdminDeps struct {
	Logger      *zap.Logger
	Users       service.UserService
	Links       service.LinkService
	Reports     *service.ReportService
	Withdrawals *service.WithdrawalService
	Rates       *service.RateTable
}

// AdminHandler implements the /api/admin endpoints.
type AdminHandler struct {
	logger      *zap.Logger
	users       service.UserService
	links       service.LinkService
	reports     *service.ReportService
	withdrawals *service.WithdrawalService
	rates       *service.RateTable
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger:      logger,
		users:       deps.Users,
		links:       deps.Links,
		reports:     deps.Reports,
		withdrawals: deps.Withdrawals,
		rates:       deps.Rates,
	}
}

// Register wires admin routes onto router (mounted at /api/admin). Every
// route runs guards first.
func (h *AdminHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	route := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), handler)
	}

	router.Get("/users", route(h.ListUsers)...)
	router.Patch("/users/:userId/status", route(h.SetUserStatus)...)
	router.Patch("/links/:linkId/status", route(h.SetLinkStatus)...)
	router.Get("/stats", route(h.Stats)...)
	router.Get("/withdrawals", route(h.ListPendingWithdrawals)...)
	router.Patch("/withdrawals/:id", route(h.DecideWithdrawal)...)
	router.Get("/cpm-rates", route(h.ListRates)...)
	router.Post("/cpm-rates", route(h.SetRate)...)
}

// ListUsers handles GET /api/admin/users?page=&limit=
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	users, err := h.users.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(fiber.Map{
		"users":  users,
		"limit":  limit,
		"offset": offset,
		"count":  len(users),
	})
}

// SetUserStatus handles PATCH /api/admin/users/:userId/status
func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return util.Fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}

	user, err := h.users.SetUserActive(c.UserContext(), c.Params("userId"), *req.IsActive)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	h.logger.Info("user status changed", zap.String("user_id", user.ID), zap.Bool("active", user.IsActive))
	return c.JSON(user)
}

// SetLinkStatus handles PATCH /api/admin/links/:linkId/status
func (h *AdminHandler) SetLinkStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return util.Fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}

	link, err := h.links.SetLinkActive(c.UserContext(), c.Params("linkId"), *req.IsActive)
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	h.logger.Info("link status changed", zap.String("link_id", link.ID), zap.Bool("active", link.IsActive))
	return c.JSON(link)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.reports.SystemStats(c.UserContext())
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	return c.JSON(stats)
}

// ListPendingWithdrawals handles GET /api/admin/withdrawals
func (h *AdminHandler) ListPendingWithdrawals(c *fiber.Ctx) error {
	withdrawals, err := h.withdrawals.ListPending(c.UserContext())
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	if withdrawals == nil {
		withdrawals = []model.Withdrawal{}
	}
	return c.JSON(fiber.Map{"withdrawals": withdrawals})
}

// DecideWithdrawal handles PATCH /api/admin/withdrawals/:id
func (h *AdminHandler) DecideWithdrawal(c *fiber.Ctx) error {
	var req WithdrawalDecisionRequest
	if err := bind(c, &req); err != nil {
		return util.Fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}

	withdrawal, err := h.withdrawals.Transition(c.UserContext(), service.TransitionInput{
		ID:         c.Params("id"),
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	return c.JSON(withdrawal)
}

// ListRates handles GET /api/admin/cpm-rates
func (h *AdminHandler) ListRates(c *fiber.Ctx) error {
	rates, err := h.rates.ListRates(c.UserContext())
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	if rates == nil {
		rates = []model.CpmRate{}
	}
	return c.JSON(fiber.Map{"rates": rates})
}

// SetRate handles POST /api/admin/cpm-rates
func (h *AdminHandler) SetRate(c *fiber.Ctx) error {
	var req CpmRateRequest
	if err := bind(c, &req); err != nil {
		return util.Fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	rate, err := h.rates.SetRate(c.UserContext(), service.SetRateInput{
		Country:  req.Country,
		Device:   req.Device,
		Rate:     req.Rate,
		IsActive: active,
	})
	if err != nil {
		return util.WriteError(c, h.logger, err)
	}
	h.logger.Info("cpm rate saved",
		zap.String("country", rate.Country),
		zap.String("device", rate.Device),
		zap.String("rate", rate.Rate.StringFixed(2)),
		zap.Bool("active", rate.IsActive))
	return c.Status(fiber.StatusCreated).JSON(rate)
}
