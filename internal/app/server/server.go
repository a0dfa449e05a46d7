package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/app/service"
	inthttp "github.com/sifan077/PayLink/internal/http/handler"
	"github.com/sifan077/PayLink/internal/http/middleware"
	"github.com/sifan077/PayLink/internal/http/util"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server routes to.
type Dependencies struct {
	Logger *zap.Logger
	// Redis enables the per-IP API rate limiter when set.
	Redis     *redis.Client
	RateLimit middleware.RateLimitConfig

	BaseURL       string
	CountryHeader string
	Classifier    service.VisitClassifier
	Verifier      *middleware.TokenVerifier

	Users       service.UserService
	Links       service.LinkService
	Redirects   *service.RedirectService
	Reports     *service.ReportService
	Withdrawals *service.WithdrawalService
	Referrals   *service.ReferralService
	Rates       *service.RateTable
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with every route registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "PayLink",
		ErrorHandler: errorHandler(deps.Logger),
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(
		middleware.RequestID(),
		middleware.Recovery(s.deps.Logger),
		middleware.Logger(s.deps.Logger),
		middleware.Metrics(),
		middleware.CORS(""),
	)
}

func (s *Server) registerRoutes() {
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:        s.deps.Logger,
		Redirects:     s.deps.Redirects,
		Classifier:    s.deps.Classifier,
		CountryHeader: s.deps.CountryHeader,
	})
	redirectHandler.Register(s.app)

	api := s.app.Group("/api")
	if s.deps.Redis != nil {
		api.Use(middleware.RateLimit(s.deps.Redis, s.deps.RateLimit, s.deps.Logger))
	}

	auth := middleware.Authenticate(s.deps.Verifier, s.deps.Users, s.deps.Logger)

	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:      s.deps.Logger,
		BaseURL:     s.deps.BaseURL,
		Links:       s.deps.Links,
		Reports:     s.deps.Reports,
		Withdrawals: s.deps.Withdrawals,
		Referrals:   s.deps.Referrals,
	})
	apiHandler.Register(api, auth)

	adminHandler := inthttp.NewAdminHandler(inthttp.AdminDeps{
		Logger:      s.deps.Logger,
		Users:       s.deps.Users,
		Links:       s.deps.Links,
		Reports:     s.deps.Reports,
		Withdrawals: s.deps.Withdrawals,
		Rates:       s.deps.Rates,
	})
	adminHandler.Register(api.Group("/admin"), auth, middleware.RequireRole(model.RoleAdmin))
}

// errorHandler renders errors that escaped the handlers, such as unknown
// routes, in the API's error shape.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := "HTTP_ERROR"
			if fe.Code == fiber.StatusNotFound {
				code = "ROUTE_NOT_FOUND"
			}
			return util.Fail(c, fe.Code, code, fe.Message)
		}
		return util.WriteError(c, logger, err)
	}
}
