package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	promclient "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sifan077/PayLink/config"
	"github.com/sifan077/PayLink/internal/app/repository"
	"github.com/sifan077/PayLink/internal/app/repository/memory"
	appserver "github.com/sifan077/PayLink/internal/app/server"
	"github.com/sifan077/PayLink/internal/app/service"
	"github.com/sifan077/PayLink/internal/http/middleware"
	"github.com/sifan077/PayLink/internal/infra/logger"
	infraNATS "github.com/sifan077/PayLink/internal/infra/nats"
	infraPostgres "github.com/sifan077/PayLink/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/PayLink/internal/infra/prometheus"
	infraRedis "github.com/sifan077/PayLink/internal/infra/redis"
	"go.uber.org/zap"
)

// stores gathers the repositories of the selected storage driver.
type stores struct {
	tx          repository.Transactor
	links       repository.LinkRepository
	users       repository.UserRepository
	analytics   repository.AnalyticsRepository
	rates       repository.CpmRateRepository
	withdrawals repository.WithdrawalRepository
	referrals   repository.ReferralRepository
	reports     repository.ReportRepository
	close       func()
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log := logger.MustInit(logger.Config{Development: os.Getenv("APP_ENV") != "production"})
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.MustInit(logger.Config{
		Development: !cfg.IsProduction(),
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		File: logger.FileConfig{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		},
	})
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("attribution_mode", cfg.Redirect.AttributionMode),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
	)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.close()

	var redisClient *goredis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis successfully")
	} else {
		log.Warn("Redis not configured; rate limiting and click dedup disabled")
	}

	minimum, err := decimal.NewFromString(cfg.Withdrawal.MinimumAmount)
	if err != nil {
		log.Fatal("Invalid withdrawal.minimum_amount", zap.Error(err))
	}

	rates := service.NewRateTable(st.rates, log)
	if err := rates.Refresh(ctx); err != nil {
		log.Fatal("Failed to load CPM rates", zap.Error(err))
	}
	refresher := service.NewRateRefresher(log, rates, cfg.RateTable.RefreshInterval)
	refresher.Start()
	defer refresher.Stop()

	codes, err := service.NewShortCodeGenerator(0)
	if err != nil {
		log.Fatal("Failed to build short code generator", zap.Error(err))
	}
	existing, err := st.links.ShortCodes(ctx)
	if err != nil {
		log.Fatal("Failed to load issued short codes", zap.Error(err))
	}
	codes.Seed(existing)

	ledger := service.NewBalanceLedger(st.links, st.users)

	attributorDeps := service.AttributorDeps{
		Logger:      log,
		Tx:          st.tx,
		Analytics:   st.analytics,
		Ledger:      ledger,
		Rates:       rates,
		DedupWindow: cfg.Fraud.DedupWindow,
	}
	if redisClient != nil && cfg.Fraud.DedupWindow > 0 {
		attributorDeps.Guard = infraRedis.NewClickGuard(redisClient)
	}
	attributor := service.NewAttributor(attributorDeps)

	redirectDeps := service.RedirectDeps{
		Logger:     log,
		Links:      st.links,
		Attributor: attributor,
	}

	var js nats.JetStreamContext
	if cfg.Redirect.AttributionMode == config.AttributionAsync {
		var natsConn *nats.Conn
		natsConn, js, err = infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()
		log.Info("Connected to NATS successfully")

		redirectDeps.Publisher = service.NewNATSVisitPublisher(js)
	}
	redirects := service.NewRedirectService(redirectDeps)

	if js != nil {
		consumer := service.NewVisitConsumer(js, log, redirects)
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start visit consumer", zap.Error(err))
		}
		defer consumer.Stop()
	}

	users := service.NewUserService(service.UserDeps{
		Logger:      log,
		Tx:          st.tx,
		Users:       st.users,
		Referrals:   st.referrals,
		AdminEmails: cfg.Auth.AdminEmails,
	})

	if cfg.Prometheus.Port > 0 {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, promclient.DefaultGatherer)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	server := appserver.New(appserver.Dependencies{
		Logger: log,
		Redis:  redisClient,
		RateLimit: middleware.RateLimitConfig{
			MaxRequests: cfg.RateLimit.MaxRequests,
			Window:      cfg.RateLimit.Window,
		},
		BaseURL:       cfg.App.BaseURL,
		CountryHeader: cfg.Earnings.CountryHeader,
		Classifier:    service.NewVisitClassifier(cfg.Earnings.DefaultCountry, cfg.Earnings.MobileMarker),
		Verifier:      middleware.NewTokenVerifier([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer),
		Users:         users,
		Links:         service.NewLinkService(st.links, st.users, st.analytics, codes),
		Redirects:     redirects,
		Reports:       service.NewReportService(st.reports),
		Withdrawals: service.NewWithdrawalService(service.WithdrawalDeps{
			Logger:      log,
			Tx:          st.tx,
			Users:       st.users,
			Withdrawals: st.withdrawals,
			Ledger:      ledger,
			Minimum:     minimum,
		}),
		Referrals: service.NewReferralService(st.users, st.referrals),
		Rates:     rates,
	})

	go func() {
		log.Info("Starting HTTP server", zap.String("listen", cfg.App.Listen))
		if err := server.Listen(cfg.App.Listen); err != nil {
			log.Fatal("Fiber server exited", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("Using in-memory storage; data is lost on restart")
		store := memory.New()
		return &stores{
			tx:          store.Transactor(),
			links:       store.Links(),
			users:       store.Users(),
			analytics:   store.Analytics(),
			rates:       store.Rates(),
			withdrawals: store.Withdrawals(),
			referrals:   store.Referrals(),
			reports:     store.Reports(),
			close:       func() {},
		}, nil
	}

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	if err := infraPostgres.AutoMigrate(ctx, gormDB, infraPostgres.Models()...); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info("Connected to Postgres successfully")

	return &stores{
		tx:          repository.NewTransactor(gormDB),
		links:       repository.NewLinkRepository(gormDB),
		users:       repository.NewUserRepository(gormDB),
		analytics:   repository.NewAnalyticsRepository(gormDB),
		rates:       repository.NewCpmRateRepository(gormDB),
		withdrawals: repository.NewWithdrawalRepository(gormDB),
		referrals:   repository.NewReferralRepository(gormDB),
		reports:     repository.NewReportRepository(pool),
		close: func() {
			pool.Close()
			_ = sqlDB.Close()
		},
	}, nil
}
