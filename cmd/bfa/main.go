package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
	"github.com/boddenberg/bonos-bfa-go/internal/config"
	"github.com/boddenberg/bonos-bfa-go/internal/display"
	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/handler"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/cache"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/bonos-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("supabase", cfg.SupabaseConfigured()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("default_schedule_method", cfg.DefaultScheduleMethod),
		zap.String("display_locale", cfg.DisplayLocale),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), cfg.TracingEnabled, cfg.OTLPEndpoint, "bonos-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Engine defaults ---
	method := amortization.Method(cfg.DefaultScheduleMethod)
	if !method.Valid() {
		logger.Warn("unknown DEFAULT_SCHEDULE_METHOD, using bullet", zap.String("method", cfg.DefaultScheduleMethod))
		method = amortization.MethodBullet
	}
	formatter := display.New(cfg.DisplayLocale, cfg.DisplayCurrency)

	svcs := handler.Services{
		Calculator: service.NewCalculatorService(formatter, method, metrics, logger),
	}

	if cfg.SupabaseConfigured() {
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))

		// --- Caches ---
		bondCache := cache.New[*domain.BondWithIssuer](cfg.CacheTTL)
		defer bondCache.Close()
		profileCache := cache.New[*domain.Profile](cfg.CacheTTL)
		defer profileCache.Close()

		// --- Resilience ---
		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		cb := resilience.NewCircuitBreaker("supabase", logger, supabase.IsClientError)

		// --- Store ---
		store := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			metrics,
			logger,
		)

		// --- Services ---
		profiles := service.NewProfileService(store, profileCache, metrics, logger)
		svcs.Bonds = service.NewBondService(store, bondCache, formatter, method, metrics, logger)
		svcs.Investments = service.NewInvestmentService(store, store, store, method, metrics, logger)
		svcs.Payments = service.NewPaymentService(store, logger)
		svcs.Dashboard = service.NewDashboardService(store, logger)
		svcs.Profiles = profiles
		svcs.Health = store

		if cfg.SupabaseJWTSecret != "" {
			svcs.Auth = service.NewAuthService(cfg.SupabaseJWTSecret, profiles, logger)
			logger.Info("auth enabled")
		} else {
			logger.Warn("auth: SUPABASE_JWT_SECRET not set, protected routes unavailable")
		}
	} else {
		logger.Warn("Supabase not configured, only calculator routes available")
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
