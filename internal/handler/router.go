package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/bonos-bfa-go/internal/amortization"
	"github.com/boddenberg/bonos-bfa-go/internal/domain"
	"github.com/boddenberg/bonos-bfa-go/internal/infra/observability"
	"github.com/boddenberg/bonos-bfa-go/internal/port"
	"github.com/boddenberg/bonos-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the use cases the router exposes. Without Auth only the
// public calculator and operational routes are served.
type Services struct {
	Bonds       *service.BondService
	Calculator  *service.CalculatorService
	Investments *service.InvestmentService
	Payments    *service.PaymentService
	Profiles    *service.ProfileService
	Dashboard   *service.DashboardService
	Auth        *service.AuthService
	Health      port.HealthChecker
}

// Labels of the counters reported by GET /v1/metrics/engine.
var (
	engineMethods = []string{string(amortization.MethodBullet), string(amortization.MethodDecliningBalance)}
	engineCaches  = []string{"bond", "profile"}
	engineTables  = []string{"bonds", "investments", "payments", "profiles"}
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Health, logger))
	r.Get("/readyz", readyzHandler(svcs.Health))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Calculator (public)
		// =============================================
		if svcs.Calculator != nil {
			r.Post("/calculator/schedule", calculatorScheduleHandler(svcs.Calculator, logger))
			r.Post("/calculator/yield", calculatorYieldHandler(svcs.Calculator, logger))
			r.Post("/calculator/expected-return", expectedReturnHandler(svcs.Calculator, logger))
		}

		r.Get("/metrics/engine", engineMetricsHandler(metrics))

		if svcs.Auth == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "servicio no disponible: Supabase no configurado")
			}))
			return
		}

		// =============================================
		// Protected routes
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(svcs.Auth, logger))

			// Bonds
			r.Get("/bonds", listBondsHandler(svcs.Bonds, logger))
			r.Post("/bonds", createBondHandler(svcs.Bonds, logger))
			r.Get("/bonds/{bondId}", getBondHandler(svcs.Bonds, logger))
			r.Patch("/bonds/{bondId}", updateBondHandler(svcs.Bonds, logger))
			r.Delete("/bonds/{bondId}", deleteBondHandler(svcs.Bonds, logger))
			r.Get("/bonds/{bondId}/schedule", bondScheduleHandler(svcs.Bonds, logger))
			r.Get("/bonds/{bondId}/yield", bondYieldHandler(svcs.Bonds, logger))

			// Investments & payments
			r.Get("/investments", listInvestmentsHandler(svcs.Investments, logger))
			r.Post("/investments", createInvestmentHandler(svcs.Investments, logger))
			r.Get("/investments/{investmentId}", getInvestmentHandler(svcs.Investments, logger))
			r.Get("/payments", listPaymentsHandler(svcs.Payments, logger))

			// Profile & dashboard
			r.Get("/profile", getProfileHandler(svcs.Profiles, logger))
			r.Put("/profile", updateProfileHandler(svcs.Profiles, logger))
			r.Get("/dashboard/stats", dashboardStatsHandler(svcs.Dashboard, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(health port.HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bonos-bfa", Status: "healthy", LastChecked: now},
		}
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			start := time.Now()
			err := health.Ping(ctx)
			status := "healthy"
			if err != nil {
				logger.Warn("healthz: supabase ping failed", zap.Error(err))
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = s.Status
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(health port.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot(engineMethods, engineCaches, engineTables))
	}
}
