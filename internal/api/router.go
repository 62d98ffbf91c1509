package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/i3m/tenant-guard/internal/api/docs"
	"github.com/i3m/tenant-guard/internal/api/handler"
	"github.com/i3m/tenant-guard/internal/api/middleware"
	"github.com/i3m/tenant-guard/internal/core/domain"
	"github.com/i3m/tenant-guard/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers and
// middleware.
type Dependencies struct {
	Logger      zerolog.Logger
	Verifier    ports.TokenVerifier
	Revocations ports.RevocationList
	Tenants     ports.TenantService
	Auth        ports.AuthService
	RateLimiter *middleware.TenantRateLimiter
	Health      *handler.HealthHandler
	// Registry receives the HTTP metrics and backs /metrics. Nil selects the
	// default Prometheus registry, where the service's own counters live.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(d.Registry)))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Auth)
	identityHandler := handler.NewIdentityHandler(d.Tenants)

	// --- Guard chain ---
	guard := middleware.AccessGuard(middleware.AccessGuardConfig{
		Verifier: d.Verifier,
		Logger:   d.Logger.With().Str("component", "access_guard").Logger(),
	})
	revocation := middleware.Revocation(d.Revocations, d.Logger)
	tenantScope := middleware.TenantScope(d.Tenants, d.Logger)

	// --- Operational routes (no auth required) ---
	e.GET("/health", d.Health.Liveness)            // liveness  – process and datastore
	e.GET("/health/ready", d.Health.Readiness)     // readiness – every dependency
	e.GET("/metrics", metricsHandler(d.Registry)) // prometheus scrape
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, guard, revocation)

	// --- Guarded API ---
	v1 := e.Group("/v1", guard, revocation)
	v1.GET("/me", identityHandler.Me)

	scoped := v1.Group("", tenantScope)
	if d.RateLimiter != nil {
		scoped.Use(d.RateLimiter.Middleware())
	}
	scoped.GET("/tenant", identityHandler.Tenant)
	scoped.POST("/users", userHandler.Create, middleware.RBAC(domain.RolePlatformAdmin))
	scoped.PUT("/tenants/:id", identityHandler.SaveTenant, middleware.RBAC(domain.RolePlatformAdmin))

	return e
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "tenant_guard",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger emits one zerolog line per request. Health probes are skipped.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Int64("latency_ms", v.Latency.Milliseconds()).
				Str("request_id", v.RequestID).
				Msg("request completed")
			return nil
		},
	})
}
