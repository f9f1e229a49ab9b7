package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/folioapp/portfolio-api/internal/api/handler"
	"github.com/folioapp/portfolio-api/internal/api/middleware"
	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/core/ports"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Accounts   ports.AccountService
	Sessions   ports.Authenticator
	Portfolios ports.PortfolioService
	Admin      ports.AdminService
	Checks     []handler.DependencyCheck

	FrontendURL string
	// AuthRateLimit is requests per second per client IP on /auth; 0 disables it.
	AuthRateLimit float64

	// Registry receives the HTTP metrics; nil means the default registry.
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{d.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portfolio",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Accounts)
	userHandler := handler.NewUserHandler(d.Accounts)
	portfolioHandler := handler.NewPortfolioHandler(d.Portfolios)
	adminHandler := handler.NewAdminHandler(d.Admin)
	authMiddleware := middleware.Auth(d.Sessions)

	// --- Auth routes ---
	var authLimits []echo.MiddlewareFunc
	if d.AuthRateLimit > 0 {
		authLimits = append(authLimits, echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
			Store: echomiddleware.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit)),
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			},
		}))
	}
	auth := e.Group("/auth", authLimits...)
	auth.POST("/register", authHandler.Register)
	auth.GET("/verify-email", authHandler.VerifyEmail)
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/change-password", authHandler.ChangePassword, authMiddleware)

	// --- User routes ---
	users := e.Group("/users")
	users.GET("/me", userHandler.Me, authMiddleware)
	users.PUT("/me", userHandler.UpdateMe, authMiddleware)
	users.POST("/request-delete", userHandler.RequestDelete, authMiddleware)
	users.GET("/confirm-delete", userHandler.ConfirmDelete)

	// --- Portfolio routes ---
	portfolios := e.Group("/portfolios")
	portfolios.GET("/all_portfolios", portfolioHandler.ListAll)
	portfolios.GET("/user/:user_id", portfolioHandler.ListByUser)
	portfolios.GET("/my_portfolios", portfolioHandler.ListMine, authMiddleware)
	portfolios.POST("", portfolioHandler.Create, authMiddleware)
	portfolios.GET("/:id", portfolioHandler.Get)
	portfolios.PUT("/:id", portfolioHandler.Update, authMiddleware)
	portfolios.DELETE("/:id", portfolioHandler.Delete, authMiddleware)

	// --- Admin routes ---
	admin := e.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:id", adminHandler.UpdateUser)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/users/:id/portfolios", adminHandler.ListUserPortfolios)
	admin.PUT("/portfolios/:id", adminHandler.UpdatePortfolio)
	admin.DELETE("/portfolios/:id", adminHandler.DeletePortfolio)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
