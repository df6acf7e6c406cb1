package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/craftlink/session-agent/internal/api/handler"
	"github.com/craftlink/session-agent/internal/api/middleware"
	"github.com/craftlink/session-agent/internal/core/ports"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	sessions ports.SessionService,
	store ports.CredentialStore,
	realtime handler.RealtimeStatus,
	apiToken string,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("sessionagent"))

	// --- Session routes (guarded by the local API token) ---
	sessionHandler := handler.NewSessionHandler(sessions)
	s := e.Group("/session", middleware.LocalAuth(apiToken))
	s.GET("", sessionHandler.Current)
	s.POST("/login", sessionHandler.Login)
	s.POST("/logout", sessionHandler.Logout)
	s.POST("/refresh", sessionHandler.Refresh)
	s.GET("/events", sessionHandler.Events)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(store, realtime)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
