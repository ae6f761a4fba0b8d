// Package api provides the HTTP API for the application.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"norelock.dev/listenify/grabber/internal/api/handlers"
	appMiddleware "norelock.dev/listenify/grabber/internal/api/middleware"
	"norelock.dev/listenify/grabber/internal/config"
	"norelock.dev/listenify/grabber/internal/services/selection"
	"norelock.dev/listenify/grabber/internal/services/system"
	"norelock.dev/listenify/grabber/internal/utils"
)

// Router is the main HTTP router for the API.
type Router struct {
	*chi.Mux
	logger *utils.Logger
}

// NewRouter creates a new API router.
func NewRouter(
	mediaHandler *handlers.MediaHandler,
	healthService *system.HealthService,
	metrics *system.MetricsService,
	cfg *config.Config,
	logger *utils.Logger,
) *Router {
	r := chi.NewRouter()
	apiLogger := logger.Named("api")

	// Create middleware
	recoveryMiddleware := appMiddleware.NewRecoveryMiddleware(apiLogger)
	loggerMiddleware := appMiddleware.NewLoggerMiddleware(apiLogger, metrics)
	corsMiddleware := appMiddleware.NewCORSMiddleware(appMiddleware.CORSConfigFor(cfg.Server.AllowedOrigins), apiLogger)

	// Create handlers
	healthHandler := handlers.NewHealthHandler(apiLogger, healthService, cfg)

	// Apply global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoveryMiddleware.Recovery)
	r.Use(loggerMiddleware.Logger)
	r.Use(corsMiddleware.CORS)
	r.Use(middleware.Heartbeat("/ping"))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// Media routes
	r.Get("/api", WithQuery(Infallible(selection.ParamsFromQuery), mediaHandler.Select))
	r.Get("/download", WithQuery(handlers.ParseDirectLinkQuery, mediaHandler.Download))

	// Operational routes
	r.Get("/health", healthHandler.Check)
	r.Get("/health/details", healthHandler.DetailedCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return &Router{
		Mux:    r,
		logger: apiLogger,
	}
}
