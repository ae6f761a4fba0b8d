package handlers

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"norelock.dev/listenify/grabber/internal/config"
	"norelock.dev/listenify/grabber/internal/services/system"
	"norelock.dev/listenify/grabber/internal/utils"
)

// HealthHandler handles HTTP requests related to system health.
type HealthHandler struct {
	logger    *utils.Logger
	healthSvc *system.HealthService
	config    *config.Config
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(
	logger *utils.Logger,
	healthSvc *system.HealthService,
	config *config.Config,
) *HealthHandler {
	return &HealthHandler{
		logger:    logger.Named("health_handler"),
		healthSvc: healthSvc,
		config:    config,
		startTime: time.Now(),
		version:   buildVersion(),
	}
}

// Check handles requests to check the health of the system.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	health := h.healthSvc.GetHealth(r.Context())

	response := map[string]any{
		"status":     health.Status,
		"version":    h.version,
		"uptime":     time.Since(h.startTime).String(),
		"components": health.Components,
		"goroutines": health.GoRoutines,
		"startTime":  health.StartTime,
	}

	utils.RespondWithJSON(w, statusFor(health.Status), response)
}

// DetailedCheck handles requests for detailed health information.
func (h *HealthHandler) DetailedCheck(w http.ResponseWriter, r *http.Request) {
	health := h.healthSvc.GetHealth(r.Context())

	detailedResponse := map[string]any{
		"health":    health,
		"uptime":    time.Since(h.startTime).String(),
		"startTime": h.startTime,
		"buildInfo": map[string]any{
			"version":   h.version,
			"goVersion": runtime.Version(),
		},
		"config": map[string]any{
			"environment":    h.config.Environment,
			"searchProvider": h.config.ResolvedSearchProvider(),
			"delivery":       h.config.Media.Delivery,
			"cacheDriver":    h.config.Cache.Driver,
		},
	}

	utils.RespondWithJSON(w, statusFor(health.Status), detailedResponse)
}

// statusFor keeps a degraded service in rotation; only a down one is unavailable.
func statusFor(status system.HealthStatus) int {
	if status == system.StatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
