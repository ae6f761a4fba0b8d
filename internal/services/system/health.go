package system

import (
	"cmp"
	"context"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"norelock.dev/listenify/grabber/internal/utils"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	// StatusUp indicates the component is healthy.
	StatusUp HealthStatus = "up"
	// StatusDown indicates the component is unhealthy.
	StatusDown HealthStatus = "down"
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded HealthStatus = "degraded"
)

// Checker probes one dependency.
type Checker struct {
	// Name labels the component in the health report.
	Name string
	// Check returns nil when the component is usable.
	Check func(ctx context.Context) error
	// Critical components mark the system down when they fail; others degrade it.
	Critical bool
}

// ComponentHealth represents the health of a system component.
type ComponentHealth struct {
	Name        string       `json:"name"`
	Status      HealthStatus `json:"status"`
	Description string       `json:"description,omitempty"`
	Latency     int64        `json:"latency_ms"`
	LastChecked time.Time    `json:"last_checked"`
}

// SystemHealth represents the overall health of the system.
type SystemHealth struct {
	Status      HealthStatus      `json:"status"`
	Components  []ComponentHealth `json:"components"`
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Uptime      int64             `json:"uptime_seconds"`
	StartTime   time.Time         `json:"start_time"`
	GoVersion   string            `json:"go_version"`
	GoRoutines  int               `json:"go_routines"`
	MemStats    MemoryStats       `json:"memory_stats"`
}

// MemoryStats represents memory usage statistics.
type MemoryStats struct {
	Alloc     uint64 `json:"alloc_bytes"`
	Sys       uint64 `json:"sys_bytes"`
	NumGC     uint32 `json:"num_gc"`
	HeapAlloc uint64 `json:"heap_alloc_bytes"`
}

// HealthService provides health checking functionality.
type HealthService struct {
	checkers       []Checker
	logger         *utils.Logger
	startTime      time.Time
	version        string
	environment    string
	componentCache map[string]ComponentHealth
	cacheMutex     sync.RWMutex
	checkInterval  time.Duration
	checkTimeout   time.Duration
}

// HealthServiceConfig contains configuration for the health service.
type HealthServiceConfig struct {
	Version       string
	Environment   string
	CheckInterval time.Duration
	CheckTimeout  time.Duration
}

// NewHealthService creates a new health service.
func NewHealthService(logger *utils.Logger, config HealthServiceConfig, checkers ...Checker) *HealthService {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 30 * time.Second
	}
	if config.CheckTimeout <= 0 {
		config.CheckTimeout = 5 * time.Second
	}
	return &HealthService{
		checkers:       checkers,
		logger:         logger.Named("health_service"),
		startTime:      time.Now(),
		version:        config.Version,
		environment:    config.Environment,
		componentCache: make(map[string]ComponentHealth),
		checkInterval:  config.CheckInterval,
		checkTimeout:   config.CheckTimeout,
	}
}

// Start runs an initial check and then re-checks periodically until ctx ends.
func (s *HealthService) Start(ctx context.Context) {
	s.logger.Info("Starting health service", "components", len(s.checkers))

	s.CheckHealth(ctx)

	go func() {
		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Stopping health service")
				return
			case <-ticker.C:
				s.CheckHealth(ctx)
			}
		}
	}()
}

// CheckHealth probes every registered component concurrently and waits for all of them.
func (s *HealthService) CheckHealth(ctx context.Context) {
	s.logger.Debug("Performing health check")

	var g errgroup.Group
	for _, checker := range s.checkers {
		g.Go(func() error {
			s.runCheck(ctx, checker)
			return nil
		})
	}
	_ = g.Wait()
}

// GetHealth returns the last observed status of the system.
func (s *HealthService) GetHealth(_ context.Context) SystemHealth {
	s.cacheMutex.RLock()
	components := lo.Values(s.componentCache)
	s.cacheMutex.RUnlock()

	slices.SortFunc(components, func(a, b ComponentHealth) int { return cmp.Compare(a.Name, b.Name) })

	status := StatusUp
	switch {
	case lo.ContainsBy(components, func(c ComponentHealth) bool { return c.Status == StatusDown }):
		status = StatusDown
	case lo.ContainsBy(components, func(c ComponentHealth) bool { return c.Status == StatusDegraded }):
		status = StatusDegraded
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemHealth{
		Status:      status,
		Components:  components,
		Version:     s.version,
		Environment: s.environment,
		Uptime:      int64(time.Since(s.startTime).Seconds()),
		StartTime:   s.startTime,
		GoVersion:   runtime.Version(),
		GoRoutines:  runtime.NumGoroutine(),
		MemStats: MemoryStats{
			Alloc:     memStats.Alloc,
			Sys:       memStats.Sys,
			NumGC:     memStats.NumGC,
			HeapAlloc: memStats.HeapAlloc,
		},
	}
}

// runCheck probes one component and records the outcome.
func (s *HealthService) runCheck(ctx context.Context, checker Checker) {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	err := checker.Check(checkCtx)
	latency := time.Since(start).Milliseconds()

	status := StatusUp
	description := checker.Name + " is healthy"

	if err != nil {
		status = StatusDegraded
		if checker.Critical {
			status = StatusDown
		}
		description = checker.Name + " check failed: " + err.Error()
		s.logger.Error("Health check failed", err, "component", checker.Name)
	}

	s.updateComponentHealth(checker.Name, status, description, latency)
}

// updateComponentHealth updates the health status of a component in the cache.
func (s *HealthService) updateComponentHealth(name string, status HealthStatus, description string, latency int64) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.componentCache[name] = ComponentHealth{
		Name:        name,
		Status:      status,
		Description: description,
		Latency:     latency,
		LastChecked: time.Now(),
	}
}
