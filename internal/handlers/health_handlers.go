package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"bms/internal/caching"
	"bms/internal/services"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JobStatusProvider is satisfied by the background job scheduler.
type JobStatusProvider interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db       Pinger
	cache    caching.CacheService
	archive  services.ArchiveService
	jobs     JobStatusProvider
	version  string
	started  time.Time
	checkTTL time.Duration
}

// NewHealthHandlers creates a new health handlers instance. archive and jobs
// may be nil when those components are disabled.
func NewHealthHandlers(db Pinger, cache caching.CacheService, archive services.ArchiveService, jobs JobStatusProvider, version string) *HealthHandlers {
	if cache == nil {
		cache = caching.NopCache{}
	}
	return &HealthHandlers{
		db:       db,
		cache:    cache,
		archive:  archive,
		jobs:     jobs,
		version:  version,
		started:  time.Now(),
		checkTTL: 2 * time.Second,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

func (h *HealthHandlers) checks() []check {
	checks := []check{
		{name: "database", fn: h.db.Ping},
		{name: "redis", fn: h.cache.Ping},
	}
	if h.archive != nil {
		checks = append(checks, check{name: "storage", fn: h.archive.EnsureBucketExists})
	}
	return checks
}

func (h *HealthHandlers) run(ctx context.Context, c check) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, h.checkTTL)
	defer cancel()
	start := time.Now()
	err := c.fn(ctx)
	return time.Since(start), err
}

// HealthCheck reports healthy or degraded per dependency.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	for _, chk := range h.checks() {
		if _, err := h.run(ctx, chk); err != nil {
			health.Services[chk.name] = "unhealthy"
			health.Status = "degraded"
		} else {
			health.Services[chk.name] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}

	return c.JSON(statusCode, health)
}

// DetailedHealthCheck provides detailed health information
func (h *HealthHandlers) DetailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()

	checks := make(map[string]interface{})
	detailedHealth := map[string]interface{}{
		"overall_status": "healthy",
		"checks":         checks,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"version":        h.version,
		"goroutines":     runtime.NumGoroutine(),
	}

	for _, chk := range h.checks() {
		latency, err := h.run(ctx, chk)
		result := map[string]interface{}{
			"status":     "healthy",
			"message":    "",
			"latency_ms": latency.Milliseconds(),
		}
		if err != nil {
			result["status"] = "unhealthy"
			result["message"] = err.Error()
			detailedHealth["overall_status"] = "degraded"
		}
		checks[chk.name] = result
	}

	if h.jobs != nil {
		detailedHealth["jobs"] = h.jobs.GetJobStatus()
	}

	statusCode := http.StatusOK
	if detailedHealth["overall_status"] == "degraded" {
		statusCode = http.StatusPartialContent
	}

	return c.JSON(statusCode, detailedHealth)
}
