package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

const healthPingTimeout = 500 * time.Millisecond

// HealthDeps groups what the health endpoint reports on.
type HealthDeps struct {
	// DurableConfigured reports whether the remote route backend is wired.
	DurableConfigured bool
	// AnalyticsPool is the scan analytics DB pool, nil when analytics is off.
	AnalyticsPool *pgxpool.Pool
}

// HealthHandler answers liveness probes with component statuses.
type HealthHandler struct {
	deps HealthDeps
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Register wires the health route.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/healthz", h.Health)
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	routeBackend := "fallback-only"
	if h.deps.DurableConfigured {
		routeBackend = "configured"
	}

	analytics := "absent"
	if h.deps.AnalyticsPool != nil {
		ctx, cancel := context.WithTimeout(requestContext(c), healthPingTimeout)
		defer cancel()
		if err := h.deps.AnalyticsPool.Ping(ctx); err != nil {
			analytics = "down"
		} else {
			analytics = "up"
		}
	}

	return c.JSON(fiber.Map{
		"service":       "qroute",
		"status":        "ok",
		"route_backend": routeBackend,
		"analytics_db":  analytics,
		"time":          time.Now().UTC().Format(time.RFC3339),
	})
}
