package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"qroute/internal/app/model"
	"qroute/internal/app/service"
)

// RedirectDeps groups dependencies required by the scan resolve handler.
type RedirectDeps struct {
	Logger        *zap.Logger
	Routes        *service.RouteService
	ScanPublisher *service.ScanPublisher
}

// RedirectHandler turns inbound scans into redirects or JSON decisions.
type RedirectHandler struct {
	logger        *zap.Logger
	routes        *service.RouteService
	scanPublisher *service.ScanPublisher
}

// NewRedirectHandler creates a scan handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:        logger,
		routes:        deps.Routes,
		scanPublisher: deps.ScanPublisher,
	}
}

// Register wires the scan route. readGates carry the read-side rate limit.
func (h *RedirectHandler) Register(router fiber.Router, readGates ...fiber.Handler) {
	resolve := append(append([]fiber.Handler{}, readGates...), h.Resolve)
	router.Get("/r/:id", resolve...)
}

// Resolve handles GET /r/:id. Enabled routes answer 302; disabled routes
// answer 307 so a fallback target that expects a non-GET retry keeps its
// method. Callers asking for JSON get the full decision instead.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	id := c.Params("id")
	if !model.ValidID(id) {
		return invalidIdentifier(c)
	}

	res := h.routes.Resolve(requestContext(c), id)

	if h.scanPublisher != nil {
		go h.publishScan(id, res, c.IP(), c.Get("User-Agent"))
	}

	if wantsJSON(c) {
		status := fiber.StatusOK
		if !res.Found {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(res)
	}

	h.logger.Debug("redirecting scan",
		zap.String("id", id),
		zap.Bool("found", res.Found),
		zap.Bool("enabled", res.Enabled),
		zap.String("source", string(res.Source)))

	if res.Enabled {
		return c.Redirect(res.Target, fiber.StatusFound)
	}
	return c.Redirect(res.Target, fiber.StatusTemporaryRedirect)
}

func (h *RedirectHandler) publishScan(id string, res service.ResolveResult, ip, userAgent string) {
	if err := h.scanPublisher.Publish(id, res, ip, userAgent); err != nil {
		h.logger.Error("failed to publish scan event", zap.Error(err), zap.String("id", id))
	}
}

func wantsJSON(c *fiber.Ctx) bool {
	if c.Query("format") == "json" {
		return true
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
