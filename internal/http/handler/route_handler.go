package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"qroute/internal/app/model"
	"qroute/internal/app/service"
)

// RouteDeps groups dependencies required by the management API handlers.
type RouteDeps struct {
	Logger *zap.Logger
	Routes *service.RouteService
}

// RouteHandler implements the route management API over the store facade.
type RouteHandler struct {
	logger *zap.Logger
	routes *service.RouteService
}

// NewRouteHandler creates a route API handler with the provided dependencies.
func NewRouteHandler(deps RouteDeps) *RouteHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteHandler{
		logger: logger,
		routes: deps.Routes,
	}
}

// Register wires the API routes. readGates carry the read-side rate limit;
// writeGates add the tighter write quota plus the write-auth check in front
// of the upsert handler.
func (h *RouteHandler) Register(router fiber.Router, readGates, writeGates []fiber.Handler) {
	api := router.Group("/api/routes")
	api.Get("/", append(append([]fiber.Handler{}, readGates...), h.List)...)
	api.Get("/:id", append(append([]fiber.Handler{}, readGates...), h.Get)...)
	api.Put("/:id", append(append([]fiber.Handler{}, writeGates...), h.Upsert)...)
}

// List handles GET /api/routes.
func (h *RouteHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	res := h.routes.List(requestContext(c), limit)
	return c.JSON(res)
}

// Get handles GET /api/routes/:id.
func (h *RouteHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if !model.ValidID(id) {
		return invalidIdentifier(c)
	}

	res := h.routes.Get(requestContext(c), id)
	if res.Data == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "route not found",
			"source": res.Source,
		})
	}
	return c.JSON(res)
}

// Upsert handles PUT /api/routes/:id.
func (h *RouteHandler) Upsert(c *fiber.Ctx) error {
	id := c.Params("id")
	if !model.ValidID(id) {
		return invalidIdentifier(c)
	}

	var payload model.RoutePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	res, err := h.routes.Upsert(requestContext(c), id, payload)
	if err != nil {
		if model.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to upsert route", zap.Error(err), zap.String("id", id))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to upsert route",
		})
	}

	return c.JSON(res)
}

func invalidIdentifier(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": model.ErrInvalidIdentifier.Error(),
	})
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
