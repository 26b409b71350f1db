package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"qroute/internal/app/service"
	inthttp "qroute/internal/http/handler"
	"qroute/internal/http/middleware"
)

// Dependencies bundles everything the HTTP server needs. Redis being nil
// disables rate limiting; ScanPublisher being nil disables scan capture.
type Dependencies struct {
	Logger        *zap.Logger
	Routes        *service.RouteService
	ScanPublisher *service.ScanPublisher
	Redis         *redis.Client
	AnalyticsPool *pgxpool.Pool

	DurableConfigured bool
	WriteAuth         middleware.WriteAuthConfig
	ReadLimit         middleware.RateLimitConfig
	WriteLimit        middleware.RateLimitConfig
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates the HTTP server with all routes and gates registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		app:  fiber.New(),
		deps: deps,
	}
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	log := s.deps.Logger

	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(log))
	s.app.Use(middleware.Recovery(log))
	s.app.Use(middleware.CORS())

	var readGates, writeGates []fiber.Handler
	if s.deps.Redis != nil {
		readGates = append(readGates, middleware.RateLimit(s.deps.Redis, s.deps.ReadLimit, log))
		writeGates = append(writeGates, middleware.RateLimit(s.deps.Redis, s.deps.WriteLimit, log))
	}
	writeGates = append(writeGates, middleware.WriteAuth(s.deps.WriteAuth, log))

	inthttp.NewHealthHandler(inthttp.HealthDeps{
		DurableConfigured: s.deps.DurableConfigured,
		AnalyticsPool:     s.deps.AnalyticsPool,
	}).Register(s.app)

	inthttp.NewRouteHandler(inthttp.RouteDeps{
		Logger: log,
		Routes: s.deps.Routes,
	}).Register(s.app, readGates, writeGates)

	inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:        log,
		Routes:        s.deps.Routes,
		ScanPublisher: s.deps.ScanPublisher,
	}).Register(s.app, readGates...)
}
