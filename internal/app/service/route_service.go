package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"

	"qroute/internal/app/model"
	"qroute/internal/app/normalize"
	"qroute/internal/app/repository"
	"qroute/internal/app/safety"
	"qroute/internal/app/store"
	"qroute/internal/infra/metrics"
)

// Source tags every facade response with the backend that actually served it.
type Source string

const (
	SourceDurable  Source = "durable"
	SourceFallback Source = "fallback"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	// bloomWarmLimit bounds the startup scan that warms the negative-lookup
	// guard. If the table has at least this many rows the warm is considered
	// partial and the guard stays off.
	bloomWarmLimit     = 1000
	bloomFilterN       = 100_000
	bloomFalsePositive = 0.001
)

// Config wires a RouteService.
type Config struct {
	Logger *zap.Logger
	// Durable is nil when no durable backend is configured; the facade then
	// serves everything from Memory.
	Durable repository.RouteRepository
	Memory  *store.Fallback
	Policy  safety.Policy
	// DefaultRedirectURL must already be validated via DefaultRedirectURL.
	DefaultRedirectURL string
	// NegativeGuard enables the bloom filter that lets Resolve skip the
	// durable round-trip for ids that were never written.
	NegativeGuard bool
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// RouteService is the public surface over the normalizer, the durable
// backend adapter and the in-memory fallback store. It decides on every
// read and write which backend actually serves the request.
type RouteService struct {
	logger     *zap.Logger
	durable    repository.RouteRepository
	memory     *store.Fallback
	policy     safety.Policy
	defaultURL string
	now        func() time.Time

	warnedFallback atomic.Bool

	guardEnabled bool
	guardWarm    atomic.Bool
	guardMu      sync.Mutex
	guard        *bloom.BloomFilter
}

// ListResult carries a page of routes plus its source.
type ListResult struct {
	Data   []model.QrRoute `json:"data"`
	Source Source          `json:"source"`
}

// GetResult carries at most one route plus its source.
type GetResult struct {
	Data   *model.QrRoute `json:"data"`
	Source Source         `json:"source"`
}

// UpsertResult carries the persisted route plus the backend that holds the
// authoritative copy.
type UpsertResult struct {
	Data   model.QrRoute `json:"data"`
	Source Source        `json:"source"`
}

// ResolveResult is the full redirect decision for a scan.
type ResolveResult struct {
	Found   bool           `json:"found"`
	Enabled bool           `json:"enabled"`
	Target  string         `json:"target"`
	Source  Source         `json:"source"`
	Route   *model.QrRoute `json:"route"`
}

// NewRouteService builds the facade from its dependencies.
func NewRouteService(cfg Config) *RouteService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	memory := cfg.Memory
	if memory == nil {
		memory = store.NewFallback()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	s := &RouteService{
		logger:       logger,
		durable:      cfg.Durable,
		memory:       memory,
		policy:       cfg.Policy,
		defaultURL:   cfg.DefaultRedirectURL,
		now:          now,
		guardEnabled: cfg.NegativeGuard && cfg.Durable != nil,
	}
	if s.defaultURL == "" {
		s.defaultURL = hardcodedDefaultRedirect
	}
	if s.guardEnabled {
		s.guard = bloom.NewWithEstimates(bloomFilterN, bloomFalsePositive)
	}
	return s
}

// DefaultTarget exposes the validated global default redirect URL.
func (s *RouteService) DefaultTarget() string {
	return s.defaultURL
}

// List returns the most recently updated routes. The limit is clamped into
// [1, 200]; zero means the default page size. A durable failure degrades to
// the fallback store instead of surfacing the transport error.
func (s *RouteService) List(ctx context.Context, limit int) ListResult {
	limit = clampLimit(limit)

	if s.durable != nil {
		routes, err := s.durable.List(ctx, limit)
		if err == nil {
			for _, route := range routes {
				s.guardAdd(route.ID)
			}
			return ListResult{Data: routes, Source: SourceDurable}
		}
		s.noteBackendFailure(err)
		metrics.FallbackServeTotal.Inc()
	}

	return ListResult{Data: s.memory.ListRecent(limit), Source: SourceFallback}
}

// Get returns the route stored under id, or nil. With no durable backend the
// answer comes straight from memory; a durable failure degrades to memory,
// which may legitimately be stale or empty.
func (s *RouteService) Get(ctx context.Context, id string) GetResult {
	if s.durable == nil {
		return s.getFromMemory(id)
	}

	if s.guardSaysUnknown(id) {
		if _, ok := s.memory.Get(id); !ok {
			return GetResult{Data: nil, Source: SourceFallback}
		}
	}

	route, err := s.durable.GetByID(ctx, id)
	if err != nil {
		s.noteBackendFailure(err)
		metrics.FallbackServeTotal.Inc()
		return s.getFromMemory(id)
	}
	if route != nil {
		s.guardAdd(route.ID)
	}
	return GetResult{Data: route, Source: SourceDurable}
}

// Upsert validates and persists a route. The normalized record is written to
// memory first so it is immediately visible to same-process reads, then
// best-effort mirrored to the durable backend; when the backend answers, its
// returned row is authoritative and overwrites the memory entry. A
// validation failure leaves every store untouched.
func (s *RouteService) Upsert(ctx context.Context, id string, payload model.RoutePayload) (UpsertResult, error) {
	var existing *model.QrRoute
	if current, ok := s.memory.Get(id); ok {
		existing = &current
	}

	route, err := normalize.Route(id, payload, existing, s.policy, s.now())
	if err != nil {
		return UpsertResult{}, err
	}

	s.memory.Set(route)
	s.guardAdd(route.ID)
	metrics.UpsertTotal.WithLabelValues(string(SourceFallback)).Inc()

	if s.durable == nil {
		return UpsertResult{Data: route, Source: SourceFallback}, nil
	}

	persisted, err := s.durable.Upsert(ctx, route)
	if err != nil {
		s.noteBackendFailure(err)
		// The memory write above still stands.
		return UpsertResult{Data: route, Source: SourceFallback}, nil
	}

	s.memory.Set(persisted)
	metrics.UpsertTotal.WithLabelValues(string(SourceDurable)).Inc()
	return UpsertResult{Data: persisted, Source: SourceDurable}, nil
}

// Resolve turns a scan of id into a redirect decision.
func (s *RouteService) Resolve(ctx context.Context, id string) ResolveResult {
	got := s.Get(ctx, id)
	resolution := ResolveTarget(got.Data, s.defaultURL)

	metrics.ResolveTotal.WithLabelValues(resolutionOutcome(resolution)).Inc()

	return ResolveResult{
		Found:   resolution.Found,
		Enabled: resolution.Enabled,
		Target:  resolution.Target,
		Source:  got.Source,
		Route:   got.Data,
	}
}

// WarmNegativeGuard scans the durable backend once and feeds every known id
// into the bloom filter. The guard only activates when the scan saw the whole
// table; a partial view would turn false negatives into wrong not-founds.
func (s *RouteService) WarmNegativeGuard(ctx context.Context) {
	if !s.guardEnabled || s.durable == nil {
		return
	}
	routes, err := s.durable.List(ctx, bloomWarmLimit)
	if err != nil {
		s.logger.Warn("negative guard warm failed, guard stays off", zap.Error(err))
		return
	}
	if len(routes) >= bloomWarmLimit {
		s.logger.Info("route table too large for negative guard, guard stays off",
			zap.Int("routes", len(routes)))
		return
	}
	for _, route := range routes {
		s.guardAdd(route.ID)
	}
	s.guardWarm.Store(true)
	s.logger.Info("negative guard warmed", zap.Int("routes", len(routes)))
}

func (s *RouteService) getFromMemory(id string) GetResult {
	if route, ok := s.memory.Get(id); ok {
		return GetResult{Data: &route, Source: SourceFallback}
	}
	return GetResult{Data: nil, Source: SourceFallback}
}

// noteBackendFailure records a durable backend failure. The degradation
// warning is emitted exactly once per process, however many calls fail.
func (s *RouteService) noteBackendFailure(err error) {
	if s.warnedFallback.CompareAndSwap(false, true) {
		s.logger.Warn("durable backend unavailable, serving from in-memory fallback",
			zap.Error(err))
	}
}

func (s *RouteService) guardAdd(id string) {
	if !s.guardEnabled {
		return
	}
	s.guardMu.Lock()
	s.guard.AddString(id)
	s.guardMu.Unlock()
}

// guardSaysUnknown reports that id was definitely never fed to the guard.
// Only meaningful once the guard is warmed from a full table scan.
func (s *RouteService) guardSaysUnknown(id string) bool {
	if !s.guardEnabled || !s.guardWarm.Load() {
		return false
	}
	s.guardMu.Lock()
	known := s.guard.TestString(id)
	s.guardMu.Unlock()
	return !known
}

func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return defaultListLimit
	case limit < 1:
		return 1
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

func resolutionOutcome(r Resolution) string {
	switch {
	case !r.Found:
		return "not_found"
	case !r.Enabled:
		return "disabled"
	default:
		return "enabled"
	}
}
