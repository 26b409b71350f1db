// Package metrics holds the Prometheus instruments the route store reports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolveTotal counts scan resolutions by outcome
	// (enabled / disabled / not_found).
	ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qroute_resolve_total",
		Help: "Scan resolutions by outcome.",
	}, []string{"outcome"})

	// FallbackServeTotal counts requests served from the in-memory store
	// because the durable backend call failed.
	FallbackServeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qroute_fallback_serve_total",
		Help: "Requests degraded to the in-memory fallback store.",
	})

	// UpsertTotal counts route upserts by the store that accepted them.
	UpsertTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qroute_upsert_total",
		Help: "Route upserts by serving store.",
	}, []string{"source"})
)
