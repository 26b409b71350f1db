// Package store holds the process-lifetime in-memory route store. It is the
// permanent store when no durable backend is configured and the resilience
// fallback when the durable backend is unreachable.
package store

import (
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"qroute/internal/app/model"
)

// Fallback is a keyed collection of routes that lives for the whole process.
// Entries never expire; only a restart resets it.
type Fallback struct {
	cache    *gocache.Cache
	seedOnce sync.Once
}

// NewFallback returns an empty fallback store.
func NewFallback() *Fallback {
	return &Fallback{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Set stores route under its id, replacing any previous entry.
func (f *Fallback) Set(route model.QrRoute) {
	f.cache.Set(route.ID, route, gocache.NoExpiration)
}

// Get returns the route stored under id, if any.
func (f *Fallback) Get(id string) (model.QrRoute, bool) {
	v, ok := f.cache.Get(id)
	if !ok {
		return model.QrRoute{}, false
	}
	return v.(model.QrRoute), true
}

// ListRecent returns up to limit routes ordered by updatedAt descending.
func (f *Fallback) ListRecent(limit int) []model.QrRoute {
	items := f.cache.Items()
	routes := make([]model.QrRoute, 0, len(items))
	for _, item := range items {
		routes = append(routes, item.Object.(model.QrRoute))
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].UpdatedAt.After(routes[j].UpdatedAt)
	})
	if limit > 0 && len(routes) > limit {
		routes = routes[:limit]
	}
	return routes
}

// Len reports the number of stored routes.
func (f *Fallback) Len() int {
	return f.cache.ItemCount()
}
