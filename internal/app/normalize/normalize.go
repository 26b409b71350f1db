// Package normalize converts untrusted route payloads into canonical,
// safety-validated QrRoute records. Every write path (API upsert, seed
// loading, backend rehydration) goes through Route; field defaulting lives
// here and nowhere else.
package normalize

import (
	"net/url"
	"strings"
	"time"

	"qroute/internal/app/model"
	"qroute/internal/app/safety"
)

// Route builds the canonical record for id from payload, layered over an
// optional existing record. It has no side effects; on any validation
// failure it returns a *model.ValidationError and the caller must leave all
// stores untouched.
func Route(id string, payload model.RoutePayload, existing *model.QrRoute, policy safety.Policy, now time.Time) (model.QrRoute, error) {
	var zero model.QrRoute

	dest := resolveDestination(payload.Destination, existing)
	if dest == "" {
		return zero, model.NewValidationError("destination", "an absolute http(s) URL is required")
	}
	if err := policy.CheckDestination(dest); err != nil {
		return zero, model.NewValidationError("destination", err.Error())
	}

	fallback := resolveFallback(payload.FallbackURL, existing)
	if fallback != "" {
		if !isAbsoluteHTTP(fallback) {
			return zero, model.NewValidationError("fallbackUrl", "must be an absolute http(s) URL")
		}
		if err := policy.CheckDestination(fallback); err != nil {
			return zero, model.NewValidationError("fallbackUrl", err.Error())
		}
	}

	route := model.QrRoute{
		ID:          id,
		Destination: dest,
		FallbackURL: fallback,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	name := ""
	if payload.Name != nil {
		name = strings.TrimSpace(*payload.Name)
	}
	if name == "" && existing != nil {
		name = existing.Name
	}
	if name == "" {
		name = "QR " + id
	}
	if r := []rune(name); len(r) > model.MaxNameLen {
		name = string(r[:model.MaxNameLen])
	}
	route.Name = name

	switch {
	case payload.Enabled != nil:
		route.Enabled = *payload.Enabled
	case existing != nil:
		route.Enabled = existing.Enabled
	}

	rt := ""
	if payload.RedirectType != nil {
		rt = *payload.RedirectType
	} else if existing != nil {
		rt = existing.RedirectType
	}
	route.RedirectType = model.CoerceRedirectType(rt)

	switch {
	case payload.OpenInNewTab != nil:
		route.OpenInNewTab = *payload.OpenInNewTab
	case existing != nil:
		route.OpenInNewTab = existing.OpenInNewTab
	}

	if existing != nil && !existing.CreatedAt.IsZero() {
		route.CreatedAt = existing.CreatedAt
	}

	return route, nil
}

func resolveDestination(patch *string, existing *model.QrRoute) string {
	if patch != nil {
		if d := strings.TrimSpace(*patch); isAbsoluteHTTP(d) {
			return d
		}
	}
	if existing != nil && isAbsoluteHTTP(existing.Destination) {
		return existing.Destination
	}
	return ""
}

func resolveFallback(patch *string, existing *model.QrRoute) string {
	if patch != nil {
		return strings.TrimSpace(*patch)
	}
	if existing != nil {
		return existing.FallbackURL
	}
	return ""
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != ""
}
