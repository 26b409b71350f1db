package model

import (
	"regexp"
	"strings"
	"time"
)

// Redirect types stored on a route. The core treats these as metadata; the
// rendering side decides what "smart" and "conditional" mean.
const (
	RedirectTypeSingle      = "single"
	RedirectTypeSmart       = "smart"
	RedirectTypeConditional = "conditional"
)

// MaxNameLen caps the human-readable label on a route.
const MaxNameLen = 120

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,120}$`)

// QrRoute is the durable QR entity: a short identifier mapped to a mutable
// redirect destination.
type QrRoute struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Destination  string    `json:"destination"`
	Enabled      bool      `json:"enabled"`
	RedirectType string    `json:"redirectType"`
	FallbackURL  string    `json:"fallbackUrl"`
	OpenInNewTab bool      `json:"openInNewTab"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RoutePayload is the untrusted patch shape received from callers. Pointer
// fields distinguish "absent" from a deliberate zero value.
type RoutePayload struct {
	Name         *string `json:"name,omitempty"`
	Destination  *string `json:"destination,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
	RedirectType *string `json:"redirectType,omitempty"`
	FallbackURL  *string `json:"fallbackUrl,omitempty"`
	OpenInNewTab *bool   `json:"openInNewTab,omitempty"`
}

// ValidID reports whether id matches the route identifier syntax.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// CoerceRedirectType maps arbitrary input onto one of the known redirect
// types. Anything unrecognized becomes RedirectTypeSingle.
func CoerceRedirectType(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case RedirectTypeSmart:
		return RedirectTypeSmart
	case RedirectTypeConditional:
		return RedirectTypeConditional
	default:
		return RedirectTypeSingle
	}
}
