package service

import (
	"qroute/internal/app/model"
	"qroute/internal/app/safety"
)

// hardcodedDefaultRedirect is the last-resort scan target when no valid
// default is configured.
const hardcodedDefaultRedirect = "https://qroute.dev"

// Resolution is the redirect decision for one scan.
type Resolution struct {
	Found   bool
	Enabled bool
	Target  string
}

// ResolveTarget turns a fetched route into a redirect decision. Pure: no I/O,
// deterministic for its inputs.
//
// Missing route: target is the global default. Disabled route: target is the
// route's fallback URL, or the global default when none is set. Enabled
// route: target is the destination.
func ResolveTarget(route *model.QrRoute, defaultURL string) Resolution {
	if route == nil {
		return Resolution{Target: defaultURL}
	}
	if !route.Enabled {
		target := route.FallbackURL
		if target == "" {
			target = defaultURL
		}
		return Resolution{Found: true, Target: target}
	}
	return Resolution{Found: true, Enabled: true, Target: route.Destination}
}

// DefaultRedirectURL validates a configured override the same way any
// destination is validated and falls back to the hardcoded literal when the
// override is absent or unsafe.
func DefaultRedirectURL(override string, policy safety.Policy) string {
	if override == "" {
		return hardcodedDefaultRedirect
	}
	if err := policy.CheckDestination(override); err != nil {
		return hardcodedDefaultRedirect
	}
	return override
}
