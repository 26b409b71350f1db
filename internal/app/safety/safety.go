// Package safety screens candidate redirect destinations. It is pure string
// and address inspection; no DNS lookups are performed.
package safety

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL signals a destination that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("destination is not a valid http(s) URL")
	// ErrPrivateHostBlocked signals a destination targeting a private or
	// loopback network.
	ErrPrivateHostBlocked = errors.New("destination host resolves to a private network")
	// ErrHostNotAllowed signals a destination outside the configured host
	// allow-list.
	ErrHostNotAllowed = errors.New("destination host is not on the allow-list")
)

// Policy controls how destinations are screened.
type Policy struct {
	// BlockPrivateHosts rejects localhost, RFC1918 ranges, link-local and
	// IPv6 loopback/ULA/link-local hosts.
	BlockPrivateHosts bool
	// AllowedHosts, when non-empty, restricts destinations to these hosts
	// and their subdomains. Empty means any public host.
	AllowedHosts []string
}

// DefaultPolicy blocks private hosts and allows any public host.
func DefaultPolicy() Policy {
	return Policy{BlockPrivateHosts: true}
}

// CheckDestination classifies raw as a safe redirect destination under the
// policy. It returns nil when the destination is acceptable, otherwise one of
// the sentinel errors above.
func (p Policy) CheckDestination(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	host := NormalizeHost(u.Hostname())
	if host == "" {
		return ErrInvalidURL
	}

	if p.BlockPrivateHosts && isPrivateHost(host) {
		return ErrPrivateHostBlocked
	}

	if len(p.AllowedHosts) > 0 && !p.hostAllowed(host) {
		return ErrHostNotAllowed
	}

	return nil
}

// NormalizeHost lowercases a hostname and strips a trailing dot so host
// comparisons behave the same for "Example.COM." and "example.com".
func NormalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}

func (p Policy) hostAllowed(host string) bool {
	for _, allowed := range p.AllowedHosts {
		a := NormalizeHost(allowed)
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func isPrivateHost(host string) bool {
	if host == "localhost" ||
		strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() ||
		isUniqueLocalV6(ip)
}

// isUniqueLocalV6 covers fc00::/7, which net.IP.IsPrivate already handles for
// fd00::/8 on some Go versions but we check the whole /7 explicitly.
func isUniqueLocalV6(ip net.IP) bool {
	v6 := ip.To16()
	if v6 == nil || ip.To4() != nil {
		return false
	}
	return v6[0]&0xfe == 0xfc
}
