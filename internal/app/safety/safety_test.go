package safety

import (
	"errors"
	"testing"
)

func TestCheckDestination_Scheme(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		in     string
		wantOK bool
	}{
		{"https_ok", "https://example.com/a", true},
		{"http_ok", "http://example.com", true},
		{"empty", "", false},
		{"relative", "/just/a/path", false},
		{"ftp", "ftp://example.com", false},
		{"javascript", "javascript:alert(1)", false},
		{"no_host", "https://", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CheckDestination(tt.in)
			if tt.wantOK && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrInvalidURL) {
				t.Fatalf("expected ErrInvalidURL, got %v", err)
			}
		})
	}
}

func TestCheckDestination_PrivateHosts(t *testing.T) {
	p := DefaultPolicy()

	blocked := []string{
		"http://localhost/x",
		"http://dev.localhost",
		"http://printer.local",
		"http://127.0.0.1:8080",
		"http://10.0.0.5",
		"http://172.16.0.1",
		"http://172.31.255.255",
		"http://192.168.1.1",
		"http://169.254.10.10",
		"http://[::1]/",
		"http://[fd12:3456::1]",
		"http://[fe80::1]",
	}
	for _, in := range blocked {
		if err := p.CheckDestination(in); !errors.Is(err, ErrPrivateHostBlocked) {
			t.Errorf("%s: expected ErrPrivateHostBlocked, got %v", in, err)
		}
	}

	// Public addresses stay allowed.
	for _, in := range []string{"https://8.8.8.8", "https://172.32.0.1", "https://example.com"} {
		if err := p.CheckDestination(in); err != nil {
			t.Errorf("%s: expected ok, got %v", in, err)
		}
	}
}

func TestCheckDestination_PrivateHostsDisabled(t *testing.T) {
	p := Policy{BlockPrivateHosts: false}
	if err := p.CheckDestination("http://192.168.1.1"); err != nil {
		t.Fatalf("expected ok with blocking disabled, got %v", err)
	}
}

func TestCheckDestination_AllowList(t *testing.T) {
	p := Policy{
		BlockPrivateHosts: true,
		AllowedHosts:      []string{"Example.com", "cdn.net."},
	}

	allowed := []string{
		"https://example.com/page",
		"https://EXAMPLE.COM./page",
		"https://sub.example.com",
		"https://deep.sub.cdn.net",
	}
	for _, in := range allowed {
		if err := p.CheckDestination(in); err != nil {
			t.Errorf("%s: expected ok, got %v", in, err)
		}
	}

	denied := []string{
		"https://example.org",
		"https://notexample.com",
		"https://cdn.net.evil.io",
	}
	for _, in := range denied {
		if err := p.CheckDestination(in); !errors.Is(err, ErrHostNotAllowed) {
			t.Errorf("%s: expected ErrHostNotAllowed, got %v", in, err)
		}
	}
}

func TestNormalizeHost(t *testing.T) {
	if got := NormalizeHost("  Example.COM. "); got != "example.com" {
		t.Fatalf("unexpected normalized host %q", got)
	}
}
