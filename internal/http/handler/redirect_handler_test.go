package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"qroute/internal/app/model"
	"qroute/internal/app/safety"
	"qroute/internal/app/service"
)

const testDefault = "https://default.example.com"

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func newScanApp(t *testing.T) *fiber.App {
	t.Helper()

	routes := service.NewRouteService(service.Config{
		Policy:             safety.DefaultPolicy(),
		DefaultRedirectURL: testDefault,
	})
	mustUpsert(t, routes, "promo1", model.RoutePayload{
		Destination: strPtr("https://example.com/a"),
	})
	mustUpsert(t, routes, "promo2", model.RoutePayload{
		Destination: strPtr("https://example.com/b"),
		Enabled:     boolPtr(false),
		FallbackURL: strPtr("https://example.com/paused"),
	})

	app := fiber.New()
	NewRedirectHandler(RedirectDeps{Routes: routes}).Register(app)
	return app
}

func mustUpsert(t *testing.T, routes *service.RouteService, id string, payload model.RoutePayload) {
	t.Helper()
	if _, err := routes.Upsert(context.Background(), id, payload); err != nil {
		t.Fatalf("upsert %s: %v", id, err)
	}
}

func TestResolve_EnabledRouteRedirects302(t *testing.T) {
	app := newScanApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/r/promo1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.com/a" {
		t.Fatalf("location = %q", loc)
	}
}

func TestResolve_DisabledRouteRedirects307ToFallback(t *testing.T) {
	app := newScanApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/r/promo2", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.com/paused" {
		t.Fatalf("location = %q", loc)
	}
}

func TestResolve_MissingRouteRedirectsToDefault(t *testing.T) {
	app := newScanApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/r/missing123", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != testDefault {
		t.Fatalf("location = %q, want default", loc)
	}
}

func TestResolve_JSONDecision(t *testing.T) {
	app := newScanApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/r/promo1", nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body service.ResolveResult
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Found || !body.Enabled || body.Target != "https://example.com/a" {
		t.Fatalf("body = %+v", body)
	}
	if body.Route == nil || body.Route.ID != "promo1" {
		t.Fatal("expected route in JSON body")
	}
}

func TestResolve_JSONNotFoundIs404(t *testing.T) {
	app := newScanApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/r/missing123?format=json", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	var body service.ResolveResult
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Found {
		t.Fatal("found should be false")
	}
	if body.Target != testDefault {
		t.Fatalf("target = %q, want default even when missing", body.Target)
	}
}

func TestResolve_InvalidIdentifierRejected(t *testing.T) {
	app := newScanApp(t)

	for _, id := range []string{"ab", "has%20space"} {
		req := httptest.NewRequest(fiber.MethodGet, "/r/"+id, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", id, resp.StatusCode)
		}
	}
}
