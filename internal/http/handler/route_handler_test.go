package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"qroute/internal/app/safety"
	"qroute/internal/app/service"
)

func newAPIApp(t *testing.T) *fiber.App {
	t.Helper()

	routes := service.NewRouteService(service.Config{
		Policy:             safety.DefaultPolicy(),
		DefaultRedirectURL: testDefault,
	})

	app := fiber.New()
	NewRouteHandler(RouteDeps{Routes: routes}).Register(app, nil, nil)
	return app
}

func TestAPI_UpsertThenGet(t *testing.T) {
	app := newAPIApp(t)

	req := httptest.NewRequest(fiber.MethodPut, "/api/routes/promo1",
		strings.NewReader(`{"destination": "https://example.com/a", "name": "Promo"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("upsert status = %d, want 200", resp.StatusCode)
	}

	var up service.UpsertResult
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		t.Fatal(err)
	}
	if up.Source != service.SourceFallback {
		t.Fatalf("source = %q, want fallback without a backend", up.Source)
	}
	if up.Data.Name != "Promo" {
		t.Fatalf("name = %q", up.Data.Name)
	}

	getReq := httptest.NewRequest(fiber.MethodGet, "/api/routes/promo1", nil)
	getResp, err := app.Test(getReq)
	if err != nil {
		t.Fatal(err)
	}
	if getResp.StatusCode != fiber.StatusOK {
		t.Fatalf("get status = %d", getResp.StatusCode)
	}

	var got service.GetResult
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Data == nil || got.Data.Destination != "https://example.com/a" {
		t.Fatalf("get data = %+v", got.Data)
	}
}

func TestAPI_GetMissingIs404(t *testing.T) {
	app := newAPIApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/routes/missing123", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAPI_List(t *testing.T) {
	app := newAPIApp(t)

	for _, id := range []string{"aaa1", "bbb2"} {
		req := httptest.NewRequest(fiber.MethodPut, "/api/routes/"+id,
			strings.NewReader(`{"destination": "https://example.com/x"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		if _, err := app.Test(req); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(fiber.MethodGet, "/api/routes/?limit=10", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	var list service.ListResult
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Data) != 2 {
		t.Fatalf("len = %d, want 2", len(list.Data))
	}
	if list.Source != service.SourceFallback {
		t.Fatalf("source = %q", list.Source)
	}
}

func TestAPI_InvalidDestinationIs400(t *testing.T) {
	app := newAPIApp(t)

	req := httptest.NewRequest(fiber.MethodPut, "/api/routes/promo1",
		strings.NewReader(`{"destination": "http://127.0.0.1/admin"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_InvalidIdentifiersRejected(t *testing.T) {
	app := newAPIApp(t)

	ids := []string{"ab", strings.Repeat("x", 121)}
	for _, id := range ids {
		req := httptest.NewRequest(fiber.MethodPut, "/api/routes/"+id,
			strings.NewReader(`{"destination": "https://example.com"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", id, resp.StatusCode)
		}
	}
}
