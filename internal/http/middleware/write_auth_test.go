package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newAuthApp(cfg WriteAuthConfig) *fiber.App {
	app := fiber.New()
	app.Put("/api/routes/:id", WriteAuth(cfg, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestWriteAuth_NoTokenDevelopmentAllows(t *testing.T) {
	app := newAuthApp(WriteAuthConfig{Production: false})

	req := httptest.NewRequest(fiber.MethodPut, "/api/routes/promo1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestWriteAuth_NoTokenProductionFailsClosed(t *testing.T) {
	app := newAuthApp(WriteAuthConfig{Production: true})

	req := httptest.NewRequest(fiber.MethodPut, "/api/routes/promo1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestWriteAuth_NoTokenProductionOverride(t *testing.T) {
	app := newAuthApp(WriteAuthConfig{Production: true, AllowUnauthenticated: true})

	req := httptest.NewRequest(fiber.MethodPut, "/api/routes/promo1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestWriteAuth_TokenChecks(t *testing.T) {
	app := newAuthApp(WriteAuthConfig{Token: "s3cret"})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing token", "", "", fiber.StatusUnauthorized},
		{"wrong bearer", fiber.HeaderAuthorization, "Bearer nope", fiber.StatusUnauthorized},
		{"correct bearer", fiber.HeaderAuthorization, "Bearer s3cret", fiber.StatusOK},
		{"wrong custom header", TokenHeader, "nope", fiber.StatusUnauthorized},
		{"correct custom header", TokenHeader, "s3cret", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPut, "/api/routes/promo1", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
