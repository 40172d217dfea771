package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/metrics"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyToken(token string) (string, error) {
	if email, ok := v[token]; ok {
		return email, nil
	}
	return "", errors.New("bad token")
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", RequireAuth(staticVerifier{"good": "a@example.com"}), func(c *fiber.Ctx) error {
		return c.SendString(GetEmail(c))
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer good", http.StatusOK, "a@example.com"},
		{"lower-case scheme", "bearer good", http.StatusOK, "a@example.com"},
		{"missing header", "", http.StatusUnauthorized, `{"error":true,"message":"invalid token"}`},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, `{"error":true,"message":"invalid token"}`},
		{"empty token", "Bearer ", http.StatusUnauthorized, `{"error":true,"message":"invalid token"}`},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, `{"error":true,"message":"invalid token"}`},
	}

	app := newAuthApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.body, string(body))
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusTeapot, "short and stout")
	})

	for _, path := range []string{"/items/1", "/items/2", "/broken"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := rec.Body.String()

	assert.Contains(t, out, `fitplan_http_requests_total{method="GET",route="/items/:id",status="204"} 2`)
	assert.Contains(t, out, `fitplan_http_requests_total{method="GET",route="/broken",status="418"} 1`)
}

func TestSecurityHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(SecurityHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
