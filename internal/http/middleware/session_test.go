package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"docarchive/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator map[string]model.Caller

func (s stubAuthenticator) Authenticate(token string) (model.Caller, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return model.Anonymous(), errors.New("invalid")
}

func newSessionApp(guards ...fiber.Handler) *fiber.App {
	auth := stubAuthenticator{
		"alice-token": {UserID: "u1", Username: "alice"},
		"root-token":  {UserID: "u0", Username: "root", IsSuperuser: true},
	}
	app := fiber.New()
	app.Use(Session(auth, "session"))
	handlers := append(guards, func(c *fiber.Ctx) error {
		return c.SendString(CallerFrom(c).Username)
	})
	app.Get("/", handlers...)
	return app
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestSession(t *testing.T) {
	app := newSessionApp()

	t.Run("anonymous without token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, "", body(t, resp))
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "alice-token"})
		resp, _ := app.Test(req)
		assert.Equal(t, "alice", body(t, resp))
	})

	t.Run("bearer header wins over cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer root-token")
		req.AddCookie(&http.Cookie{Name: "session", Value: "alice-token"})
		resp, _ := app.Test(req)
		assert.Equal(t, "root", body(t, resp))
	})

	t.Run("stale cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "expired"})
		resp, _ := app.Test(req)
		assert.Equal(t, "", body(t, resp))
		assert.Contains(t, resp.Header.Get("Set-Cookie"), "session=")
	})
}

func TestRequireAuth(t *testing.T) {
	app := newSessionApp(RequireAuth())

	resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	resp, _ = app.Test(req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireSuperuser(t *testing.T) {
	app := newSessionApp(RequireSuperuser())

	tests := []struct {
		token string
		want  int
	}{
		{"", fiber.StatusUnauthorized},
		{"alice-token", fiber.StatusForbidden},
		{"root-token", fiber.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		resp, _ := app.Test(req)
		assert.Equal(t, tt.want, resp.StatusCode, "token %q", tt.token)
	}
}
