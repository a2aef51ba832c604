package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docarchive/internal/model"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/documents", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(RequestIDLocalKey).(string))
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when absent"},
		{name: "propagated when safe", incoming: "upstream-7f3a", keep: true},
		{name: "replaced when it contains spaces", incoming: "has space"},
		{name: "replaced when too long", incoming: strings.Repeat("x", maxRequestIDLength+1)},
		{name: "replaced when non-ascii", incoming: "id-é"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/documents", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			got := resp.Header.Get(RequestIDHeader)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, got, string(body), "locals and header carry the same id")
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
			} else {
				assert.Len(t, got, 36)
			}
		})
	}
}

// logLine runs one request through the access log and decodes the line it wrote.
func logLine(t *testing.T, caller *model.Caller, h fiber.Handler) map[string]any {
	t.Helper()
	var buf strings.Builder
	app := fiber.New()
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, time.UTC))
	if caller != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(CallerLocalKey, *caller)
			return c.Next()
		})
	}
	app.Get("/documents/:id", h)

	_, err := app.Test(httptest.NewRequest("GET", "/documents/42", nil))
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &line))
	return line
}

func TestLogger(t *testing.T) {
	line := logLine(t, nil, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.NotEmpty(t, line["request_id"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/documents/42", line["path"])
	assert.Equal(t, float64(fiber.StatusOK), line["status"])
	assert.NotNil(t, line["latency"])
	assert.NotEmpty(t, line["ts"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "http", line["component"])
	assert.Equal(t, "http_request", line["event"])
	assert.NotContains(t, line, "user_id")
}

func TestLogger_SessionUser(t *testing.T) {
	alice := &model.Caller{UserID: "u-alice", Username: "alice"}
	line := logLine(t, alice, func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusForbidden, "not yours")
	})

	assert.Equal(t, "u-alice", line["user_id"])
	assert.Equal(t, float64(fiber.StatusForbidden), line["status"])
	assert.Equal(t, "info", line["level"], "client errors are not server failures")
}

func TestLogger_ServerError(t *testing.T) {
	line := logLine(t, nil, func(c *fiber.Ctx) error { return errors.New("storage unreachable") })

	assert.Equal(t, float64(fiber.StatusInternalServerError), line["status"])
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "storage unreachable", line["error_message"])
}
