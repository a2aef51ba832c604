package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"docarchive/internal/logging"
)

// Logger is a middleware that logs each HTTP request as a JSON line on stdout.
func Logger(loc *time.Location) fiber.Handler {
	return LoggerWithWriter(os.Stdout, loc)
}

// LoggerWithWriter logs to w. Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - user_id when the request carried a session
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	log := logging.New(w, loc).With("http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := statusOf(c, err)
		fields := map[string]any{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if caller := CallerFrom(c); caller.Authenticated() {
			fields["user_id"] = caller.UserID
		}

		if status >= fiber.StatusInternalServerError {
			log.Error(c.UserContext(), "http_request", err, fields)
		} else {
			log.Info(c.UserContext(), "http_request", fields)
		}
		return err
	}
}

// statusOf returns the status the error handler will send for err, or the written status.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
