package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docarchive/internal/http/middleware"
	"docarchive/internal/logging"
	"docarchive/internal/query"
	"docarchive/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var errLog = logging.Default().With("http")

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorFields(c, status, code, message, nil)
}

func writeErrorFields(c *fiber.Ctx, status int, code, message string, fields map[string]string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Fields:  fields,
		},
	}
	return c.Status(status).JSON(res)
}

// respondError maps service errors to HTTP responses. Denied and invalid form posts from
// browsers are redirected back with a flash message instead.
func respondError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		if redirectable(c) {
			return redirectWithFlash(c, "Please correct the form: "+verr.Error())
		}
		return writeErrorFields(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "invalid input", verr.Fields)
	case errors.Is(err, query.ErrInvalidCategory):
		return writeErrorFields(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "invalid input",
			map[string]string{"category": "unknown category"})
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	case errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrInvalidCredentials):
		if redirectable(c) {
			return redirectWithFlash(c, "Invalid username or password.")
		}
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
	case errors.Is(err, service.ErrUnauthenticated):
		if redirectable(c) {
			return redirectWithFlash(c, "Please log in first.")
		}
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
	case errors.Is(err, service.ErrForbidden):
		if redirectable(c) {
			return redirectWithFlash(c, "You do not have permission to do that.")
		}
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "permission denied")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrFileMissing):
		return writeError(c, fiber.StatusNotFound, "FILE_MISSING", "stored file not found")
	default:
		errLog.Error(c.UserContext(), "request_failed", err, map[string]any{
			"request_id": requestIDFromCtx(c),
			"method":     c.Method(),
			"path":       c.Path(),
		})
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			if redirectable(c) {
				return redirectWithFlash(c, "Please log in first.")
			}
			return writeError(c, status, "UNAUTHENTICATED", "authentication required")
		case fiber.StatusForbidden:
			if redirectable(c) {
				return redirectWithFlash(c, "You do not have permission to do that.")
			}
			return writeError(c, status, "FORBIDDEN", "permission denied")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
