package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docarchive/internal/model"
)

// CallerLocalKey is the key under which Session stores the model.Caller.
const CallerLocalKey = "caller"

// Authenticator resolves a session token to a caller.
type Authenticator interface {
	Authenticate(token string) (model.Caller, error)
}

// Session resolves the caller from an "Authorization: Bearer" header or the session cookie.
// Requests without a valid token continue as anonymous; a stale cookie is cleared.
func Session(a Authenticator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := model.Anonymous()

		token, fromCookie := bearerToken(c), false
		if token == "" {
			token, fromCookie = c.Cookies(cookieName), true
		}
		if token != "" {
			resolved, err := a.Authenticate(token)
			switch {
			case err == nil:
				caller = resolved
			case fromCookie:
				c.ClearCookie(cookieName)
			}
		}

		c.Locals(CallerLocalKey, caller)
		return c.Next()
	}
}

// CallerFrom returns the caller stored by Session, or an anonymous one.
func CallerFrom(c *fiber.Ctx) model.Caller {
	if caller, ok := c.Locals(CallerLocalKey).(model.Caller); ok {
		return caller
	}
	return model.Anonymous()
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CallerFrom(c).Authenticated() {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// RequireSuperuser rejects anonymous requests with 401 and non-superusers with 403.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := CallerFrom(c)
		if !caller.Authenticated() {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if !caller.IsSuperuser {
			return fiber.NewError(fiber.StatusForbidden, "permission denied")
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
