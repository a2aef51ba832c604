package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

const flashCookie = "flash"

// wantsJSON reports whether the client prefers JSON over HTML. A missing Accept header counts as JSON.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMEApplicationJSON
}

// redirectable reports whether an outcome should be a 303 back to the list with a flash message.
func redirectable(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodPost && !wantsJSON(c)
}

// done answers a successful mutation: JSON for API clients, a redirect with a flash message for forms.
func done(c *fiber.Ctx, status int, payload any, flash string) error {
	if !redirectable(c) {
		if payload == nil {
			return c.SendStatus(status)
		}
		return c.Status(status).JSON(payload)
	}
	return redirectWithFlash(c, flash)
}

func redirectWithFlash(c *fiber.Ctx, msg string) error {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/", fiber.StatusSeeOther)
}

// popFlash returns and clears the pending flash message.
func popFlash(c *fiber.Ctx) string {
	v := c.Cookies(flashCookie)
	if v == "" {
		return ""
	}
	c.ClearCookie(flashCookie)
	msg, err := url.QueryUnescape(v)
	if err != nil {
		return ""
	}
	return msg
}
