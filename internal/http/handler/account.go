package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"docarchive/internal/http/middleware"
	"docarchive/internal/model"
	"docarchive/internal/service"
)

// SessionCookie configures the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

// Login godoc
// @Summary Log in and receive a session cookie
// @Tags account
// @Accept x-www-form-urlencoded,json
// @Produce json
// @Success 200 {object} loginResponse
// @Failure 401 {object} errorPayload
// @Router /login [post]
func Login(svc service.AccountService, sc SessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}
		token, user, err := svc.Login(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return respondError(c, err)
		}

		expires := time.Now().Add(sc.TTL)
		c.Cookie(&fiber.Cookie{
			Name:     sc.Name,
			Value:    token,
			Path:     "/",
			Expires:  expires,
			Secure:   sc.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return done(c, fiber.StatusOK, loginResponse{Token: token, ExpiresAt: expires.UTC(), User: user}, "Welcome, "+user.Username+".")
	}
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags account
// @Success 204
// @Router /logout [post]
func Logout(sc SessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.ClearCookie(sc.Name)
		return done(c, fiber.StatusNoContent, nil, "Logged out.")
	}
}

// GetProfile godoc
// @Summary The caller's profile
// @Tags account
// @Produce json
// @Success 200 {object} service.ProfileView
// @Failure 401 {object} errorPayload
// @Router /profile [get]
func GetProfile(svc service.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := svc.Profile(c.UserContext(), middleware.CallerFrom(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(v)
	}
}

// UpdateProfile godoc
// @Summary Apply a profile action: action=avatar (multipart "avatar") or action=password
// @Tags account
// @Accept multipart/form-data,x-www-form-urlencoded,json
// @Produce json
// @Param action formData string true "avatar or password"
// @Success 200 {object} service.ProfileView
// @Failure 400 {object} errorPayload
// @Router /profile [post]
func UpdateProfile(svc service.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		upd := service.ProfileUpdate{Action: service.ProfileAction(c.FormValue("action"))}

		switch upd.Action {
		case service.ProfileActionAvatar:
			fh, err := c.FormFile("avatar")
			if err != nil {
				return writeErrorFields(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "invalid input",
					map[string]string{"avatar": "image file is required"})
			}
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			upd.Avatar = &service.AvatarUpload{
				FileName:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Reader:      f,
			}
		case service.ProfileActionPassword:
			var req passwordRequest
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
			}
			upd.Password = &service.PasswordChange{Current: req.CurrentPassword, New: req.NewPassword}
		}

		v, err := svc.UpdateProfile(c.UserContext(), middleware.CallerFrom(c), upd)
		if err != nil {
			return respondError(c, err)
		}
		return done(c, fiber.StatusOK, v, "Profile updated.")
	}
}
