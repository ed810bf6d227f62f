package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fastlog/internal/services"
)

// sessionToken returns the raw session token, or "" when the cookie is
// missing or fails to open.
func (handler *Handler) sessionToken(c *fiber.Ctx) string {
	raw := strings.TrimSpace(c.Cookies(sessionCookieName))
	if raw == "" {
		return ""
	}
	token, err := handler.cookies.Open(sessionCookiePurpose, raw)
	if err != nil {
		return ""
	}
	return string(token)
}

func (handler *Handler) setSessionCookie(c *fiber.Ctx, session services.IssuedSession) error {
	sealed, err := handler.cookies.Seal(sessionCookiePurpose, []byte(session.Token))
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    sealed,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (handler *Handler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
