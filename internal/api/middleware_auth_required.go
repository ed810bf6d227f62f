package api

import "github.com/gofiber/fiber/v2"

// AuthRequired resolves the session cookie to a user and stores it in the
// request locals.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	user, err := handler.auth.CurrentUser(c.UserContext(), handler.sessionToken(c))
	if err != nil {
		return handler.respondError(c, err)
	}

	c.Locals(contextUserKey, &user)
	return c.Next()
}
