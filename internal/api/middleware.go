package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fastlog/internal/models"
)

const (
	sessionCookieName    = "fastlog_session"
	sessionCookiePurpose = "session"
	contextUserKey       = "current_user"
	requestIDLocalsKey   = "requestid"
)

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok && user != nil
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocalsKey).(string)
	return id
}
