package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fastlog/internal/services"
)

const avatarFormField = "avatar"

func (handler *Handler) Register(c *fiber.Ctx) error {
	input := services.RegistrationInput{
		Username:  c.FormValue("username"),
		Password:  c.FormValue("password"),
		FirstName: c.FormValue("firstName"),
		LastName:  c.FormValue("lastName"),
		City:      c.FormValue("city"),
		State:     c.FormValue("state"),
		Country:   c.FormValue("country"),
	}

	if header, err := c.FormFile(avatarFormField); err == nil {
		file, err := header.Open()
		if err != nil {
			return handler.respondError(c, err)
		}
		defer file.Close()
		input.Avatar = &services.AvatarUpload{Body: file}
	}

	user, session, err := handler.auth.Register(c.UserContext(), input)
	if err != nil {
		return handler.respondError(c, err)
	}
	if err := handler.setSessionCookie(c, session); err != nil {
		return handler.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	var input loginInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}

	limiterKey := loginLimiterKey(c, input.Username)
	now := time.Now()
	if handler.loginLimiter.tooManyRecent(limiterKey, now, handler.loginAttemptLimit, handler.loginAttemptWindow) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	user, session, err := handler.auth.Login(c.UserContext(), input.Username, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			handler.loginLimiter.addFailure(limiterKey, now, handler.loginAttemptWindow)
		}
		return handler.respondError(c, err)
	}
	handler.loginLimiter.reset(limiterKey)

	if err := handler.setSessionCookie(c, session); err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(user)
}

// Logout is registered without AuthRequired: a stale cookie is still cleared,
// and the caller learns whether it named a live session.
func (handler *Handler) Logout(c *fiber.Ctx) error {
	token := handler.sessionToken(c)
	_, authErr := handler.auth.CurrentUser(c.UserContext(), token)
	if authErr != nil && !errors.Is(authErr, services.ErrAuthenticationRequired) {
		return handler.respondError(c, authErr)
	}

	if err := handler.auth.Logout(c.UserContext(), token); err != nil {
		return handler.respondError(c, err)
	}
	handler.clearSessionCookie(c)

	if authErr != nil {
		return handler.respondError(c, authErr)
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

func (handler *Handler) CurrentUser(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.respondError(c, services.ErrAuthenticationRequired)
	}
	return c.JSON(user)
}
