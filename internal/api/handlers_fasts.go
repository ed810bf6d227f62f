package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/services"
)

func (handler *Handler) ListFasts(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.respondError(c, services.ErrAuthenticationRequired)
	}

	fasts, err := handler.fasts.ListFasts(c.UserContext(), user.ID)
	if err != nil {
		return handler.respondError(c, err)
	}
	if fasts == nil {
		fasts = []models.Fast{}
	}
	return c.JSON(fasts)
}

func (handler *Handler) StartFast(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.respondError(c, services.ErrAuthenticationRequired)
	}

	fast, err := handler.fasts.StartFast(c.UserContext(), user.ID)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fast)
}

// ActiveFast answers with the active fast, or JSON null when there is none.
func (handler *Handler) ActiveFast(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.respondError(c, services.ErrAuthenticationRequired)
	}

	fast, err := handler.fasts.GetActiveFast(c.UserContext(), user.ID)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(fast)
}

func (handler *Handler) EndFast(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.respondError(c, services.ErrAuthenticationRequired)
	}
	fastID, err := fastIDParam(c)
	if err != nil {
		return handler.respondError(c, err)
	}

	var input endFastInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	fast, err := handler.fasts.EndFast(c.UserContext(), fastID, user.ID, input.Note)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(fast)
}
