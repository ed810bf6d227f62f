package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fastlog/internal/models"
	"github.com/terraincognita07/fastlog/internal/services"
)

func (handler *Handler) LogMeal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.respondError(c, services.ErrAuthenticationRequired)
	}
	fastID, err := fastIDParam(c)
	if err != nil {
		return handler.respondError(c, err)
	}

	var input logMealInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}

	meal, err := handler.meals.LogMeal(c.UserContext(), fastID, user.ID, input.Description)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(meal)
}

func (handler *Handler) ListMeals(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.respondError(c, services.ErrAuthenticationRequired)
	}
	fastID, err := fastIDParam(c)
	if err != nil {
		return handler.respondError(c, err)
	}

	meals, err := handler.meals.ListMeals(c.UserContext(), fastID, user.ID)
	if err != nil {
		return handler.respondError(c, err)
	}
	if meals == nil {
		meals = []models.Meal{}
	}
	return c.JSON(meals)
}
