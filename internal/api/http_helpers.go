package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fastlog/internal/services"
)

const internalErrorMessage = "internal server error"

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// respondError is the only place domain errors become HTTP statuses.
// Anything unrecognized is a storage failure: logged, never echoed.
func (handler *Handler) respondError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError

	switch {
	case errors.Is(err, services.ErrAuthenticationRequired):
		return apiError(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, services.ErrInvalidCredentials):
		return apiError(c, fiber.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, services.ErrDuplicateUsername):
		return apiError(c, fiber.StatusBadRequest, "username already taken")
	case errors.Is(err, services.ErrAlreadyActive):
		return apiError(c, fiber.StatusBadRequest, "a fast is already active")
	case errors.As(err, &validationErr):
		return apiError(c, fiber.StatusBadRequest, validationErr.Message)
	case errors.Is(err, services.ErrFastNotFound):
		return apiError(c, fiber.StatusNotFound, "fast not found")
	case errors.Is(err, services.ErrNotOwner):
		return apiError(c, fiber.StatusForbidden, "fast belongs to another user")
	}

	handler.logger.Error("request failed",
		"request_id", requestID(c),
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return apiError(c, fiber.StatusInternalServerError, internalErrorMessage)
}

// errorHandler renders errors that escape handlers, such as fiber's own 404
// and body-limit errors, in the same JSON shape.
func (handler *Handler) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apiError(c, fiberErr.Code, fiberErr.Message)
	}
	return handler.respondError(c, err)
}

// fastIDParam parses :id. Malformed ids cannot name a fast, so they read as
// not found.
func fastIDParam(c *fiber.Ctx) (uint, error) {
	value, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || value == 0 {
		return 0, services.ErrFastNotFound
	}
	return uint(value), nil
}
