package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fastlog/internal/blob"
)

const healthTimeout = 2 * time.Second

func (handler *Handler) Health(c *fiber.Ctx) error {
	if handler.health != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		if err := handler.health.Ping(ctx); err != nil {
			handler.logger.Warn("health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Upload streams a stored avatar back by the name inside its reference.
func (handler *Handler) Upload(c *fiber.Ctx) error {
	object, err := handler.blobs.Get(c.UserContext(), blob.RefPrefix+c.Params("name"))
	if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidRef) {
		return apiError(c, fiber.StatusNotFound, "not found")
	}
	if err != nil {
		return handler.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, object.ContentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=86400")
	c.Set("X-Content-Type-Options", "nosniff")
	return c.SendStream(object.Body, int(object.Size))
}
