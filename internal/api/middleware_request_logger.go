package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs one line per request and feeds the request metrics.
// Errors returned down the chain are rendered here so the logged status is
// the one the client sees.
func (handler *Handler) RequestLogger(c *fiber.Ctx) error {
	started := time.Now()

	if err := c.Next(); err != nil {
		if renderErr := handler.errorHandler(c, err); renderErr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	elapsed := time.Since(started)
	status := c.Response().StatusCode()
	route := c.Route().Path
	if status == fiber.StatusNotFound && route == "/" && c.Path() != "/" {
		route = "unmatched"
	}
	handler.metrics.ObserveRequest(c.Method(), route, status, elapsed)

	level := slog.LevelInfo
	if status >= fiber.StatusInternalServerError {
		level = slog.LevelError
	}
	handler.logger.Log(c.UserContext(), level, "request",
		"request_id", requestID(c),
		"method", c.Method(),
		"path", c.Path(),
		"route", route,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}
