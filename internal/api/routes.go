package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	if handler.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(handler.metrics.Handler()))
	}
	app.Get("/uploads/:name", handler.Upload)

	api := app.Group("/api")
	api.Post("/register", handler.Register)
	api.Post("/login", handler.Login)
	api.Post("/logout", handler.Logout)
	api.Get("/user", handler.AuthRequired, handler.CurrentUser)

	fasts := api.Group("/fasts", handler.AuthRequired)
	fasts.Get("", handler.ListFasts)
	fasts.Post("/start", handler.StartFast)
	fasts.Get("/active", handler.ActiveFast)
	fasts.Post("/:id/end", handler.EndFast)
	fasts.Post("/:id/meals", handler.LogMeal)
	fasts.Get("/:id/meals", handler.ListMeals)
}
