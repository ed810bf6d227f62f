package api

import (
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const multipartOverheadBytes = 1 << 20

type AppConfig struct {
	CORSAllowOrigins []string
}

// NewApp assembles the fiber application with the middleware chain and
// every route mounted.
func NewApp(handler *Handler, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "fastlog",
		DisableStartupMessage: true,
		BodyLimit:             int(handler.avatarMaxBytes) + multipartOverheadBytes,
		ErrorHandler:          handler.errorHandler,
		ReadTimeout:           30 * time.Second,
		Immutable:             true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{ContextKey: requestIDLocalsKey}))
	if len(cfg.CORSAllowOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.CORSAllowOrigins, ","),
			AllowCredentials: !slices.Contains(cfg.CORSAllowOrigins, "*"),
		}))
	}
	app.Use(handler.RequestLogger)

	RegisterRoutes(app, handler)
	return app
}
