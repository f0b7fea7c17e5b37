package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes wires liveness and readiness probes.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	app.Get("/readyz", func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if err := d.DB.Ping(ctx); err != nil {
			return fiber.NewError(http.StatusServiceUnavailable, "database unavailable")
		}
		if err := d.Cache.Ping(ctx).Err(); err != nil {
			return fiber.NewError(http.StatusServiceUnavailable, "redis unavailable")
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":    "ready",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}
