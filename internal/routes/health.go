package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

const statusOK = "ok"

// RegisterHealthRoutes adds a readiness endpoint reporting each configured
// backend. Backends that are not configured report "disabled".
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		report := fiber.Map{
			"postgres": "disabled",
			"redis":    "disabled",
			"nats":     "disabled",
		}
		healthy := true
		check := func(name string, err error) {
			if err != nil {
				report[name] = err.Error()
				healthy = false
				return
			}
			report[name] = statusOK
		}

		if d.DB != nil {
			check("postgres", d.DB.Ping(ctx))
		}
		if d.Cache != nil {
			check("redis", d.Cache.Ping(ctx).Err())
		}
		if d.NATS != nil {
			var err error
			if !d.NATS.IsConnected() {
				err = fmt.Errorf("status %s", d.NATS.Status())
			}
			check("nats", err)
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    report,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
