package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mobile-bank/mobile_bank/internal/auth"
)

// Audit logs one structured line per request, tagged with the request id and
// the signed-in account when there is one.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if reqID := RequestIDFrom(c); reqID != "" {
			attrs = append(attrs, slog.String("request_id", reqID))
		}
		if client := auth.ClientFrom(c); client != nil {
			attrs = append(attrs, slog.String("session_id", client.ID))
			if id := client.Session.State().Identity; !id.IsZero() {
				attrs = append(attrs, slog.String("account_id", id.AccountID))
			}
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			logger.Error("request completed", attrs...)
			return err
		}

		logger.Info("request completed", attrs...)
		return nil
	}
}
