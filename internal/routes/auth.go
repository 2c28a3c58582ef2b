package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mobile-bank/mobile_bank/internal/auth"
)

// RegisterAuthRoutes wires login, logout and session endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, requireSession, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/logout", requireSession, h.Logout)
	r.Get("/session", requireSession, h.Session)
}
