package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/middleware"
	"github.com/mobile-bank/mobile_bank/internal/profile"
)

// RegisterOfficerRoutes wires the officer console endpoints.
func RegisterOfficerRoutes(r fiber.Router, h *profile.Handler, requireSession, idempotent fiber.Handler) {
	group := r.Group("/officer", requireSession, middleware.RequireRole(identity.RoleOfficer))
	if idempotent != nil {
		group.Post("/customers", idempotent, h.CreateCustomer)
	} else {
		group.Post("/customers", h.CreateCustomer)
	}
}
