package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mobile-bank/mobile_bank/internal/auth"
	"github.com/mobile-bank/mobile_bank/internal/identity"
)

// SessionAuth resolves the bearer token to a live client session and
// attaches it to the request.
func SessionAuth(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		client, _, err := sessions.Authenticate(token)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			return fiber.NewError(http.StatusUnauthorized, "token expired")
		case errors.Is(err, auth.ErrSessionNotFound):
			return fiber.NewError(http.StatusUnauthorized, "session ended")
		case err != nil:
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		auth.SetClient(c, client)
		return c.Next()
	}
}

// RequireRole rejects sessions whose identity holds none of roles. It must
// run after SessionAuth.
func RequireRole(roles ...identity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		client := auth.ClientFrom(c)
		if client == nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		role := client.Session.State().Identity.Role
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return fiber.NewError(http.StatusForbidden, "forbidden")
	}
}
