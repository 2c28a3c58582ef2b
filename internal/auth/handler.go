package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mobile-bank/mobile_bank/internal/navigation"
	"github.com/mobile-bank/mobile_bank/internal/session"
)

const localsClient = "auth.client"

// SetClient attaches an authenticated client to the request.
func SetClient(c *fiber.Ctx, client *Client) {
	c.Locals(localsClient, client)
}

// ClientFrom returns the client attached by the auth middleware, or nil.
func ClientFrom(c *fiber.Ctx) *Client {
	client, _ := c.Locals(localsClient).(*Client)
	return client
}

// Handler exposes login, logout and session endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds an auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	AccountID string `json:"account_id"`
	Password  string `json:"password"`
}

type sessionResponse struct {
	SessionID   string                   `json:"session_id,omitempty"`
	State       session.State            `json:"state"`
	Destination navigation.Destination   `json:"destination"`
	History     []navigation.Destination `json:"history,omitempty"`
	ExpiresAt   *time.Time               `json:"expires_at,omitempty"`
}

// Login authenticates the client and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Login(c.UserContext(), req.AccountID, req.Password)
	if errors.Is(err, ErrLoginFailed) {
		return c.Status(http.StatusUnauthorized).JSON(sessionResponse{
			State:       result.State,
			Destination: navigation.Login,
		})
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_token": result.Token,
		"expires_in":   int64(time.Until(result.ExpiresAt).Seconds()),
		"session":      describe(result.Client),
	})
}

// Logout ends the authenticated session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	client := ClientFrom(c)
	if client == nil {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	st, err := h.svc.Logout(c.UserContext(), client.ID)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(sessionResponse{
		State:       st,
		Destination: client.Nav.Current(),
	})
}

// Session returns the session state and navigation position of the client.
func (h *Handler) Session(c *fiber.Ctx) error {
	client := ClientFrom(c)
	if client == nil {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return c.Status(http.StatusOK).JSON(describe(client))
}

func describe(client *Client) sessionResponse {
	expires := client.ExpiresAt
	return sessionResponse{
		SessionID:   client.ID,
		State:       client.Session.State(),
		Destination: client.Nav.Current(),
		History:     client.Nav.History(),
		ExpiresAt:   &expires,
	}
}
