package teller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/mobile-bank/mobile_bank/internal/auth"
	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
)

// Handler exposes deposit, withdrawal and history endpoints for the
// authenticated client.
type Handler struct {
	service *Service
}

// NewHandler builds a teller HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit credits the client's balance.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.move(c, h.service.Deposit)
}

// Withdraw debits the client's balance.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.move(c, h.service.Withdraw)
}

// History lists recent movements on the client's account.
func (h *Handler) History(c *fiber.Ctx) error {
	client := auth.ClientFrom(c)
	if client == nil {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	txs, err := h.service.History(c.UserContext(), client.Session.State().Identity.AccountID, c.QueryInt("limit", defaultHistoryLimit))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": txs})
}

func (h *Handler) move(c *fiber.Ctx, op func(ctx context.Context, id identity.Identity, amount decimal.Decimal) (Transaction, error)) error {
	client := auth.ClientFrom(c)
	if client == nil {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tx, err := op(c.UserContext(), client.Session.State().Identity, req.Amount)
	switch {
	case errors.Is(err, ErrNonPositiveAmount), errors.Is(err, ErrNoBalanceAccount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "account not found")
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(tx)
}
