package profile

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mobile-bank/mobile_bank/internal/identity"
)

// Handler exposes the officer customer endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a profile HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createCustomerRequest struct {
	Profile
	AccountID string `json:"account_id"`
	Password  string `json:"password"`
}

// CreateCustomer validates the submitted profile and opens the customer.
func (h *Handler) CreateCustomer(c *fiber.Ctx) error {
	var req createCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, fieldErrs, err := h.service.Submit(c.UserContext(), SubmitInput{
		Profile:   req.Profile,
		AccountID: req.AccountID,
		Password:  req.Password,
	})
	switch {
	case errors.Is(err, ErrInvalidProfile):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"errors": fieldErrs})
	case errors.Is(err, ErrAccountExists), errors.Is(err, identity.ErrCredentialExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrWeakPassword):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(result)
}
