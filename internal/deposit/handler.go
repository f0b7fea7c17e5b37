package deposit

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/account"
	"github.com/gainvault/gainvault/internal/ledger"
)

// Handler exposes deposit HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a deposit HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type requestBody struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount"`
}

type depositResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// Request creates a pending deposit awaiting external confirmation.
func (h *Handler) Request(c *fiber.Ctx) error {
	var req requestBody
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	d, err := h.service.Request(c.UserContext(), req.AccountID, req.Currency, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toResponse(d))
}

// Confirm marks a deposit as settled by the external payment network.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	d, err := h.service.Confirm(c.UserContext(), c.Params("depositId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(toResponse(d))
}

func toResponse(d Deposit) depositResponse {
	return depositResponse{
		ID:        d.ID,
		AccountID: d.AccountID,
		Currency:  d.Currency,
		Amount:    d.Amount,
		Status:    d.Status,
	}
}
