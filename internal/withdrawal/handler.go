package withdrawal

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/ledger"
)

// Handler exposes withdrawal HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a withdrawal HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type requestBody struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount"`
}

type withdrawalResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount"`
	Fee       int64  `json:"fee"`
	Status    string `json:"status"`
}

// Request validates eligibility and creates a pending withdrawal.
func (h *Handler) Request(c *fiber.Ctx) error {
	var req requestBody
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	w, err := h.service.Request(c.UserContext(), req.AccountID, req.Currency, req.Amount)
	if err != nil {
		return translateError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(w))
}

// Approve settles a pending withdrawal, debiting amount and fee.
func (h *Handler) Approve(c *fiber.Ctx) error {
	w, err := h.service.Approve(c.UserContext(), c.Params("withdrawalId"))
	if err != nil {
		return translateError(err)
	}
	return c.JSON(toResponse(w))
}

// Reject declines a pending withdrawal.
func (h *Handler) Reject(c *fiber.Ctx) error {
	w, err := h.service.Reject(c.UserContext(), c.Params("withdrawalId"))
	if err != nil {
		return translateError(err)
	}
	return c.JSON(toResponse(w))
}

// History lists the account's withdrawal requests.
func (h *Handler) History(c *fiber.Ctx) error {
	withdrawals, err := h.service.History(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]withdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		out = append(out, toResponse(w))
	}
	return c.JSON(fiber.Map{"account_id": c.Params("accountId"), "withdrawals": out})
}

func translateError(err error) error {
	switch {
	case errors.Is(err, ErrPendingExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrBelowMinimum), errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func toResponse(w Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		ID:        w.ID,
		AccountID: w.AccountID,
		Currency:  w.Currency,
		Amount:    w.Amount,
		Fee:       w.Fee,
		Status:    w.Status,
	}
}
