package reward

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/ledger"
)

// Handler exposes reward HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a reward HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type grantRequest struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount"`
}

type grantFunc func(ctx context.Context, accountID, currency string, amount int64) (ledger.Entry, error)

// Task credits a withdrawable task reward.
func (h *Handler) Task(c *fiber.Ctx) error {
	return h.grant(c, h.service.GrantTask)
}

// LuckyDraw credits non-withdrawable winnings.
func (h *Handler) LuckyDraw(c *fiber.Ctx) error {
	return h.grant(c, h.service.GrantLuckyDraw)
}

func (h *Handler) grant(c *fiber.Ctx, fn grantFunc) error {
	var req grantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	entry, err := fn(c.UserContext(), req.AccountID, req.Currency, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrAccountNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"entry_id":   entry.ID,
		"account_id": entry.AccountID,
		"currency":   entry.Currency,
		"amount":     entry.Amount,
		"kind":       string(entry.Kind),
	})
}
