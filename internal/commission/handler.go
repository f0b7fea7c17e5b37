package commission

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes commission reporting endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a commission HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type commissionResponse struct {
	ID              string `json:"id"`
	SourceAccountID string `json:"source_account_id"`
	EventID         string `json:"event_id"`
	Level           int    `json:"level"`
	RateBPS         int64  `json:"rate_bps"`
	SourceAmount    int64  `json:"source_amount"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
}

// History lists the commissions earned by an account.
func (h *Handler) History(c *fiber.Ctx) error {
	records, err := h.service.History(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]commissionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, commissionResponse{
			ID:              r.ID,
			SourceAccountID: r.SourceAccountID,
			EventID:         r.EventID,
			Level:           r.Level,
			RateBPS:         r.RateBPS,
			SourceAmount:    r.SourceAmount,
			Amount:          r.Amount,
			Currency:        r.Currency,
			Status:          r.Status,
		})
	}
	return c.JSON(fiber.Map{"account_id": c.Params("accountId"), "commissions": out})
}
