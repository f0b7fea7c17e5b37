package interest

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes accrual endpoints: history for reporting and a manual
// trigger mirroring what the scheduler does.
type Handler struct {
	job *Job
}

// NewHandler builds an interest HTTP handler.
func NewHandler(job *Job) *Handler {
	return &Handler{job: job}
}

// Run triggers an accrual run for the given period (defaults to today).
// Reruns are harmless: already-accrued pairs are skipped.
func (h *Handler) Run(c *fiber.Ctx) error {
	period := c.Query("period", PeriodForTime(time.Now()))
	if _, err := time.Parse(PeriodLayout, period); err != nil {
		return fiber.NewError(http.StatusBadRequest, "period must be formatted as "+PeriodLayout)
	}

	summary, err := h.job.RunForPeriod(c.UserContext(), period)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"period":   summary.Period,
		"credited": summary.Credited,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	})
}

type recordResponse struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
	Period   string `json:"period"`
	RateBPS  int64  `json:"rate_bps"`
	Amount   int64  `json:"amount"`
}

// History lists an account's accrual records.
func (h *Handler) History(c *fiber.Ctx) error {
	records, err := h.job.History(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, recordResponse{
			ID:       r.ID,
			Currency: r.Currency,
			Period:   r.Period,
			RateBPS:  r.RateBPS,
			Amount:   r.Amount,
		})
	}
	return c.JSON(fiber.Map{"account_id": c.Params("accountId"), "records": out})
}
