package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/ledger"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
	ledger  ledger.Ledger
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service, ledgerBackend ledger.Ledger) *Handler {
	return &Handler{service: service, ledger: ledgerBackend}
}

type provisionRequest struct {
	ReferralCode string `json:"referral_code"`
}

type accountResponse struct {
	ID           string `json:"id"`
	ReferralCode string `json:"referral_code"`
	ReferredBy   string `json:"referred_by,omitempty"`
	Tier         int    `json:"tier"`
}

// Create provisions a new account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req provisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.service.Provision(c.UserContext(), ProvisionInput{ReferralCode: req.ReferralCode})
	if err != nil {
		if errors.Is(err, ErrUnknownReferralCode) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(accountResponse{
		ID:           acct.ID,
		ReferralCode: acct.ReferralCode,
		ReferredBy:   acct.ReferredBy,
		Tier:         acct.Tier,
	})
}

// Get returns account metadata.
func (h *Handler) Get(c *fiber.Ctx) error {
	acct, err := h.service.Get(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.JSON(accountResponse{
		ID:           acct.ID,
		ReferralCode: acct.ReferralCode,
		ReferredBy:   acct.ReferredBy,
		Tier:         acct.Tier,
	})
}

// Balance returns the split balance projection with lifetime counters.
func (h *Handler) Balance(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	currency := c.Query("currency", "USD")

	info, err := h.ledger.BalanceInfo(c.UserContext(), accountID, currency)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	counters, err := h.ledger.Counters(c.UserContext(), accountID)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}

	return c.JSON(fiber.Map{
		"account_id":              info.AccountID,
		"currency":                info.Currency,
		"total_balance":           info.Total,
		"withdrawable_balance":    info.Withdrawable,
		"non_withdrawable":        info.NonWithdrawable,
		"total_deposited":         counters.TotalDeposited,
		"total_withdrawn":         counters.TotalWithdrawn,
		"total_profit":            counters.TotalProfit,
		"total_referral_earnings": counters.TotalReferralEarnings,
		"as_of":                   info.AsOf,
	})
}

type entryResponse struct {
	ID           string `json:"id"`
	Currency     string `json:"currency"`
	Amount       int64  `json:"amount"`
	Kind         string `json:"kind"`
	Withdrawable bool   `json:"withdrawable"`
	Reference    string `json:"reference,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// Entries lists the account's ledger history.
func (h *Handler) Entries(c *fiber.Ctx) error {
	entries, err := h.ledger.Entries(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:           e.ID,
			Currency:     e.Currency,
			Amount:       e.Amount,
			Kind:         string(e.Kind),
			Withdrawable: e.Withdrawable,
			Reference:    e.Reference,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"account_id": c.Params("accountId"), "entries": out})
}
