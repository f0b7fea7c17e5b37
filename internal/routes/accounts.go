package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/account"
	"github.com/gainvault/gainvault/internal/commission"
	"github.com/gainvault/gainvault/internal/interest"
	"github.com/gainvault/gainvault/internal/withdrawal"
)

// RegisterAccountRoutes wires provisioning, balance and reporting endpoints.
func RegisterAccountRoutes(r fiber.Router, accounts *account.Handler, commissions *commission.Handler, accruals *interest.Handler, withdrawals *withdrawal.Handler) {
	r.Post("/accounts", accounts.Create)
	r.Get("/accounts/:accountId", accounts.Get)
	r.Get("/accounts/:accountId/balance", accounts.Balance)
	r.Get("/accounts/:accountId/entries", accounts.Entries)
	r.Get("/accounts/:accountId/commissions", commissions.History)
	r.Get("/accounts/:accountId/interest", accruals.History)
	r.Get("/accounts/:accountId/withdrawals", withdrawals.History)
}
