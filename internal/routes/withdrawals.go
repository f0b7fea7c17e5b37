package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/withdrawal"
)

// RegisterWithdrawalRoutes wires the withdrawal request lifecycle.
func RegisterWithdrawalRoutes(r fiber.Router, h *withdrawal.Handler) {
	r.Post("/withdrawals", h.Request)
	r.Post("/withdrawals/:withdrawalId/approve", h.Approve)
	r.Post("/withdrawals/:withdrawalId/reject", h.Reject)
}
