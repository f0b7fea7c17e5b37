package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/deposit"
)

// RegisterDepositRoutes wires deposit lifecycle endpoints. Confirm is the
// callback surface for the external payment network.
func RegisterDepositRoutes(r fiber.Router, h *deposit.Handler) {
	r.Post("/deposits", h.Request)
	r.Post("/deposits/:depositId/confirm", h.Confirm)
}
