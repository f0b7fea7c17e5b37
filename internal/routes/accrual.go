package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/interest"
)

// RegisterAccrualRoutes wires the manual accrual trigger used by operators
// and by the external scheduler fallback.
func RegisterAccrualRoutes(r fiber.Router, h *interest.Handler) {
	r.Post("/accrual/run", h.Run)
}
