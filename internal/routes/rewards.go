package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gainvault/gainvault/internal/reward"
)

// RegisterRewardRoutes wires incentive credit endpoints.
func RegisterRewardRoutes(r fiber.Router, h *reward.Handler) {
	r.Post("/rewards/task", h.Task)
	r.Post("/rewards/lucky-draw", h.LuckyDraw)
}
