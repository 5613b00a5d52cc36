package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paydown/paydown/internal/allocation"
)

// RegisterPaymentRoutes wires the batch payment endpoint.
func RegisterPaymentRoutes(r fiber.Router, h *allocation.Handler) {
	r.Post("/payments", h.CreatePayments)
}
