package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paydown/paydown/internal/allocation"
)

// RegisterTransactionRoutes wires transaction endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *allocation.Handler) {
	r.Post("/transactions", h.Create)
	r.Get("/transactions", h.List)
}
