package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/modcore/shop-backend/internal/catalog"
	"github.com/modcore/shop-backend/internal/database"
	"github.com/modcore/shop-backend/internal/dto"
)

type HealthHandler struct {
	catalog   *catalog.Catalog
	cachePing func() error
}

// NewHealthHandler takes an optional cache ping function; pass nil when the
// in-memory cache is in use.
func NewHealthHandler(cat *catalog.Catalog, cachePing func() error) *HealthHandler {
	return &HealthHandler{catalog: cat, cachePing: cachePing}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Cache:     "memory",
		Products:  h.catalog.Len(),
	}

	if err := database.Ping(); err != nil {
		resp.Status = "degraded"
		resp.DB = "unreachable"
	}

	if h.cachePing != nil {
		resp.Cache = "ok"
		if err := h.cachePing(); err != nil {
			resp.Status = "degraded"
			resp.Cache = "unreachable"
		}
	}

	status := fiber.StatusOK
	if resp.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
