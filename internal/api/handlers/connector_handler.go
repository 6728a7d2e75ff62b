package handlers

import (
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type ConnectorHandler struct {
	connectors repository.ConnectorRepository
}

func NewConnectorHandler(connectors repository.ConnectorRepository) *ConnectorHandler {
	return &ConnectorHandler{connectors: connectors}
}

func (h *ConnectorHandler) ListConnectors(c *fiber.Ctx) error {
	brandID := c.QueryInt("brand_id", 0)
	if brandID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "brand_id is required",
		})
	}

	connectors, err := h.connectors.ListByBrand(c.Context(), int64(brandID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list connectors",
		})
	}
	return c.Status(fiber.StatusOK).JSON(connectors)
}

func (h *ConnectorHandler) RemoveConnector(c *fiber.Ctx) error {
	var req transfer.ConnectorRemoveRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	if req.ConnectorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "connector_id is required",
		})
	}

	if err := h.connectors.Remove(c.Context(), req.ConnectorID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove connector",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
