package handlers

import (
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/engine"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type BrandHandler struct {
	engine *engine.Engine
	brands repository.BrandRepository
}

func NewBrandHandler(e *engine.Engine, brands repository.BrandRepository) *BrandHandler {
	return &BrandHandler{engine: e, brands: brands}
}

func (h *BrandHandler) Generate(c *fiber.Ctx) error {
	brandID, err := c.ParamsInt("id")
	if err != nil || brandID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid brand id",
		})
	}

	var req transfer.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	brand, err := h.brands.GetByID(c.Context(), int64(brandID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if brand == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Brand doesn't exist",
		})
	}

	stats := h.engine.GenerateForBrand(c.Context(), brand, engine.GenerateOptions{
		Limit:       req.Limit,
		AutoApprove: req.AutoApprove,
		Schedule:    req.Schedule,
	})

	return c.Status(fiber.StatusOK).JSON(stats)
}

func (h *BrandHandler) AutoApprove(c *fiber.Ctx) error {
	brandID, err := c.ParamsInt("id")
	if err != nil || brandID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid brand id",
		})
	}

	var req transfer.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	brand, err := h.brands.GetByID(c.Context(), int64(brandID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if brand == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Brand doesn't exist",
		})
	}

	count, err := h.engine.AutoApprove(c.Context(), brand, req.Threshold)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"approved": count,
	})
}

func (h *BrandHandler) ListBrands(c *fiber.Ctx) error {
	brands, err := h.brands.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list brands",
		})
	}
	return c.Status(fiber.StatusOK).JSON(brands)
}
