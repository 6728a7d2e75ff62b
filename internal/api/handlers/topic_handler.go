package handlers

import (
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/engine"
	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type TopicHandler struct {
	engine *engine.Engine
	brands repository.BrandRepository
	topics repository.TopicRepository
}

func NewTopicHandler(e *engine.Engine, brands repository.BrandRepository, topics repository.TopicRepository) *TopicHandler {
	return &TopicHandler{engine: e, brands: brands, topics: topics}
}

// Discover runs trend discovery for one brand or every active brand. One
// brand's failure is reported in its own summary, never fatal to the batch.
func (h *TopicHandler) Discover(c *fiber.Ctx) error {
	var req transfer.DiscoverRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	var brands []*models.Brand
	if req.BrandID != 0 {
		brand, err := h.brands.GetByID(c.Context(), req.BrandID)
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
		brands = append(brands, brand)
	} else {
		var err error
		brands, err = h.brands.ListActive(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	var summaries []*engine.DiscoveryStats
	for _, brand := range brands {
		summaries = append(summaries, h.engine.DiscoverTopics(c.Context(), brand, req.Limit))
	}

	return c.Status(fiber.StatusOK).JSON(summaries)
}

func (h *TopicHandler) ListTopics(c *fiber.Ctx) error {
	brandID := c.QueryInt("brand_id", 0)
	status := c.Query("status", models.TopicStatusDiscovered)

	if brandID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "brand_id is required",
		})
	}

	topics, err := h.topics.ListByBrandAndStatus(c.Context(), int64(brandID), status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list topics",
		})
	}
	return c.Status(fiber.StatusOK).JSON(topics)
}
