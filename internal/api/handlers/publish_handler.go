package handlers

import (
	"errors"
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/engine"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type PublishHandler struct {
	engine *engine.Engine
	drafts repository.DraftRepository
}

func NewPublishHandler(e *engine.Engine, drafts repository.DraftRepository) *PublishHandler {
	return &PublishHandler{engine: e, drafts: drafts}
}

func (h *PublishHandler) PublishDraft(c *fiber.Ctx) error {
	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	if req.DraftID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "draft_id is required",
		})
	}

	draft, err := h.drafts.GetByID(c.Context(), req.DraftID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if draft == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Draft doesn't exist",
		})
	}

	outcome, err := h.engine.PublishDraft(c.Context(), draft, engine.PublishOptions{
		Schedule:         req.Schedule,
		PublishToWebsite: req.PublishToWebsite,
		PublishToSocial:  req.PublishToSocial,
		Platforms:        req.Platforms,
		DryRun:           req.DryRun,
	})
	if err != nil {
		if errors.Is(err, engine.ErrDraftClaimed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(outcome)
}

func (h *PublishHandler) PublishAll(c *fiber.Ctx) error {
	var req transfer.PublishAllRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	stats, err := h.engine.PublishApproved(c.Context(), req.BrandID, engine.PublishOptions{
		Schedule:         req.Schedule,
		PublishToWebsite: req.PublishToWebsite,
		PublishToSocial:  req.PublishToSocial,
		Platforms:        req.Platforms,
		DryRun:           req.DryRun,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}

func (h *PublishHandler) Cleanup(c *fiber.Ctx) error {
	var req transfer.CleanupRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	stats, err := h.engine.Cleanup(c.Context(), req.DaysOld)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}
