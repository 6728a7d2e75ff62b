package handlers

import (
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type DraftHandler struct {
	drafts  repository.DraftRepository
	records repository.PublishRecordRepository
}

func NewDraftHandler(drafts repository.DraftRepository, records repository.PublishRecordRepository) *DraftHandler {
	return &DraftHandler{drafts: drafts, records: records}
}

func (h *DraftHandler) ListDrafts(c *fiber.Ctx) error {
	brandID := c.QueryInt("brand_id", 0)
	status := c.Query("status", models.DraftStatusPendingReview)

	if brandID == 0 {
		drafts, err := h.drafts.ListByStatus(c.Context(), status)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to list drafts",
			})
		}
		return c.Status(fiber.StatusOK).JSON(drafts)
	}

	drafts, err := h.drafts.ListByBrandAndStatus(c.Context(), int64(brandID), status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list drafts",
		})
	}
	return c.Status(fiber.StatusOK).JSON(drafts)
}

func (h *DraftHandler) DraftHistory(c *fiber.Ctx) error {
	draftID := c.QueryInt("id", 0)
	if draftID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	records, err := h.records.ListByDraftID(c.Context(), int64(draftID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list publish records",
		})
	}
	return c.Status(fiber.StatusOK).JSON(records)
}

// ApproveDraft is the manual review action; it moves a pending draft to
// approved.
func (h *DraftHandler) ApproveDraft(c *fiber.Ctx) error {
	return h.review(c, models.DraftStatusApproved)
}

func (h *DraftHandler) RejectDraft(c *fiber.Ctx) error {
	return h.review(c, models.DraftStatusRejected)
}

func (h *DraftHandler) review(c *fiber.Ctx, status string) error {
	var req transfer.DraftActionRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
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
	if draft.Status != models.DraftStatusPendingReview {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Draft is not pending review",
		})
	}

	if err := h.drafts.UpdateStatus(c.Context(), status, draft.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to update draft",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Draft " + status,
	})
}
