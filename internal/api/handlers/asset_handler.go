package handlers

import (
	"io"
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type AssetHandler struct {
	assets repository.AssetRepository
	store  *storage.R2Store
}

func NewAssetHandler(assets repository.AssetRepository, store *storage.R2Store) *AssetHandler {
	return &AssetHandler{assets: assets, store: store}
}

// Upload stores one image for a draft. Variants produced at dispatch time
// pick up the latest asset as their media link.
func (h *AssetHandler) Upload(c *fiber.Ctx) error {
	brandID := c.QueryInt("brand_id", 0)
	draftID := c.QueryInt("draft_id", 0)
	if brandID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "brand_id is required",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to open file",
		})
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}

	allowedTypes := map[string]struct{}{
		"jpeg": {}, "jpg": {}, "png": {}, "gif": {},
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported file type",
		})
	}
	if _, ok := allowedTypes[fileType.Extension]; !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File type " + fileType.Extension + " is not allowed",
		})
	}

	key, err := gonanoid.New()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to generate asset key",
		})
	}

	if err := h.store.Upload(c.Context(), "assets/"+key, fileBytes, fileType.MIME.Value); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to upload file",
		})
	}

	asset := &models.MediaAsset{
		BrandID:  int64(brandID),
		DraftID:  int64(draftID),
		FileName: key,
		FileType: fileType.MIME.Value,
		FileURL:  h.store.PublicURL("assets/" + key),
	}

	assetID, err := h.assets.Create(c.Context(), asset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to save asset",
		})
	}
	asset.ID = assetID

	return c.Status(fiber.StatusOK).JSON(asset)
}
