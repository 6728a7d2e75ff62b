package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/models"
)

type AssetRepository interface {
	Create(ctx context.Context, asset *models.MediaAsset) (int64, error)
	GetLatestByDraftID(ctx context.Context, draftID int64) (*models.MediaAsset, error)
}

type assetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.MediaAsset) (int64, error) {
	query := `
		INSERT INTO media_assets (brand_id, draft_id, file_name, file_type, file_url)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, asset.BrandID, asset.DraftID, asset.FileName, asset.FileType, asset.FileURL).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *assetRepository) GetLatestByDraftID(ctx context.Context, draftID int64) (*models.MediaAsset, error) {
	query := `SELECT id, brand_id, COALESCE(draft_id, 0), file_name, file_type, file_url, created_at
		FROM media_assets WHERE draft_id = $1 ORDER BY created_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, draftID)

	var asset models.MediaAsset
	err := row.Scan(&asset.ID, &asset.BrandID, &asset.DraftID, &asset.FileName, &asset.FileType, &asset.FileURL, &asset.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &asset, nil
}
