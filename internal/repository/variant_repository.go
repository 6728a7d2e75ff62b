package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/models"
)

type VariantRepository interface {
	Create(ctx context.Context, variant *models.ContentVariant) (int64, error)
	ListByDraftID(ctx context.Context, draftID int64) ([]*models.ContentVariant, error)
}

type variantRepository struct {
	db *sql.DB
}

func NewVariantRepository(db *sql.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) Create(ctx context.Context, variant *models.ContentVariant) (int64, error) {
	query := `
		INSERT INTO content_variants (draft_id, platform, content, hashtags, mentions, char_count, media_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	hashtags, err := json.Marshal(variant.Hashtags)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	mentions, err := json.Marshal(variant.Mentions)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, variant.DraftID, variant.Platform, variant.Content,
		hashtags, mentions, variant.CharCount, variant.MediaURL).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *variantRepository) ListByDraftID(ctx context.Context, draftID int64) ([]*models.ContentVariant, error) {
	query := `SELECT id, draft_id, platform, content, hashtags, mentions, char_count, media_url, created_at
		FROM content_variants WHERE draft_id = $1`
	rows, err := r.db.QueryContext(ctx, query, draftID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var variants []*models.ContentVariant
	for rows.Next() {
		var v models.ContentVariant
		var hashtags, mentions []byte
		err := rows.Scan(&v.ID, &v.DraftID, &v.Platform, &v.Content, &hashtags, &mentions, &v.CharCount, &v.MediaURL, &v.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if len(hashtags) > 0 {
			if err := json.Unmarshal(hashtags, &v.Hashtags); err != nil {
				return nil, err
			}
		}
		if len(mentions) > 0 {
			if err := json.Unmarshal(mentions, &v.Mentions); err != nil {
				return nil, err
			}
		}
		variants = append(variants, &v)
	}
	return variants, rows.Err()
}
