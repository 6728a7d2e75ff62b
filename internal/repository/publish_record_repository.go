package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/models"
)

type PublishRecordRepository interface {
	Create(ctx context.Context, record *models.PublishRecord) (int64, error)
	ListByDraftID(ctx context.Context, draftID int64) ([]*models.PublishRecord, error)
}

type publishRecordRepository struct {
	db *sql.DB
}

func NewPublishRecordRepository(db *sql.DB) PublishRecordRepository {
	return &publishRecordRepository{db: db}
}

func (r *publishRecordRepository) Create(ctx context.Context, record *models.PublishRecord) (int64, error) {
	query := `
		INSERT INTO publish_records (draft_id, platform, post_id, url, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, record.DraftID, record.Platform, record.PostID, record.URL, record.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *publishRecordRepository) ListByDraftID(ctx context.Context, draftID int64) ([]*models.PublishRecord, error) {
	query := `SELECT id, draft_id, platform, post_id, url, error_message, created_at
		FROM publish_records WHERE draft_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, draftID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.PublishRecord
	for rows.Next() {
		var rec models.PublishRecord
		err := rows.Scan(&rec.ID, &rec.DraftID, &rec.Platform, &rec.PostID, &rec.URL, &rec.ErrorMessage, &rec.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
