package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/getbrandflow/brandflow/internal/models"
)

type DraftRepository interface {
	Create(ctx context.Context, tx *sql.Tx, draft *models.ContentDraft) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ContentDraft, error)
	ListByBrandAndStatus(ctx context.Context, brandID int64, status string) ([]*models.ContentDraft, error)
	ListByStatus(ctx context.Context, status string) ([]*models.ContentDraft, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ContentDraft, error)
	UpdateStatus(ctx context.Context, status string, draftID int64) error
	UpdateSchedule(ctx context.Context, draftID int64, publishAt time.Time) error
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type draftRepository struct {
	db *sql.DB
}

func NewDraftRepository(db *sql.DB) DraftRepository {
	return &draftRepository{db: db}
}

const draftColumns = `id, brand_id, COALESCE(topic_id, 0), title, body, seo_metadata, status, COALESCE(publish_at, 'epoch'::timestamptz), created_at, updated_at`

func (r *draftRepository) Create(ctx context.Context, tx *sql.Tx, draft *models.ContentDraft) (int64, error) {
	query := `
		INSERT INTO content_drafts (brand_id, topic_id, title, body, seo_metadata, status)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6)
		RETURNING id
	`

	seo, err := json.Marshal(draft.SEOMetadata)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, draft.BrandID, draft.TopicID, draft.Title, draft.Body, seo, draft.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, draft.BrandID, draft.TopicID, draft.Title, draft.Body, seo, draft.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *draftRepository) GetByID(ctx context.Context, id int64) (*models.ContentDraft, error) {
	query := `SELECT ` + draftColumns + ` FROM content_drafts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	draft, err := scanDraft(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return draft, nil
}

func (r *draftRepository) ListByBrandAndStatus(ctx context.Context, brandID int64, status string) ([]*models.ContentDraft, error) {
	query := `SELECT ` + draftColumns + ` FROM content_drafts WHERE brand_id = $1 AND status = $2 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, brandID, status)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectDrafts(rows)
}

func (r *draftRepository) ListByStatus(ctx context.Context, status string) ([]*models.ContentDraft, error) {
	query := `SELECT ` + draftColumns + ` FROM content_drafts WHERE status = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectDrafts(rows)
}

func (r *draftRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ContentDraft, error) {
	query := `SELECT ` + draftColumns + ` FROM content_drafts WHERE status = $1 AND publish_at <= $2 ORDER BY publish_at`
	rows, err := r.db.QueryContext(ctx, query, models.DraftStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectDrafts(rows)
}

func (r *draftRepository) UpdateStatus(ctx context.Context, status string, draftID int64) error {
	query := `
		UPDATE content_drafts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), draftID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *draftRepository) UpdateSchedule(ctx context.Context, draftID int64, publishAt time.Time) error {
	query := `
		UPDATE content_drafts
		SET status = $1,
			publish_at = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.DraftStatusScheduled, publishAt, time.Now(), draftID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *draftRepository) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM content_drafts WHERE status = ANY($1) AND updated_at < $2`
	terminal := "{" + models.DraftStatusPublished + "," + models.DraftStatusRejected + "," + models.DraftStatusFailed + "}"

	result, err := r.db.ExecContext(ctx, query, terminal, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}

func scanDraft(row rowScanner) (*models.ContentDraft, error) {
	var draft models.ContentDraft
	var seo []byte

	err := row.Scan(&draft.ID, &draft.BrandID, &draft.TopicID, &draft.Title, &draft.Body, &seo, &draft.Status, &draft.PublishAt, &draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(seo) > 0 {
		if err := json.Unmarshal(seo, &draft.SEOMetadata); err != nil {
			return nil, err
		}
	}
	return &draft, nil
}

func collectDrafts(rows *sql.Rows) ([]*models.ContentDraft, error) {
	var drafts []*models.ContentDraft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}
