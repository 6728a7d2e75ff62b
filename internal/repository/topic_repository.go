package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/getbrandflow/brandflow/internal/models"
)

type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Topic, error)
	ListByBrandAndStatus(ctx context.Context, brandID int64, status string) ([]*models.Topic, error)
	UpdateStatus(ctx context.Context, status string, topicID int64) error
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type topicRepository struct {
	db *sql.DB
}

func NewTopicRepository(db *sql.DB) TopicRepository {
	return &topicRepository{db: db}
}

const topicColumns = `id, brand_id, title, description, keywords, source_urls, category, status, trending_at, created_at`

func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) (int64, error) {
	query := `
		INSERT INTO topics (brand_id, title, description, keywords, source_urls, category, status, trending_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	keywords, err := json.Marshal(topic.Keywords)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	sourceURLs, err := json.Marshal(topic.SourceURLs)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, topic.BrandID, topic.Title, topic.Description,
		keywords, sourceURLs, topic.Category, topic.Status, topic.TrendingAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *topicRepository) GetByID(ctx context.Context, id int64) (*models.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	topic, err := scanTopic(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return topic, nil
}

func (r *topicRepository) ListByBrandAndStatus(ctx context.Context, brandID int64, status string) ([]*models.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE brand_id = $1 AND status = $2 ORDER BY trending_at DESC`
	rows, err := r.db.QueryContext(ctx, query, brandID, status)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var topics []*models.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

func (r *topicRepository) UpdateStatus(ctx context.Context, status string, topicID int64) error {
	query := `UPDATE topics SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, topicID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Topics expire after the retention window whether or not they were used.
func (r *topicRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE topics SET status = $1 WHERE status != $1 AND trending_at < $2`
	result, err := r.db.ExecContext(ctx, query, models.TopicStatusExpired, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}

func scanTopic(row rowScanner) (*models.Topic, error) {
	var topic models.Topic
	var keywords, sourceURLs []byte

	err := row.Scan(&topic.ID, &topic.BrandID, &topic.Title, &topic.Description,
		&keywords, &sourceURLs, &topic.Category, &topic.Status, &topic.TrendingAt, &topic.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &topic.Keywords); err != nil {
			return nil, err
		}
	}
	if len(sourceURLs) > 0 {
		if err := json.Unmarshal(sourceURLs, &topic.SourceURLs); err != nil {
			return nil, err
		}
	}
	return &topic, nil
}
