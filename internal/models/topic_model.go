package models

import "time"

type Topic struct {
	ID          int64     `db:"id" json:"id"`
	BrandID     int64     `db:"brand_id" json:"brand_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Keywords    []string  `db:"keywords" json:"keywords"`
	SourceURLs  []string  `db:"source_urls" json:"source_urls"`
	Category    string    `db:"category" json:"category"`
	Status      string    `db:"status" json:"status"`
	TrendingAt  time.Time `db:"trending_at" json:"trending_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const (
	TopicStatusDiscovered = "discovered"
	TopicStatusInProgress = "in_progress"
	TopicStatusUsed       = "used"
	TopicStatusExpired    = "expired"
)
