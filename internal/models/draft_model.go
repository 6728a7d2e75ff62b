package models

import "time"

type SEOMetadata struct {
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
	Slug            string   `json:"slug"`
}

type ContentDraft struct {
	ID          int64       `db:"id" json:"id"`
	BrandID     int64       `db:"brand_id" json:"brand_id"`
	TopicID     int64       `db:"topic_id" json:"topic_id"` // 0 when the draft has no origin topic
	Title       string      `db:"title" json:"title"`
	Body        string      `db:"body" json:"body"`
	SEOMetadata SEOMetadata `db:"seo_metadata" json:"seo_metadata"`
	Status      string      `db:"status" json:"status"`
	PublishAt   time.Time   `db:"publish_at" json:"publish_at"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

const (
	DraftStatusDraft         = "draft"
	DraftStatusPendingReview = "pending_review"
	DraftStatusApproved      = "approved"
	DraftStatusRejected      = "rejected"
	DraftStatusPublished     = "published"
	DraftStatusScheduled     = "scheduled"
	DraftStatusFailed        = "failed"
)

// Variants are immutable once produced; a new rendering replaces rather
// than edits an existing row.
type ContentVariant struct {
	ID        int64     `db:"id" json:"id"`
	DraftID   int64     `db:"draft_id" json:"draft_id"`
	Platform  string    `db:"platform" json:"platform"`
	Content   string    `db:"content" json:"content"`
	Hashtags  []string  `db:"hashtags" json:"hashtags"`
	Mentions  []string  `db:"mentions" json:"mentions"`
	CharCount int       `db:"char_count" json:"char_count"`
	MediaURL  string    `db:"media_url" json:"media_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PublishRecord is the per-destination outcome of one publish attempt.
type PublishRecord struct {
	ID           int64     `db:"id" json:"id"`
	DraftID      int64     `db:"draft_id" json:"draft_id"`
	Platform     string    `db:"platform" json:"platform"`
	PostID       string    `db:"post_id" json:"post_id"`
	URL          string    `db:"url" json:"url"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
