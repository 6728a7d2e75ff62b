package models

import "time"

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	BrandID   int64     `db:"brand_id" json:"brand_id"`
	DraftID   int64     `db:"draft_id" json:"draft_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
