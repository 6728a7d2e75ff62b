package models

import "time"

type RateLimits struct {
	PostsPerHour int `json:"posts_per_hour"`
	PostsPerDay  int `json:"posts_per_day"`
}

type PlatformSettings struct {
	PageID         string `json:"page_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	AsOrganization bool   `json:"as_organization,omitempty"`
}

type SocialConnector struct {
	ID               int64            `db:"id" json:"id"`
	BrandID          int64            `db:"brand_id" json:"brand_id"`
	Platform         string           `db:"platform" json:"platform"`
	AccountName      string           `db:"account_name" json:"account_name"`
	AccessToken      string           `db:"access_token" json:"-"`
	RefreshToken     string           `db:"refresh_token" json:"-"`
	TokenExpiresAt   time.Time        `db:"token_expires_at" json:"token_expires_at"`
	RateLimits       RateLimits       `db:"rate_limits" json:"rate_limits"`
	PostsThisHour    int              `db:"posts_this_hour" json:"posts_this_hour"`
	HourWindowStart  time.Time        `db:"hour_window_start" json:"hour_window_start"`
	PostsToday       int              `db:"posts_today" json:"posts_today"`
	DayWindowStart   time.Time        `db:"day_window_start" json:"day_window_start"`
	LastPostedAt     time.Time        `db:"last_posted_at" json:"last_posted_at"`
	PlatformSettings PlatformSettings `db:"platform_settings" json:"platform_settings"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}
