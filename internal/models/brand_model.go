package models

import "time"

type BrandVoice struct {
	Tone     string   `json:"tone"`
	Audience string   `json:"audience"`
	Style    string   `json:"style"`
	Prefer   []string `json:"prefer"`
	Avoid    []string `json:"avoid"`
}

type StyleGuide struct {
	Dos       []string `json:"dos"`
	Donts     []string `json:"donts"`
	Blocklist []string `json:"blocklist"`
}

type BrandSettings struct {
	PostsPerDay      int      `json:"posts_per_day"`
	AutoApprove      bool     `json:"auto_approve"`
	RequiredKeywords []string `json:"required_keywords"`
}

type Brand struct {
	ID         int64         `db:"id" json:"id"`
	Name       string        `db:"name" json:"name"`
	Active     bool          `db:"active" json:"active"`
	Voice      BrandVoice    `db:"voice" json:"voice"`
	StyleGuide StyleGuide    `db:"style_guide" json:"style_guide"`
	Settings   BrandSettings `db:"settings" json:"settings"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}
