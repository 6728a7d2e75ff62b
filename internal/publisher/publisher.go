package publisher

import (
	"context"
	"errors"

	"github.com/getbrandflow/brandflow/internal/models"
)

const (
	PlatformWebsite  = "website"
	PlatformFacebook = "facebook"
	PlatformTwitter  = "twitter"
	PlatformLinkedin = "linkedin"
)

var (
	ErrNoRefreshToken   = errors.New("connector has no refresh credential")
	ErrMissingConnector = errors.New("no connector configured for platform")
)

type PublishResult struct {
	PostID   string `json:"post_id"`
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

type Metrics struct {
	Likes       int     `json:"likes"`
	Comments    int     `json:"comments"`
	Shares      int     `json:"shares"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	Engagement  float64 `json:"engagement"`
}

// Publisher is implemented once per destination platform. Publish must only
// be called for approved, moderation-passed content; it never retries
// internally. Delete and GetMetrics are best-effort. RefreshToken must be
// serialized per connector by the caller (see RateLimiter.LockConnector).
type Publisher interface {
	Publish(ctx context.Context, variant *models.ContentVariant, connector *models.SocialConnector) (*PublishResult, error)
	Delete(ctx context.Context, postID string, connector *models.SocialConnector) bool
	GetMetrics(ctx context.Context, postID string, connector *models.SocialConnector) Metrics
	RefreshToken(ctx context.Context, connector *models.SocialConnector) error
	CanPost(ctx context.Context, connector *models.SocialConnector) (bool, error)
	PlatformID() string
}
