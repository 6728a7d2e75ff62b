package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/storage"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// websitePublisher renders a variant as a JSON document and places it on the
// brand's static site bucket. The website needs no social connector, so
// token and rate-limit capabilities are no-ops.
type websitePublisher struct {
	store *storage.R2Store
}

func NewWebsitePublisher(store *storage.R2Store) Publisher {
	return &websitePublisher{store: store}
}

func (p *websitePublisher) PlatformID() string {
	return PlatformWebsite
}

type sitePost struct {
	Slug        string   `json:"slug"`
	Content     string   `json:"content"`
	Hashtags    []string `json:"hashtags,omitempty"`
	MediaURL    string   `json:"media_url,omitempty"`
	PublishedAt string   `json:"published_at"`
}

func (p *websitePublisher) Publish(ctx context.Context, variant *models.ContentVariant, _ *models.SocialConnector) (*PublishResult, error) {
	slug, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	doc, err := json.Marshal(sitePost{
		Slug:        slug,
		Content:     variant.Content,
		Hashtags:    variant.Hashtags,
		MediaURL:    variant.MediaURL,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	key := "posts/" + slug + ".json"
	if err := p.store.Upload(ctx, key, doc, "application/json"); err != nil {
		return nil, err
	}

	return &PublishResult{
		PostID:   slug,
		URL:      p.store.PublicURL(key),
		Platform: PlatformWebsite,
	}, nil
}

func (p *websitePublisher) Delete(ctx context.Context, postID string, _ *models.SocialConnector) bool {
	if err := p.store.Delete(ctx, "posts/"+postID+".json"); err != nil {
		slog.Info("failed to unpublish site post", "post_id", postID, "error", err.Error())
		return false
	}
	return true
}

func (p *websitePublisher) GetMetrics(ctx context.Context, postID string, _ *models.SocialConnector) Metrics {
	// The site has no engagement feed of its own.
	return Metrics{}
}

func (p *websitePublisher) RefreshToken(ctx context.Context, _ *models.SocialConnector) error {
	return nil
}

func (p *websitePublisher) CanPost(ctx context.Context, _ *models.SocialConnector) (bool, error) {
	return true, nil
}
