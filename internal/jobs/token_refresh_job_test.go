package job

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/publisher"
)

type expiringRepo struct {
	connectors []*models.SocialConnector
	listErr    error
}

func (r *expiringRepo) Create(ctx context.Context, tx *sql.Tx, sc *models.SocialConnector) (int64, error) {
	return 0, nil
}

func (r *expiringRepo) GetByID(ctx context.Context, id int64) (*models.SocialConnector, error) {
	return nil, nil
}

func (r *expiringRepo) GetByBrandAndPlatform(ctx context.Context, brandID int64, platform string) (*models.SocialConnector, error) {
	return nil, nil
}

func (r *expiringRepo) ListByBrand(ctx context.Context, brandID int64) ([]*models.SocialConnector, error) {
	return nil, nil
}

func (r *expiringRepo) ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialConnector, error) {
	return r.connectors, r.listErr
}

func (r *expiringRepo) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}

func (r *expiringRepo) UpdateRateCounters(ctx context.Context, id int64, postsThisHour int, hourStart time.Time, postsToday int, dayStart time.Time) error {
	return nil
}

func (r *expiringRepo) TouchLastPosted(ctx context.Context, id int64, postedAt time.Time) error {
	return nil
}

func (r *expiringRepo) Remove(ctx context.Context, id int64) error {
	return nil
}

type refreshingPublisher struct {
	platform string

	mu        sync.Mutex
	refreshed []int64
	err       error
}

func (p *refreshingPublisher) Publish(ctx context.Context, variant *models.ContentVariant, connector *models.SocialConnector) (*publisher.PublishResult, error) {
	return nil, errors.New("not used")
}

func (p *refreshingPublisher) Delete(ctx context.Context, postID string, connector *models.SocialConnector) bool {
	return false
}

func (p *refreshingPublisher) GetMetrics(ctx context.Context, postID string, connector *models.SocialConnector) publisher.Metrics {
	return publisher.Metrics{}
}

func (p *refreshingPublisher) RefreshToken(ctx context.Context, connector *models.SocialConnector) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.refreshed = append(p.refreshed, connector.ID)
	return nil
}

func (p *refreshingPublisher) CanPost(ctx context.Context, connector *models.SocialConnector) (bool, error) {
	return true, nil
}

func (p *refreshingPublisher) PlatformID() string {
	return p.platform
}

func TestRefreshTokensRefreshesExpiring(t *testing.T) {
	twitter := &refreshingPublisher{platform: publisher.PlatformTwitter}
	facebook := &refreshingPublisher{platform: publisher.PlatformFacebook}
	repo := &expiringRepo{connectors: []*models.SocialConnector{
		{ID: 1, Platform: publisher.PlatformTwitter},
		{ID: 2, Platform: publisher.PlatformFacebook},
		{ID: 3, Platform: publisher.PlatformTwitter},
	}}

	jobRunner := NewTokenRefreshJob(repo,
		publisher.NewRegistry(twitter, facebook),
		publisher.NewRateLimiter(repo),
		30*time.Minute)
	jobRunner.RefreshTokens()

	assert.ElementsMatch(t, []int64{1, 3}, twitter.refreshed)
	assert.ElementsMatch(t, []int64{2}, facebook.refreshed)
}

func TestRefreshTokensSkipsUnknownPlatform(t *testing.T) {
	twitter := &refreshingPublisher{platform: publisher.PlatformTwitter}
	repo := &expiringRepo{connectors: []*models.SocialConnector{
		{ID: 1, Platform: "myspace"},
		{ID: 2, Platform: publisher.PlatformTwitter},
	}}

	jobRunner := NewTokenRefreshJob(repo,
		publisher.NewRegistry(twitter),
		publisher.NewRateLimiter(repo),
		30*time.Minute)
	jobRunner.RefreshTokens()

	assert.ElementsMatch(t, []int64{2}, twitter.refreshed, "unknown platform must be skipped, not fatal")
}

func TestRefreshTokensToleratesFailures(t *testing.T) {
	twitter := &refreshingPublisher{platform: publisher.PlatformTwitter, err: errors.New("invalid_grant")}
	facebook := &refreshingPublisher{platform: publisher.PlatformFacebook}
	repo := &expiringRepo{connectors: []*models.SocialConnector{
		{ID: 1, Platform: publisher.PlatformTwitter},
		{ID: 2, Platform: publisher.PlatformFacebook},
	}}

	jobRunner := NewTokenRefreshJob(repo,
		publisher.NewRegistry(twitter, facebook),
		publisher.NewRateLimiter(repo),
		30*time.Minute)
	jobRunner.RefreshTokens()

	assert.ElementsMatch(t, []int64{2}, facebook.refreshed)
}

func TestRefreshTokensListFailureIsNonFatal(t *testing.T) {
	repo := &expiringRepo{listErr: errors.New("connection refused")}
	jobRunner := NewTokenRefreshJob(repo,
		publisher.NewRegistry(),
		publisher.NewRateLimiter(repo),
		30*time.Minute)

	assert.NotPanics(t, func() { jobRunner.RefreshTokens() })
}
