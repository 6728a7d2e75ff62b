package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	cfg "github.com/getbrandflow/brandflow/configs"
	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/transfer"
	"github.com/getbrandflow/brandflow/pkg/secrets"
)

const facebookGraphURL = "https://graph.facebook.com/v19.0"

type facebookPublisher struct {
	cfg     cfg.Config
	sc      repository.ConnectorRepository
	cipher  *secrets.Cipher
	limiter *RateLimiter
	client  *http.Client
}

func NewFacebookPublisher(cfg cfg.Config, sc repository.ConnectorRepository, cipher *secrets.Cipher, limiter *RateLimiter) Publisher {
	return &facebookPublisher{
		cfg:     cfg,
		sc:      sc,
		cipher:  cipher,
		limiter: limiter,
		client:  &http.Client{Timeout: cfg.PublishTimeout},
	}
}

func (p *facebookPublisher) PlatformID() string {
	return PlatformFacebook
}

func (p *facebookPublisher) Publish(ctx context.Context, variant *models.ContentVariant, connector *models.SocialConnector) (*PublishResult, error) {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		return nil, err
	}

	pageID := connector.PlatformSettings.PageID
	if pageID == "" {
		return nil, errors.New("facebook connector has no page id configured")
	}

	data := url.Values{}
	data.Set("message", composeSocialText(variant))
	if variant.MediaURL != "" {
		data.Set("link", variant.MediaURL)
	}
	data.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/%s/feed", facebookGraphURL, pageID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	var result transfer.FacebookPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook feed endpoint returned status %d: %s", resp.StatusCode, result.Error.Message)
	}

	if err := p.sc.TouchLastPosted(ctx, connector.ID, time.Now()); err != nil {
		slog.Info(err.Error())
	}

	return &PublishResult{
		PostID:   result.ID,
		URL:      fmt.Sprintf("https://www.facebook.com/%s", result.ID),
		Platform: PlatformFacebook,
	}, nil
}

func (p *facebookPublisher) Delete(ctx context.Context, postID string, connector *models.SocialConnector) bool {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return false
	}

	endpoint := fmt.Sprintf("%s/%s?access_token=%s", facebookGraphURL, postID, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, "DELETE", endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info("failed to delete facebook post", "post_id", postID, "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("facebook delete returned non-200 status", "post_id", postID, "status", resp.StatusCode)
		return false
	}
	return true
}

func (p *facebookPublisher) GetMetrics(ctx context.Context, postID string, connector *models.SocialConnector) Metrics {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}

	params := url.Values{}
	params.Set("fields", "likes.summary(true),comments.summary(true),shares")
	params.Set("access_token", accessToken)

	endpoint := fmt.Sprintf("%s/%s?%s", facebookGraphURL, postID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info("failed to fetch facebook metrics", "post_id", postID, "error", err.Error())
		return Metrics{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metrics{}
	}

	var result transfer.FacebookMetricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}

	return Metrics{
		Likes:    result.Likes.Summary.TotalCount,
		Comments: result.Comments.Summary.TotalCount,
		Shares:   result.Shares.Count,
	}
}

// RefreshToken exchanges the current long-lived token for a fresh one. The
// Graph API has no separate refresh credential; the access token itself is
// the exchange input.
func (p *facebookPublisher) RefreshToken(ctx context.Context, connector *models.SocialConnector) error {
	if connector.AccessToken == "" {
		return ErrNoRefreshToken
	}

	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", p.cfg.FacebookAppID)
	params.Set("client_secret", p.cfg.FacebookAppSecret)
	params.Set("fb_exchange_token", accessToken)

	endpoint := fmt.Sprintf("%s/oauth/access_token?%s", facebookGraphURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("facebook token exchange returned status %d", resp.StatusCode)
	}

	var tokenResponse transfer.FacebookTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := p.cipher.Encrypt([]byte(tokenResponse.AccessToken))
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(time.Duration(tokenResponse.ExpiresIn) * time.Second)
	return p.sc.SetToken(ctx, connector.ID, encryptedAccessToken, "", expiresAt)
}

func (p *facebookPublisher) CanPost(ctx context.Context, connector *models.SocialConnector) (bool, error) {
	return p.limiter.Allow(ctx, connector)
}

// composeSocialText appends the variant's hashtags to its content.
func composeSocialText(variant *models.ContentVariant) string {
	if len(variant.Hashtags) == 0 {
		return variant.Content
	}
	tags := make([]string, 0, len(variant.Hashtags))
	for _, tag := range variant.Hashtags {
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	return variant.Content + "\n\n" + strings.Join(tags, " ")
}
