package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	cfg "github.com/getbrandflow/brandflow/configs"
	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/transfer"
	"github.com/getbrandflow/brandflow/pkg/secrets"
	"golang.org/x/oauth2"
)

const (
	twitterAPIURL   = "https://api.twitter.com/2"
	twitterTokenURL = "https://api.twitter.com/2/oauth2/token"
)

type twitterPublisher struct {
	cfg     cfg.Config
	sc      repository.ConnectorRepository
	cipher  *secrets.Cipher
	limiter *RateLimiter
	client  *http.Client
}

func NewTwitterPublisher(cfg cfg.Config, sc repository.ConnectorRepository, cipher *secrets.Cipher, limiter *RateLimiter) Publisher {
	return &twitterPublisher{
		cfg:     cfg,
		sc:      sc,
		cipher:  cipher,
		limiter: limiter,
		client:  &http.Client{Timeout: cfg.PublishTimeout},
	}
}

func (p *twitterPublisher) PlatformID() string {
	return PlatformTwitter
}

func (p *twitterPublisher) Publish(ctx context.Context, variant *models.ContentVariant, connector *models.SocialConnector) (*PublishResult, error) {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(transfer.TweetRequest{Text: composeSocialText(variant)})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", twitterAPIURL+"/tweets", bytes.NewBuffer(payload))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	var result transfer.TweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter tweets endpoint returned status %d: %s", resp.StatusCode, result.Detail)
	}

	if err := p.sc.TouchLastPosted(ctx, connector.ID, time.Now()); err != nil {
		slog.Info(err.Error())
	}

	return &PublishResult{
		PostID:   result.Data.ID,
		URL:      fmt.Sprintf("https://twitter.com/i/web/status/%s", result.Data.ID),
		Platform: PlatformTwitter,
	}, nil
}

func (p *twitterPublisher) Delete(ctx context.Context, postID string, connector *models.SocialConnector) bool {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return false
	}

	req, err := http.NewRequestWithContext(ctx, "DELETE", twitterAPIURL+"/tweets/"+postID, nil)
	if err != nil {
		slog.Info(err.Error())
		return false
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info("failed to delete tweet", "post_id", postID, "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("twitter delete returned non-200 status", "post_id", postID, "status", resp.StatusCode)
		return false
	}
	return true
}

func (p *twitterPublisher) GetMetrics(ctx context.Context, postID string, connector *models.SocialConnector) Metrics {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}

	endpoint := fmt.Sprintf("%s/tweets/%s?tweet.fields=public_metrics", twitterAPIURL, postID)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info("failed to fetch tweet metrics", "post_id", postID, "error", err.Error())
		return Metrics{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metrics{}
	}

	var result transfer.TweetMetricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}

	pm := result.Data.PublicMetrics
	return Metrics{
		Likes:       pm.LikeCount,
		Comments:    pm.ReplyCount,
		Shares:      pm.RetweetCount,
		Impressions: pm.ImpressionCount,
	}
}

func (p *twitterPublisher) RefreshToken(ctx context.Context, connector *models.SocialConnector) error {
	if connector.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	refreshToken, err := p.cipher.Decrypt(connector.RefreshToken)
	if err != nil {
		return err
	}

	conf := &oauth2.Config{
		ClientID:     p.cfg.TwitterClientID,
		ClientSecret: p.cfg.TwitterClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: twitterTokenURL},
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := p.cipher.Encrypt([]byte(token.AccessToken))
	if err != nil {
		return err
	}

	// Twitter rotates the refresh token on every exchange.
	encryptedRefreshToken := ""
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = p.cipher.Encrypt([]byte(token.RefreshToken))
		if err != nil {
			return err
		}
	}

	return p.sc.SetToken(ctx, connector.ID, encryptedAccessToken, encryptedRefreshToken, token.Expiry)
}

func (p *twitterPublisher) CanPost(ctx context.Context, connector *models.SocialConnector) (bool, error) {
	return p.limiter.Allow(ctx, connector)
}
