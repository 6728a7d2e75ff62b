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
	linkedinAPIURL   = "https://api.linkedin.com/v2"
	linkedinTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
)

type linkedinPublisher struct {
	cfg     cfg.Config
	sc      repository.ConnectorRepository
	cipher  *secrets.Cipher
	limiter *RateLimiter
	client  *http.Client
}

func NewLinkedinPublisher(cfg cfg.Config, sc repository.ConnectorRepository, cipher *secrets.Cipher, limiter *RateLimiter) Publisher {
	return &linkedinPublisher{
		cfg:     cfg,
		sc:      sc,
		cipher:  cipher,
		limiter: limiter,
		client:  &http.Client{Timeout: cfg.PublishTimeout},
	}
}

func (p *linkedinPublisher) PlatformID() string {
	return PlatformLinkedin
}

// author URN depends on whether the connector posts as an organization or a
// person.
func authorURN(connector *models.SocialConnector) string {
	if connector.PlatformSettings.AsOrganization {
		return "urn:li:organization:" + connector.PlatformSettings.OrganizationID
	}
	return "urn:li:person:" + connector.AccountName
}

func (p *linkedinPublisher) Publish(ctx context.Context, variant *models.ContentVariant, connector *models.SocialConnector) (*PublishResult, error) {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		return nil, err
	}

	post := transfer.LinkedinUGCPost{
		Author:         authorURN(connector),
		LifecycleState: "PUBLISHED",
	}
	post.SpecificContent.ShareContent.ShareCommentary.Text = composeSocialText(variant)
	post.SpecificContent.ShareContent.ShareMediaCategory = "NONE"
	post.Visibility.MemberNetworkVisibility = "PUBLIC"

	payload, err := json.Marshal(post)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", linkedinAPIURL+"/ugcPosts", bytes.NewBuffer(payload))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("linkedin ugcPosts endpoint returned status %d", resp.StatusCode)
	}

	postID := resp.Header.Get("X-RestLi-Id")
	if postID == "" {
		var result transfer.LinkedinPostResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		postID = result.ID
	}

	if err := p.sc.TouchLastPosted(ctx, connector.ID, time.Now()); err != nil {
		slog.Info(err.Error())
	}

	return &PublishResult{
		PostID:   postID,
		URL:      fmt.Sprintf("https://www.linkedin.com/feed/update/%s", postID),
		Platform: PlatformLinkedin,
	}, nil
}

func (p *linkedinPublisher) Delete(ctx context.Context, postID string, connector *models.SocialConnector) bool {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return false
	}

	req, err := http.NewRequestWithContext(ctx, "DELETE", linkedinAPIURL+"/ugcPosts/"+postID, nil)
	if err != nil {
		slog.Info(err.Error())
		return false
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info("failed to delete linkedin post", "post_id", postID, "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		slog.Info("linkedin delete returned unexpected status", "post_id", postID, "status", resp.StatusCode)
		return false
	}
	return true
}

func (p *linkedinPublisher) GetMetrics(ctx context.Context, postID string, connector *models.SocialConnector) Metrics {
	accessToken, err := p.cipher.Decrypt(connector.AccessToken)
	if err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}

	endpoint := fmt.Sprintf("%s/socialActions/%s", linkedinAPIURL, postID)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info("failed to fetch linkedin metrics", "post_id", postID, "error", err.Error())
		return Metrics{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metrics{}
	}

	var result transfer.LinkedinSocialActions
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return Metrics{}
	}

	return Metrics{
		Likes:    result.LikesSummary.TotalLikes,
		Comments: result.CommentsSummary.AggregatedTotalComments,
	}
}

func (p *linkedinPublisher) RefreshToken(ctx context.Context, connector *models.SocialConnector) error {
	if connector.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	refreshToken, err := p.cipher.Decrypt(connector.RefreshToken)
	if err != nil {
		return err
	}

	conf := &oauth2.Config{
		ClientID:     p.cfg.LinkedinClientID,
		ClientSecret: p.cfg.LinkedinClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: linkedinTokenURL},
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

	encryptedRefreshToken := ""
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = p.cipher.Encrypt([]byte(token.RefreshToken))
		if err != nil {
			return err
		}
	}

	return p.sc.SetToken(ctx, connector.ID, encryptedAccessToken, encryptedRefreshToken, token.Expiry)
}

func (p *linkedinPublisher) CanPost(ctx context.Context, connector *models.SocialConnector) (bool, error) {
	return p.limiter.Allow(ctx, connector)
}
