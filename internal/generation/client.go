package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getbrandflow/brandflow/internal/models"
)

// Client is the content-generation collaborator. Failures here are
// draft-level failures; the engine never retries them.
type Client interface {
	GenerateBrief(ctx context.Context, brand *models.Brand, topic *models.Topic) (string, error)
	GenerateOutline(ctx context.Context, brand *models.Brand, brief string) (string, error)
	GenerateDraft(ctx context.Context, brand *models.Brand, topic *models.Topic) (*Draft, error)
	GenerateVariant(ctx context.Context, brand *models.Brand, body, platform string) (*Variant, error)
	ImproveContent(ctx context.Context, brand *models.Brand, body, feedback string) (string, error)
	GenerateSEOMetadata(ctx context.Context, title, body string) (*models.SEOMetadata, error)
}

type Draft struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Variant struct {
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
	Mentions []string `json:"mentions"`
}

type httpClient struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewHTTPClient(apiURL, apiKey string, timeout time.Duration) Client {
	return &httpClient{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+path, bytes.NewBuffer(body))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generation endpoint %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type brandContext struct {
	Name     string   `json:"name"`
	Tone     string   `json:"tone"`
	Audience string   `json:"audience"`
	Style    string   `json:"style"`
	Prefer   []string `json:"prefer"`
	Avoid    []string `json:"avoid"`
	Dos      []string `json:"dos"`
	Donts    []string `json:"donts"`
}

func brandCtx(brand *models.Brand) brandContext {
	return brandContext{
		Name:     brand.Name,
		Tone:     brand.Voice.Tone,
		Audience: brand.Voice.Audience,
		Style:    brand.Voice.Style,
		Prefer:   brand.Voice.Prefer,
		Avoid:    brand.Voice.Avoid,
		Dos:      brand.StyleGuide.Dos,
		Donts:    brand.StyleGuide.Donts,
	}
}

func (c *httpClient) GenerateBrief(ctx context.Context, brand *models.Brand, topic *models.Topic) (string, error) {
	payload := map[string]interface{}{
		"brand":    brandCtx(brand),
		"topic":    topic.Title,
		"keywords": topic.Keywords,
	}
	var out struct {
		Brief string `json:"brief"`
	}
	if err := c.post(ctx, "/v1/brief", payload, &out); err != nil {
		return "", err
	}
	return out.Brief, nil
}

func (c *httpClient) GenerateOutline(ctx context.Context, brand *models.Brand, brief string) (string, error) {
	payload := map[string]interface{}{
		"brand": brandCtx(brand),
		"brief": brief,
	}
	var out struct {
		Outline string `json:"outline"`
	}
	if err := c.post(ctx, "/v1/outline", payload, &out); err != nil {
		return "", err
	}
	return out.Outline, nil
}

func (c *httpClient) GenerateDraft(ctx context.Context, brand *models.Brand, topic *models.Topic) (*Draft, error) {
	payload := map[string]interface{}{
		"brand": brandCtx(brand),
	}
	if topic != nil {
		payload["topic"] = topic.Title
		payload["description"] = topic.Description
		payload["keywords"] = topic.Keywords
	}
	var out Draft
	if err := c.post(ctx, "/v1/draft", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GenerateVariant(ctx context.Context, brand *models.Brand, body, platform string) (*Variant, error) {
	payload := map[string]interface{}{
		"brand":    brandCtx(brand),
		"body":     body,
		"platform": platform,
	}
	var out Variant
	if err := c.post(ctx, "/v1/variant", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ImproveContent(ctx context.Context, brand *models.Brand, body, feedback string) (string, error) {
	payload := map[string]interface{}{
		"brand":    brandCtx(brand),
		"body":     body,
		"feedback": feedback,
	}
	var out struct {
		Body string `json:"body"`
	}
	if err := c.post(ctx, "/v1/improve", payload, &out); err != nil {
		return "", err
	}
	return out.Body, nil
}

func (c *httpClient) GenerateSEOMetadata(ctx context.Context, title, body string) (*models.SEOMetadata, error) {
	payload := map[string]interface{}{
		"title": title,
		"body":  body,
	}
	var out models.SEOMetadata
	if err := c.post(ctx, "/v1/seo", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
