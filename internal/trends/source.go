package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/getbrandflow/brandflow/internal/models"
)

// Source supplies candidate topics for one category (news, social, search).
type Source interface {
	Category() string
	Fetch(ctx context.Context, brand *models.Brand, limit int) ([]*models.Topic, error)
}

// Registry resolves trend sources by category, mirroring the platform
// publisher registry.
type Registry struct {
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

func (r *Registry) Register(s Source) {
	r.sources[s.Category()] = s
}

func (r *Registry) Get(category string) (Source, error) {
	s, ok := r.sources[category]
	if !ok {
		return nil, fmt.Errorf("no trend source registered for category %q", category)
	}
	return s, nil
}

func (r *Registry) Categories() []string {
	categories := make([]string, 0, len(r.sources))
	for category := range r.sources {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

type httpSource struct {
	category string
	apiURL   string
	apiKey   string
	client   *http.Client
}

func NewHTTPSource(category, apiURL, apiKey string, timeout time.Duration) Source {
	return &httpSource{
		category: category,
		apiURL:   apiURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *httpSource) Category() string {
	return s.category
}

type trendItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	SourceURLs  []string `json:"source_urls"`
}

func (s *httpSource) Fetch(ctx context.Context, brand *models.Brand, limit int) ([]*models.Topic, error) {
	params := url.Values{}
	params.Add("category", s.category)
	params.Add("audience", brand.Voice.Audience)
	params.Add("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s?%s", s.apiURL, params.Encode()), nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trend endpoint returned status %d", resp.StatusCode)
	}

	var items []trendItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	now := time.Now()
	topics := make([]*models.Topic, 0, len(items))
	for _, item := range items {
		topics = append(topics, &models.Topic{
			BrandID:     brand.ID,
			Title:       item.Title,
			Description: item.Description,
			Keywords:    item.Keywords,
			SourceURLs:  item.SourceURLs,
			Category:    s.category,
			Status:      models.TopicStatusDiscovered,
			TrendingAt:  now,
		})
	}
	return topics, nil
}
