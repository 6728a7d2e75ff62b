package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Classifier scores content for toxicity. Implementations call out to an
// external moderation service; errors are surfaced so the gate can decide
// its fail-open policy.
type Classifier interface {
	Classify(ctx context.Context, content string) (bool, error)
}

type httpClassifier struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewHTTPClassifier(apiURL, apiKey string, timeout time.Duration) Classifier {
	return &httpClassifier{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Input string `json:"input"`
}

type classifyResponse struct {
	Results []struct {
		Flagged bool `json:"flagged"`
	} `json:"results"`
}

func (c *httpClassifier) Classify(ctx context.Context, content string) (bool, error) {
	body, err := json.Marshal(classifyRequest{Input: content})
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(body))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("moderation endpoint returned status %d", resp.StatusCode)
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return false, err
	}
	if len(result.Results) == 0 {
		return false, errors.New("moderation endpoint returned empty result")
	}

	return result.Results[0].Flagged, nil
}
