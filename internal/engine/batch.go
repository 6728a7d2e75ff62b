package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getbrandflow/brandflow/internal/models"
)

type GenerateOptions struct {
	Limit       int
	AutoApprove bool
	Schedule    bool
}

type GenerateStats struct {
	Generated int `json:"generated"`
	Scheduled int `json:"scheduled"`
	Failed    int `json:"failed"`
}

// GenerateForBrand requests up to opts.Limit drafts from the generation
// service and pushes each one through the publish path. One draft's failure
// never aborts the batch.
func (e *Engine) GenerateForBrand(ctx context.Context, brand *models.Brand, opts GenerateOptions) *GenerateStats {
	stats := &GenerateStats{}
	if opts.Limit <= 0 {
		opts.Limit = brand.Settings.PostsPerDay
	}
	if opts.Limit <= 0 {
		opts.Limit = 1
	}

	topics, err := e.topics.ListByBrandAndStatus(ctx, brand.ID, models.TopicStatusDiscovered)
	if err != nil {
		slog.Info(err.Error())
	}

	for i := 0; i < opts.Limit; i++ {
		var topic *models.Topic
		if i < len(topics) {
			topic = topics[i]
		}

		if err := e.generateOne(ctx, brand, topic, opts, stats); err != nil {
			slog.Info("draft generation failed", "brand_id", brand.ID, "error", err.Error())
			stats.Failed++
		}
	}
	return stats
}

func (e *Engine) generateOne(ctx context.Context, brand *models.Brand, topic *models.Topic, opts GenerateOptions, stats *GenerateStats) error {
	generated, err := e.gen.GenerateDraft(ctx, brand, topic)
	if err != nil {
		return err
	}

	draft := &models.ContentDraft{
		BrandID: brand.ID,
		Title:   generated.Title,
		Body:    generated.Body,
		Status:  models.DraftStatusPendingReview,
	}
	if topic != nil {
		draft.TopicID = topic.ID
	}

	if seo, err := e.gen.GenerateSEOMetadata(ctx, generated.Title, generated.Body); err != nil {
		slog.Info("seo metadata generation failed", "brand_id", brand.ID, "error", err.Error())
	} else {
		draft.SEOMetadata = *seo
	}

	draftID, err := e.drafts.Create(ctx, nil, draft)
	if err != nil {
		return err
	}
	draft.ID = draftID
	stats.Generated++

	if topic != nil {
		if err := e.topics.UpdateStatus(ctx, models.TopicStatusUsed, topic.ID); err != nil {
			slog.Info(err.Error())
		}
	}

	if !opts.AutoApprove {
		return nil
	}

	result := e.gate.Moderate(ctx, draft.Body, brand)
	if !result.Passed {
		if err := e.drafts.UpdateStatus(ctx, models.DraftStatusRejected, draft.ID); err != nil {
			slog.Info(err.Error())
		}
		return fmt.Errorf("generated draft %d failed moderation", draft.ID)
	}
	if err := e.drafts.UpdateStatus(ctx, models.DraftStatusApproved, draft.ID); err != nil {
		return err
	}
	draft.Status = models.DraftStatusApproved

	outcome, err := e.PublishDraft(ctx, draft, PublishOptions{
		Schedule:         opts.Schedule,
		PublishToWebsite: true,
		PublishToSocial:  true,
	})
	if err != nil {
		return err
	}
	if outcome.Scheduled {
		stats.Scheduled++
	} else if !outcome.Success {
		return fmt.Errorf("draft %d publish failed: %s", draft.ID, outcome.Error)
	}
	return nil
}

// AutoApprove scans pending drafts and approves those whose moderation score
// clears the threshold. Drafts that fail the gate are rejected, never
// silently approved.
func (e *Engine) AutoApprove(ctx context.Context, brand *models.Brand, threshold float64) (int, error) {
	drafts, err := e.drafts.ListByBrandAndStatus(ctx, brand.ID, models.DraftStatusPendingReview)
	if err != nil {
		return 0, err
	}

	approved := 0
	for _, draft := range drafts {
		result := e.gate.Moderate(ctx, draft.Body, brand)

		if !result.Passed {
			slog.Info("rejecting draft on moderation failure", "draft_id", draft.ID, "violations", len(result.Violations))
			if err := e.drafts.UpdateStatus(ctx, models.DraftStatusRejected, draft.ID); err != nil {
				slog.Info(err.Error())
			}
			continue
		}
		if result.Score < threshold {
			continue
		}

		if err := e.drafts.UpdateStatus(ctx, models.DraftStatusApproved, draft.ID); err != nil {
			slog.Info(err.Error())
			continue
		}
		approved++
	}
	return approved, nil
}

type CleanupStats struct {
	DraftsDeleted int64 `json:"drafts_deleted"`
	TopicsExpired int64 `json:"topics_expired"`
}

// Cleanup removes terminal drafts past the retention window and expires
// stale topics. Idempotent; operates only on terminal or expired records so
// it is safe to run alongside publishing.
func (e *Engine) Cleanup(ctx context.Context, daysOld int) (*CleanupStats, error) {
	if daysOld <= 0 {
		daysOld = e.cfg.DraftRetentionDays
	}
	now := e.now()

	draftsDeleted, err := e.drafts.DeleteTerminalOlderThan(ctx, now.AddDate(0, 0, -daysOld))
	if err != nil {
		return nil, err
	}

	topicsExpired, err := e.topics.ExpireOlderThan(ctx, now.AddDate(0, 0, -e.cfg.TopicRetentionDays))
	if err != nil {
		return nil, err
	}

	return &CleanupStats{DraftsDeleted: draftsDeleted, TopicsExpired: topicsExpired}, nil
}

type DiscoveryStats struct {
	BrandID     int64             `json:"brand_id"`
	Discovered  int               `json:"discovered"`
	PerCategory map[string]int    `json:"per_category"`
	Failures    map[string]string `json:"failures,omitempty"`
}

// DiscoverTopics pulls candidate topics from every registered trend source.
// A failing category is reported in the summary and never aborts the rest.
func (e *Engine) DiscoverTopics(ctx context.Context, brand *models.Brand, limitPerCategory int) *DiscoveryStats {
	if limitPerCategory <= 0 {
		limitPerCategory = 5
	}
	stats := &DiscoveryStats{
		BrandID:     brand.ID,
		PerCategory: make(map[string]int),
		Failures:    make(map[string]string),
	}

	for _, category := range e.trendReg.Categories() {
		source, err := e.trendReg.Get(category)
		if err != nil {
			stats.Failures[category] = err.Error()
			continue
		}

		topics, err := source.Fetch(ctx, brand, limitPerCategory)
		if err != nil {
			slog.Info("trend discovery failed", "brand_id", brand.ID, "category", category, "error", err.Error())
			stats.Failures[category] = err.Error()
			continue
		}

		for _, topic := range topics {
			if _, err := e.topics.Create(ctx, topic); err != nil {
				slog.Info(err.Error())
				continue
			}
			stats.PerCategory[category]++
			stats.Discovered++
		}
	}
	return stats
}

type BatchPublishStats struct {
	Published int                       `json:"published"`
	Scheduled int                       `json:"scheduled"`
	Failed    int                       `json:"failed"`
	Outcomes  map[int64]*PublishOutcome `json:"outcomes"`
}

// PublishApproved publishes every approved draft, optionally filtered to one
// brand. Per-draft failures are collected, never fatal to the batch.
func (e *Engine) PublishApproved(ctx context.Context, brandID int64, opts PublishOptions) (*BatchPublishStats, error) {
	var drafts []*models.ContentDraft
	var err error
	if brandID != 0 {
		drafts, err = e.drafts.ListByBrandAndStatus(ctx, brandID, models.DraftStatusApproved)
	} else {
		drafts, err = e.drafts.ListByStatus(ctx, models.DraftStatusApproved)
	}
	if err != nil {
		return nil, err
	}

	stats := &BatchPublishStats{Outcomes: make(map[int64]*PublishOutcome)}
	for _, draft := range drafts {
		outcome, err := e.PublishDraft(ctx, draft, opts)
		if err != nil {
			slog.Info("draft publish errored", "draft_id", draft.ID, "error", err.Error())
			stats.Failed++
			stats.Outcomes[draft.ID] = &PublishOutcome{Success: false, Error: err.Error()}
			continue
		}
		stats.Outcomes[draft.ID] = outcome
		switch {
		case outcome.Scheduled:
			stats.Scheduled++
		case outcome.Success:
			stats.Published++
		default:
			stats.Failed++
		}
	}
	return stats, nil
}

// PublishDue dispatches scheduled drafts whose publish time has passed. The
// delay queue normally handles these; this sweep catches tasks lost to a
// redis flush.
func (e *Engine) PublishDue(ctx context.Context) (*BatchPublishStats, error) {
	drafts, err := e.drafts.ListDue(ctx, e.now())
	if err != nil {
		return nil, err
	}

	stats := &BatchPublishStats{Outcomes: make(map[int64]*PublishOutcome)}
	for _, draft := range drafts {
		outcome, err := e.PublishScheduled(ctx, draft.ID, PublishOptions{
			PublishToWebsite: true,
			PublishToSocial:  true,
		})
		if err != nil {
			slog.Info("scheduled dispatch errored", "draft_id", draft.ID, "error", err.Error())
			stats.Failed++
			continue
		}
		stats.Outcomes[draft.ID] = outcome
		if outcome.Success {
			stats.Published++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}
