package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cfg "github.com/getbrandflow/brandflow/configs"
	"github.com/getbrandflow/brandflow/internal/generation"
	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/moderation"
	"github.com/getbrandflow/brandflow/internal/publisher"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/trends"
)

var (
	ErrNotApproved    = errors.New("not approved")
	ErrDraftClaimed   = errors.New("draft publish already in progress")
	ErrNoDestinations = errors.New("no destinations selected")
)

type PublishOptions struct {
	Schedule         bool
	PublishToWebsite bool
	PublishToSocial  bool
	Platforms        []string // explicit subset; empty means every configured connector
	DryRun           bool
}

type DestinationResult struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	PostID   string `json:"post_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

type PublishOutcome struct {
	Success      bool                   `json:"success"`
	Scheduled    bool                   `json:"scheduled"`
	PublishAt    time.Time              `json:"publish_at,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Destinations []DestinationResult    `json:"destinations,omitempty"`
	Violations   []moderation.Violation `json:"violations,omitempty"`
}

// Scheduler hands a scheduled draft to the delay queue for later dispatch.
type Scheduler interface {
	EnqueuePublish(draftID int64, opts PublishOptions, publishAt time.Time) error
}

// Engine drives the content draft lifecycle from approval to delivery. The
// cadence scheduler guarantees no-overlap and single-node execution per job;
// the engine adds only in-process draft claiming, so a violated guarantee
// degrades to duplicate-publish risk, never corruption.
type Engine struct {
	cfg        cfg.Config
	brands     repository.BrandRepository
	drafts     repository.DraftRepository
	topics     repository.TopicRepository
	variants   repository.VariantRepository
	connectors repository.ConnectorRepository
	records    repository.PublishRecordRepository
	assets     repository.AssetRepository
	gate       *moderation.Gate
	gen        generation.Client
	registry   *publisher.Registry
	trendReg   *trends.Registry
	scheduler  Scheduler

	now func() time.Time

	claimMu sync.Mutex
	claims  map[int64]struct{}
}

func New(
	cfg cfg.Config,
	brands repository.BrandRepository,
	drafts repository.DraftRepository,
	topics repository.TopicRepository,
	variants repository.VariantRepository,
	connectors repository.ConnectorRepository,
	records repository.PublishRecordRepository,
	assets repository.AssetRepository,
	gate *moderation.Gate,
	gen generation.Client,
	registry *publisher.Registry,
	trendReg *trends.Registry,
	scheduler Scheduler) *Engine {
	return &Engine{
		cfg:        cfg,
		brands:     brands,
		drafts:     drafts,
		topics:     topics,
		variants:   variants,
		connectors: connectors,
		records:    records,
		assets:     assets,
		gate:       gate,
		gen:        gen,
		registry:   registry,
		trendReg:   trendReg,
		scheduler:  scheduler,
		now:        time.Now,
		claims:     make(map[int64]struct{}),
	}
}

// claim marks a draft as being published so a second concurrent operation
// cannot pick it up. Returns a release function, or ErrDraftClaimed.
func (e *Engine) claim(draftID int64) (func(), error) {
	e.claimMu.Lock()
	defer e.claimMu.Unlock()
	if _, taken := e.claims[draftID]; taken {
		return nil, ErrDraftClaimed
	}
	e.claims[draftID] = struct{}{}
	return func() {
		e.claimMu.Lock()
		delete(e.claims, draftID)
		e.claimMu.Unlock()
	}, nil
}

// PublishDraft publishes an approved draft now, or marks it scheduled when
// opts.Schedule is set. A non-approved draft fails immediately with no side
// effects. A returned error means misconfiguration; business failures are
// reported through the outcome.
func (e *Engine) PublishDraft(ctx context.Context, draft *models.ContentDraft, opts PublishOptions) (*PublishOutcome, error) {
	release, err := e.claim(draft.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if draft.Status != models.DraftStatusApproved {
		return &PublishOutcome{Success: false, Error: ErrNotApproved.Error()}, nil
	}

	brand, err := e.brands.GetByID(ctx, draft.BrandID)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, fmt.Errorf("brand %d not found for draft %d", draft.BrandID, draft.ID)
	}

	result := e.gate.Moderate(ctx, draft.Body, brand)
	if !result.Passed {
		return &PublishOutcome{
			Success:    false,
			Error:      "moderation failed",
			Violations: result.Violations,
		}, nil
	}

	destinations, err := e.resolveDestinations(ctx, brand, opts)
	if err != nil {
		return nil, err
	}
	if len(destinations) == 0 {
		return &PublishOutcome{Success: false, Error: ErrNoDestinations.Error()}, nil
	}

	if opts.DryRun {
		outcome := &PublishOutcome{Success: true}
		for _, dest := range destinations {
			outcome.Destinations = append(outcome.Destinations, DestinationResult{Platform: dest.pub.PlatformID()})
		}
		return outcome, nil
	}

	if opts.Schedule {
		publishAt := nextPublishSlot(e.now(), brand.Settings.PostsPerDay)
		if err := e.drafts.UpdateSchedule(ctx, draft.ID, publishAt); err != nil {
			return nil, err
		}
		dispatchOpts := opts
		dispatchOpts.Schedule = false
		if err := e.scheduler.EnqueuePublish(draft.ID, dispatchOpts, publishAt); err != nil {
			return nil, err
		}
		return &PublishOutcome{Success: true, Scheduled: true, PublishAt: publishAt}, nil
	}

	return e.dispatch(ctx, brand, draft, destinations)
}

// PublishScheduled is the delay-queue entry point: it dispatches a draft
// previously marked scheduled. A draft no longer in scheduled status is
// skipped, which makes redelivery harmless.
func (e *Engine) PublishScheduled(ctx context.Context, draftID int64, opts PublishOptions) (*PublishOutcome, error) {
	draft, err := e.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, fmt.Errorf("draft %d not found", draftID)
	}
	if draft.Status != models.DraftStatusScheduled {
		slog.Info("skipping draft not in scheduled status", "draft_id", draftID, "status", draft.Status)
		return &PublishOutcome{Success: false, Error: "draft is not scheduled"}, nil
	}

	release, err := e.claim(draft.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	brand, err := e.brands.GetByID(ctx, draft.BrandID)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, fmt.Errorf("brand %d not found for draft %d", draft.BrandID, draft.ID)
	}

	// Re-check the gate at dispatch time; brand policy may have changed
	// since the draft was scheduled.
	result := e.gate.Moderate(ctx, draft.Body, brand)
	if !result.Passed {
		if err := e.drafts.UpdateStatus(ctx, models.DraftStatusFailed, draft.ID); err != nil {
			slog.Info(err.Error())
		}
		return &PublishOutcome{Success: false, Error: "moderation failed", Violations: result.Violations}, nil
	}

	destinations, err := e.resolveDestinations(ctx, brand, opts)
	if err != nil {
		return nil, err
	}
	if len(destinations) == 0 {
		return &PublishOutcome{Success: false, Error: ErrNoDestinations.Error()}, nil
	}

	return e.dispatch(ctx, brand, draft, destinations)
}

type destination struct {
	pub       publisher.Publisher
	connector *models.SocialConnector
}

// resolveDestinations maps options to concrete publishers. An explicitly
// requested platform with no registered publisher or configured connector is
// a misconfiguration and raises.
func (e *Engine) resolveDestinations(ctx context.Context, brand *models.Brand, opts PublishOptions) ([]destination, error) {
	var destinations []destination

	if opts.PublishToWebsite {
		pub, err := e.registry.Get(publisher.PlatformWebsite)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, destination{pub: pub})
	}

	if !opts.PublishToSocial {
		return destinations, nil
	}

	if len(opts.Platforms) > 0 {
		for _, platform := range opts.Platforms {
			pub, err := e.registry.Get(platform)
			if err != nil {
				return nil, err
			}
			connector, err := e.connectors.GetByBrandAndPlatform(ctx, brand.ID, platform)
			if err != nil {
				return nil, err
			}
			if connector == nil {
				return nil, fmt.Errorf("%w: brand %d, platform %s", publisher.ErrMissingConnector, brand.ID, platform)
			}
			destinations = append(destinations, destination{pub: pub, connector: connector})
		}
		return destinations, nil
	}

	connectors, err := e.connectors.ListByBrand(ctx, brand.ID)
	if err != nil {
		return nil, err
	}
	for _, connector := range connectors {
		pub, err := e.registry.Get(connector.Platform)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, destination{pub: pub, connector: connector})
	}
	return destinations, nil
}

// dispatch fans out to every destination concurrently. A slow or failing
// platform only fails its own destination; the draft ends published only if
// every destination succeeded.
func (e *Engine) dispatch(ctx context.Context, brand *models.Brand, draft *models.ContentDraft, destinations []destination) (*PublishOutcome, error) {
	asset, err := e.assets.GetLatestByDraftID(ctx, draft.ID)
	if err != nil {
		slog.Info(err.Error())
	}
	mediaURL := ""
	if asset != nil {
		mediaURL = asset.FileURL
	}

	results := make([]DestinationResult, len(destinations))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10)

	for i, dest := range destinations {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, dest destination) {
			defer wg.Done()
			defer func() { <-semaphore }()

			callCtx, cancel := context.WithTimeout(ctx, e.cfg.PublishTimeout)
			defer cancel()

			results[i] = e.publishTo(callCtx, brand, draft, dest, mediaURL)
		}(i, dest)
	}
	wg.Wait()

	allSucceeded := true
	for _, r := range results {
		if !r.Success {
			allSucceeded = false
		}
		record := &models.PublishRecord{
			DraftID:  draft.ID,
			Platform: r.Platform,
			PostID:   r.PostID,
			URL:      r.URL,
		}
		if !r.Success {
			record.ErrorMessage = r.Error
		}
		if _, err := e.records.Create(ctx, record); err != nil {
			slog.Info("failed to record publish outcome", "draft_id", draft.ID, "platform", r.Platform, "error", err.Error())
		}
	}

	status := models.DraftStatusPublished
	if !allSucceeded {
		// Partial failures keep the draft addressable for manual retry.
		status = models.DraftStatusFailed
	}
	if err := e.drafts.UpdateStatus(ctx, status, draft.ID); err != nil {
		return nil, err
	}

	return &PublishOutcome{Success: allSucceeded, Destinations: results}, nil
}

// publishTo produces the platform variant, checks the rate limit and
// transmits. Every failure is folded into the destination result.
func (e *Engine) publishTo(ctx context.Context, brand *models.Brand, draft *models.ContentDraft, dest destination, mediaURL string) DestinationResult {
	platform := dest.pub.PlatformID()
	result := DestinationResult{Platform: platform}

	variant, err := e.renderVariant(ctx, brand, draft, platform, mediaURL)
	if err != nil {
		result.Error = fmt.Sprintf("variant generation failed: %v", err)
		return result
	}

	allowed, err := dest.pub.CanPost(ctx, dest.connector)
	if err != nil {
		result.Error = fmt.Sprintf("rate limit check failed: %v", err)
		return result
	}
	if !allowed {
		result.Error = "rate_limited"
		return result
	}

	published, err := dest.pub.Publish(ctx, variant, dest.connector)
	if err != nil {
		slog.Info("publish failed", "draft_id", draft.ID, "platform", platform, "error", err.Error())
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.PostID = published.PostID
	result.URL = published.URL
	return result
}

// renderVariant creates and persists the platform-specific rendering. The
// website reuses the draft body; social platforms get a generated variant.
func (e *Engine) renderVariant(ctx context.Context, brand *models.Brand, draft *models.ContentDraft, platform, mediaURL string) (*models.ContentVariant, error) {
	variant := &models.ContentVariant{
		DraftID:  draft.ID,
		Platform: platform,
		MediaURL: mediaURL,
	}

	if platform == publisher.PlatformWebsite {
		variant.Content = draft.Body
	} else {
		generated, err := e.gen.GenerateVariant(ctx, brand, draft.Body, platform)
		if err != nil {
			return nil, err
		}
		variant.Content = generated.Content
		variant.Hashtags = generated.Hashtags
		variant.Mentions = generated.Mentions
	}
	variant.CharCount = len([]rune(variant.Content))

	if _, err := e.variants.Create(ctx, variant); err != nil {
		slog.Info("failed to persist variant", "draft_id", draft.ID, "platform", platform, "error", err.Error())
	}
	return variant, nil
}

// nextPublishSlot divides the day into postsPerDay equal slots from midnight
// and returns the next slot strictly after now.
func nextPublishSlot(now time.Time, postsPerDay int) time.Time {
	if postsPerDay <= 0 {
		postsPerDay = 1
	}
	interval := 24 * time.Hour / time.Duration(postsPerDay)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	slot := midnight
	for !slot.After(now) {
		slot = slot.Add(interval)
	}
	return slot
}
