package job

import (
	"context"
	"log/slog"

	cfg "github.com/getbrandflow/brandflow/configs"
	"github.com/getbrandflow/brandflow/internal/engine"
	"github.com/getbrandflow/brandflow/internal/repository"
)

// CadenceJobs are the scheduler-invoked recurring tasks: discovery,
// generation, auto-approval, cleanup, and the scheduled-dispatch sweep. The
// job runner provides no-overlap and single-node guarantees; these bodies
// only iterate brands and delegate to the engine.
type CadenceJobs struct {
	cfg    cfg.Config
	brands repository.BrandRepository
	engine *engine.Engine
}

func NewCadenceJobs(cfg cfg.Config, brands repository.BrandRepository, e *engine.Engine) *CadenceJobs {
	return &CadenceJobs{cfg: cfg, brands: brands, engine: e}
}

func (j *CadenceJobs) DiscoverTopics() {
	ctx := context.Background()

	brands, err := j.brands.ListActive(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, brand := range brands {
		stats := j.engine.DiscoverTopics(ctx, brand, 5)
		slog.Info("topic discovery run finished", "brand_id", brand.ID, "discovered", stats.Discovered, "failures", len(stats.Failures))
	}
}

func (j *CadenceJobs) GenerateContent() {
	ctx := context.Background()

	brands, err := j.brands.ListActive(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, brand := range brands {
		stats := j.engine.GenerateForBrand(ctx, brand, engine.GenerateOptions{
			Limit:       brand.Settings.PostsPerDay,
			AutoApprove: brand.Settings.AutoApprove,
			Schedule:    true,
		})
		slog.Info("generation run finished", "brand_id", brand.ID,
			"generated", stats.Generated, "scheduled", stats.Scheduled, "failed", stats.Failed)
	}
}

func (j *CadenceJobs) AutoApprove() {
	ctx := context.Background()

	brands, err := j.brands.ListActive(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, brand := range brands {
		count, err := j.engine.AutoApprove(ctx, brand, j.cfg.AutoApproveThreshold)
		if err != nil {
			slog.Info("auto-approve run failed", "brand_id", brand.ID, "error", err.Error())
			continue
		}
		slog.Info("auto-approve run finished", "brand_id", brand.ID, "approved", count)
	}
}

func (j *CadenceJobs) Cleanup() {
	ctx := context.Background()

	stats, err := j.engine.Cleanup(ctx, j.cfg.DraftRetentionDays)
	if err != nil {
		slog.Info("cleanup run failed", "error", err.Error())
		return
	}
	slog.Info("cleanup run finished", "drafts_deleted", stats.DraftsDeleted, "topics_expired", stats.TopicsExpired)
}

// PublishDue catches scheduled drafts whose queue task was lost.
func (j *CadenceJobs) PublishDue() {
	ctx := context.Background()

	stats, err := j.engine.PublishDue(ctx)
	if err != nil {
		slog.Info("scheduled dispatch sweep failed", "error", err.Error())
		return
	}
	if stats.Published > 0 || stats.Failed > 0 {
		slog.Info("scheduled dispatch sweep finished", "published", stats.Published, "failed", stats.Failed)
	}
}
