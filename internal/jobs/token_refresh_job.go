package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/publisher"
	"github.com/getbrandflow/brandflow/internal/repository"
)

// TokenRefreshJob refreshes connector credentials due to expire within the
// lookahead window, strictly before token_expires_at.
type TokenRefreshJob struct {
	sc        repository.ConnectorRepository
	registry  *publisher.Registry
	limiter   *publisher.RateLimiter
	lookahead time.Duration
}

func NewTokenRefreshJob(
	sc repository.ConnectorRepository,
	registry *publisher.Registry,
	limiter *publisher.RateLimiter,
	lookahead time.Duration) *TokenRefreshJob {
	return &TokenRefreshJob{
		sc:        sc,
		registry:  registry,
		limiter:   limiter,
		lookahead: lookahead,
	}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	horizon := currentTime.Add(j.lookahead)

	connectors, err := j.sc.ListExpiring(ctx, currentTime, horizon)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, connector := range connectors {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(connector *models.SocialConnector) {
			defer wg.Done()
			defer func() { <-semaphore }()

			j.refreshOne(ctx, connector)
		}(connector)
	}

	wg.Wait()
}

// refreshOne serializes per connector so a single-use refresh token is never
// consumed twice by overlapping sweeps.
func (j *TokenRefreshJob) refreshOne(ctx context.Context, connector *models.SocialConnector) {
	pub, err := j.registry.Get(connector.Platform)
	if err != nil {
		slog.Info("cannot refresh token for unknown platform", "connector_id", connector.ID, "platform", connector.Platform)
		return
	}

	unlock := j.limiter.LockConnector(connector.ID)
	defer unlock()

	if err := pub.RefreshToken(ctx, connector); err != nil {
		slog.Info("unable to refresh token", "connector_id", connector.ID, "platform", connector.Platform, "error", err.Error())
	}
}
