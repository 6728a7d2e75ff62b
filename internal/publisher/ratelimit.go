package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/getbrandflow/brandflow/internal/models"
	"github.com/getbrandflow/brandflow/internal/repository"
)

// keyedLocks hands out one mutex per connector identity. The lock domain
// covers rate-limit check-and-increment and token refresh bookkeeping; it is
// never held across a platform API call.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[int64]*sync.Mutex)}
}

func (k *keyedLocks) get(id int64) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	return l
}

// RateLimiter enforces per-connector hour and day posting quotas. Counters
// roll over on natural hour/day boundaries and never go negative.
type RateLimiter struct {
	repo  repository.ConnectorRepository
	locks *keyedLocks
	now   func() time.Time
}

func NewRateLimiter(repo repository.ConnectorRepository) *RateLimiter {
	return &RateLimiter{
		repo:  repo,
		locks: newKeyedLocks(),
		now:   time.Now,
	}
}

// Allow atomically checks the connector's sliding hour/day counters and, if
// posting is permitted, increments both and persists the new counts. The
// connector is mutated in place so the caller sees current counters.
func (rl *RateLimiter) Allow(ctx context.Context, sc *models.SocialConnector) (bool, error) {
	lock := rl.locks.get(sc.ID)
	lock.Lock()
	defer lock.Unlock()

	now := rl.now()
	hourStart := now.Truncate(time.Hour)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	postsThisHour := sc.PostsThisHour
	if !sc.HourWindowStart.Equal(hourStart) {
		postsThisHour = 0
	}
	postsToday := sc.PostsToday
	if !sc.DayWindowStart.Equal(dayStart) {
		postsToday = 0
	}

	if limit := sc.RateLimits.PostsPerHour; limit > 0 && postsThisHour >= limit {
		return false, nil
	}
	if limit := sc.RateLimits.PostsPerDay; limit > 0 && postsToday >= limit {
		return false, nil
	}

	postsThisHour++
	postsToday++

	if err := rl.repo.UpdateRateCounters(ctx, sc.ID, postsThisHour, hourStart, postsToday, dayStart); err != nil {
		return false, err
	}

	sc.PostsThisHour = postsThisHour
	sc.HourWindowStart = hourStart
	sc.PostsToday = postsToday
	sc.DayWindowStart = dayStart

	return true, nil
}

// LockConnector serializes an operation (token refresh) on one connector.
// The returned function releases the lock.
func (rl *RateLimiter) LockConnector(id int64) func() {
	lock := rl.locks.get(id)
	lock.Lock()
	return lock.Unlock
}
