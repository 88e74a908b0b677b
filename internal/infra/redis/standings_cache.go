package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"gridpool-service/internal/domain"
)

// LeaderboardSource computes a fresh ranked leaderboard on cache miss.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, tenantSeasonID string) (domain.Leaderboard, error)
}

// StandingsCache caches leaderboard snapshots in Redis, one JSON value per
// tenant season, and falls back to the source on miss. The scoring engine
// invalidates the key after every completed pass, so the TTL only bounds
// staleness if an invalidation is lost.
type StandingsCache struct {
	client *redis.Client
	source LeaderboardSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewStandingsCache(client *redis.Client, source LeaderboardSource, ttl time.Duration) *StandingsCache {
	return &StandingsCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *StandingsCache) Leaderboard(ctx context.Context, tenantSeasonID string) (domain.Leaderboard, error) {
	key := c.key(tenantSeasonID)

	if lb, ok := c.cached(ctx, key); ok {
		return lb, nil
	}

	result, err, _ := c.sf.Do(tenantSeasonID, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if lb, ok := c.cached(ctx, key); ok {
			return lb, nil
		}

		lb, err := c.source.Leaderboard(ctx, tenantSeasonID)
		if err != nil {
			return domain.Leaderboard{}, err
		}

		if raw, err := json.Marshal(lb); err == nil {
			// best-effort: a failed cache write only costs a recompute
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return lb, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// InvalidateStandings drops the cached snapshot for one tenant season.
func (c *StandingsCache) InvalidateStandings(ctx context.Context, tenantSeasonID string) error {
	return c.client.Del(ctx, c.key(tenantSeasonID)).Err()
}

func (c *StandingsCache) cached(ctx context.Context, key string) (domain.Leaderboard, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Leaderboard{}, false
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Leaderboard{}, false
	}
	return lb, true
}

func (c *StandingsCache) key(tenantSeasonID string) string {
	return "standings:" + tenantSeasonID
}

func (c *StandingsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
