package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"gridpool-service/internal/domain"
)

type countingSource struct {
	calls int
	lb    domain.Leaderboard
}

func (s *countingSource) Leaderboard(_ context.Context, tenantSeasonID string) (domain.Leaderboard, error) {
	s.calls++
	lb := s.lb
	lb.TenantSeasonID = tenantSeasonID
	return lb, nil
}

func newTestCache(t *testing.T) (*StandingsCache, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &countingSource{lb: domain.Leaderboard{
		Entries: []domain.StandingEntry{
			{UserID: "u1", TotalPoints: 23, Rank: 1},
			{UserID: "u2", TotalPoints: 10, Rank: 2},
		},
		UpdatedAt: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}}
	return NewStandingsCache(client, source, time.Minute), source, mr
}

func TestLeaderboardCachesSnapshot(t *testing.T) {
	ctx := context.Background()
	cache, source, mr := newTestCache(t)

	lb, err := cache.Leaderboard(ctx, "league-a")
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if len(lb.Entries) != 2 || lb.Entries[0].UserID != "u1" {
		t.Fatalf("unexpected snapshot %+v", lb.Entries)
	}
	if !mr.Exists("standings:league-a") {
		t.Fatalf("expected cached key after miss")
	}

	if _, err := cache.Leaderboard(ctx, "league-a"); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected a single source call, got %d", source.calls)
	}
}

func TestInvalidateStandingsForcesRecompute(t *testing.T) {
	ctx := context.Background()
	cache, source, mr := newTestCache(t)

	if _, err := cache.Leaderboard(ctx, "league-a"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := cache.InvalidateStandings(ctx, "league-a"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("standings:league-a") {
		t.Fatalf("expected key to be dropped")
	}

	if _, err := cache.Leaderboard(ctx, "league-a"); err != nil {
		t.Fatalf("read after invalidate: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected recompute after invalidation, got %d calls", source.calls)
	}
}

func TestCacheKeysAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	cache, source, _ := newTestCache(t)

	if _, err := cache.Leaderboard(ctx, "league-a"); err != nil {
		t.Fatalf("league-a read: %v", err)
	}
	lb, err := cache.Leaderboard(ctx, "league-b")
	if err != nil {
		t.Fatalf("league-b read: %v", err)
	}
	if lb.TenantSeasonID != "league-b" {
		t.Fatalf("expected league-b snapshot, got %s", lb.TenantSeasonID)
	}
	if source.calls != 2 {
		t.Fatalf("expected one source call per tenant, got %d", source.calls)
	}
}
