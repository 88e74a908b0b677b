package app

import (
	"context"
	"sort"
	"time"

	"gridpool-service/internal/domain"
)

// Standings computes ranked leaderboards per tenant season and the
// cross-tenant best-performance view. Ranking is a full re-sort of all
// standing rows on every call, never an incremental patch, so the board
// stays consistent after any contribution change.
type Standings struct {
	standings StandingStore
	tenants   TenantStore
	now       func() time.Time
}

func NewStandings(standings StandingStore, tenants TenantStore) *Standings {
	return &Standings{standings: standings, tenants: tenants, now: time.Now}
}

// NewStandingsWithClock is test-only for deterministic timestamps.
func NewStandingsWithClock(standings StandingStore, tenants TenantStore, now func() time.Time) *Standings {
	return &Standings{standings: standings, tenants: tenants, now: now}
}

// Leaderboard returns the ranked scoreboard for one tenant season.
func (s *Standings) Leaderboard(ctx context.Context, tenantSeasonID string) (domain.Leaderboard, error) {
	if _, err := s.tenants.GetTenantSeason(ctx, tenantSeasonID); err != nil {
		return domain.Leaderboard{}, err
	}
	entries, err := s.standings.ListStandings(ctx, tenantSeasonID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	Rank(entries)
	return domain.Leaderboard{
		TenantSeasonID: tenantSeasonID,
		Entries:        entries,
		UpdatedAt:      s.now(),
	}, nil
}

// Rank sorts standing entries in place and assigns 1-based positions.
// Order: points descending, then fewer answered questions across the
// season, then earliest registration in the tenant season.
func Rank(entries []domain.StandingEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].AnsweredCount != entries[j].AnsweredCount {
			return entries[i].AnsweredCount < entries[j].AnsweredCount
		}
		if !entries[i].JoinedAt.Equal(entries[j].JoinedAt) {
			return entries[i].JoinedAt.Before(entries[j].JoinedAt)
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// GlobalStanding reduces a user's per-tenant standings into a single
// cross-tenant view: the best cumulative total, the tenant achieving it,
// and the number of tenant seasons the user plays in. Recomputed on every
// query; tenant counts per user are small enough that caching would only
// invite staleness.
func (s *Standings) GlobalStanding(ctx context.Context, userID string) (domain.GlobalStanding, error) {
	seasons, err := s.tenants.ListTenantSeasonsForUser(ctx, userID)
	if err != nil {
		return domain.GlobalStanding{}, err
	}
	global := domain.GlobalStanding{UserID: userID, TotalTenants: len(seasons)}
	for i, ts := range seasons {
		entry, ok, err := s.standings.GetStanding(ctx, ts.ID, userID)
		if err != nil {
			return domain.GlobalStanding{}, err
		}
		points := 0
		if ok {
			points = entry.TotalPoints
		}
		if i == 0 || points > global.BestPoints {
			global.BestPoints = points
			global.BestTenant = ts.Tenant
		}
	}
	return global, nil
}
