package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"gridpool-service/internal/domain"
)

var testTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestContributionUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	c := domain.EventScoreContribution{
		UserID: "u1", TenantSeasonID: "league-a", EventID: "gp-1",
		Points: 15, CorrectCount: 2, AnsweredCount: 3, UpdatedAt: testTime,
	}
	if err := store.UpsertContribution(ctx, c); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	c.Points = 23
	c.CorrectCount = 3
	if err := store.UpsertContribution(ctx, c); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	contributions, err := store.ListContributionsForUser(ctx, "league-a", "u1")
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	if len(contributions) != 1 {
		t.Fatalf("expected one row per (user, tenant, event), got %d", len(contributions))
	}
	if contributions[0].Points != 23 {
		t.Fatalf("expected replaced points 23, got %d", contributions[0].Points)
	}
	if contributions[0].ID == "" {
		t.Fatalf("expected a generated contribution ID")
	}
}

func TestSaveStandingVersionCheck(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	entry := domain.StandingEntry{
		UserID: "u1", TenantSeasonID: "league-a",
		TotalPoints: 10, AnsweredCount: 1, JoinedAt: testTime, UpdatedAt: testTime,
	}
	if err := store.SaveStanding(ctx, entry); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stored, ok, err := store.GetStanding(ctx, "league-a", "u1")
	if err != nil || !ok {
		t.Fatalf("get standing: ok=%v err=%v", ok, err)
	}
	if stored.Version == 0 {
		t.Fatalf("expected version to be assigned on insert")
	}

	// a write with a stale version must conflict
	if err := store.SaveStanding(ctx, entry); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on stale version, got %v", err)
	}

	stored.TotalPoints = 20
	if err := store.SaveStanding(ctx, stored); err != nil {
		t.Fatalf("update with fresh version: %v", err)
	}
}

func TestPredictionUpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, err := store.UpsertPrediction(ctx, domain.Prediction{
		UserID: "u1", QuestionID: "q1", Answer: "Verstappen",
		CreatedAt: testTime, UpdatedAt: testTime,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	updated, err := store.UpsertPrediction(ctx, domain.Prediction{
		UserID: "u1", QuestionID: "q1", Answer: "Norris",
		CreatedAt: testTime.Add(time.Hour), UpdatedAt: testTime.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Answer != "Norris" {
		t.Fatalf("expected updated answer, got %q", updated.Answer)
	}
	if !updated.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("update must not move CreatedAt")
	}
}

func TestListEventsBySeasonOrdersByRound(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.SeedEvent(domain.Event{ID: "gp-2", Season: "2026", Round: 2, Status: domain.StatusCreated, Deadline: testTime, RaceAt: testTime.Add(time.Hour)})
	store.SeedEvent(domain.Event{ID: "gp-1", Season: "2026", Round: 1, Status: domain.StatusCreated, Deadline: testTime, RaceAt: testTime.Add(time.Hour)})
	store.SeedEvent(domain.Event{ID: "old", Season: "2025", Round: 1, Status: domain.StatusFinished, Deadline: testTime, RaceAt: testTime.Add(time.Hour)})

	events, err := store.ListEventsBySeason(ctx, "2026")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 || events[0].ID != "gp-1" || events[1].ID != "gp-2" {
		t.Fatalf("unexpected order %+v", events)
	}
}

func TestSaveEventStateOnlyTouchesLifecycleFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	deadline := testTime.Add(time.Hour)
	store.SeedEvent(domain.Event{ID: "gp-1", Season: "2026", Round: 1, Status: domain.StatusCreated, Deadline: deadline, RaceAt: deadline.Add(time.Hour)})

	launched := testTime
	err := store.SaveEventState(ctx, domain.Event{
		ID: "gp-1", Status: domain.StatusActive, LaunchedAt: &launched,
		// scheduling fields deliberately zeroed: the store must ignore them
	})
	if err != nil {
		t.Fatalf("save state: %v", err)
	}

	event, err := store.GetEvent(ctx, "gp-1")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if event.Status != domain.StatusActive || event.LaunchedAt == nil {
		t.Fatalf("lifecycle fields not saved: %+v", event)
	}
	if !event.Deadline.Equal(deadline) || event.Round != 1 {
		t.Fatalf("scheduling fields must be preserved: %+v", event)
	}
}
