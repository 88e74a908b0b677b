package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gridpool-service/internal/app"
	"gridpool-service/internal/domain"
	"gridpool-service/internal/infra/memory"
)

var baseTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func seedEvent(store *memory.Store, id string, status domain.EventStatus, deadline time.Time) {
	store.SeedEvent(domain.Event{
		ID:       id,
		Season:   "2026",
		Round:    1,
		Status:   status,
		Deadline: deadline,
		RaceAt:   deadline.Add(2 * time.Hour),
	})
	store.SeedQuestion(domain.EventQuestion{
		ID: id + "-q1", EventID: id, Type: domain.QuestionDriverPick, Points: 10, Position: 1,
		Options: domain.OptionSpec{Kind: domain.OptionsRoster, Roster: "drivers"},
	})
}

func newLifecycle(store *memory.Store, now time.Time) *app.Lifecycle {
	return app.NewLifecycleWithClock(store, store, func() time.Time { return now })
}

func TestLaunchStampsLaunchedAt(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEvent(store, "gp-1", domain.StatusCreated, baseTime.Add(time.Hour))
	lc := newLifecycle(store, baseTime)

	event, err := lc.Launch(ctx, "gp-1")
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	if event.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", event.Status)
	}
	if event.LaunchedAt == nil || !event.LaunchedAt.Equal(baseTime) {
		t.Fatalf("expected launched at %v, got %v", baseTime, event.LaunchedAt)
	}
}

func TestLaunchRejectsWrongStateQuestionsAndDeadline(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	seedEvent(store, "gp-active", domain.StatusActive, baseTime.Add(time.Hour))
	lc := newLifecycle(store, baseTime)
	if _, err := lc.Launch(ctx, "gp-active"); !domain.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition for active event, got %v", err)
	}

	store.SeedEvent(domain.Event{
		ID: "gp-bare", Season: "2026", Status: domain.StatusCreated,
		Deadline: baseTime.Add(time.Hour), RaceAt: baseTime.Add(3 * time.Hour),
	})
	if _, err := lc.Launch(ctx, "gp-bare"); !domain.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition without questions, got %v", err)
	}

	seedEvent(store, "gp-late", domain.StatusCreated, baseTime.Add(-time.Minute))
	if _, err := lc.Launch(ctx, "gp-late"); !domain.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition past deadline, got %v", err)
	}
}

func TestPauseResumeFinish(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEvent(store, "gp-1", domain.StatusActive, baseTime.Add(time.Hour))
	lc := newLifecycle(store, baseTime)

	if _, err := lc.Pause(ctx, "gp-1"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if _, err := lc.Pause(ctx, "gp-1"); !domain.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition pausing a paused event, got %v", err)
	}
	if _, err := lc.Resume(ctx, "gp-1"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if _, err := lc.Finish(ctx, "gp-1"); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	// finished is terminal
	for name, fn := range map[string]func(context.Context, string) (domain.Event, error){
		"launch": lc.Launch, "pause": lc.Pause, "resume": lc.Resume, "finish": lc.Finish,
	} {
		if _, err := fn(ctx, "gp-1"); !domain.IsInvalidTransition(err) {
			t.Fatalf("%s after finish: expected invalid transition, got %v", name, err)
		}
	}
}

func TestTransitionUnknownEvent(t *testing.T) {
	ctx := context.Background()
	lc := newLifecycle(memory.NewStore(), baseTime)
	if _, err := lc.Launch(ctx, "missing"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}
}

func TestLockEnforcement(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deadline := baseTime.Add(time.Hour)
	seedEvent(store, "gp-1", domain.StatusActive, deadline)

	lc := newLifecycle(store, baseTime)
	locked, err := lc.IsLocked(ctx, "gp-1")
	if err != nil || locked {
		t.Fatalf("active event before deadline must be open, got locked=%v err=%v", locked, err)
	}
	if _, err := lc.SubmitPrediction(ctx, "u1", "gp-1-q1", "Verstappen"); err != nil {
		t.Fatalf("submit before deadline failed: %v", err)
	}

	// deadline reached: locked even while active
	atDeadline := newLifecycle(store, deadline)
	if locked, _ := atDeadline.IsLocked(ctx, "gp-1"); !locked {
		t.Fatalf("expected lock at deadline")
	}
	if _, err := atDeadline.SubmitPrediction(ctx, "u1", "gp-1-q1", "Norris"); !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("expected locked error at deadline, got %v", err)
	}

	// paused: locked even before the deadline
	if _, err := lc.Pause(ctx, "gp-1"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if locked, _ := lc.IsLocked(ctx, "gp-1"); !locked {
		t.Fatalf("expected paused event to be locked before deadline")
	}
	if _, err := lc.SubmitPrediction(ctx, "u1", "gp-1-q1", "Norris"); !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("expected locked error while paused, got %v", err)
	}

	// finished: permanently frozen
	if _, err := lc.Finish(ctx, "gp-1"); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if _, err := lc.SubmitPrediction(ctx, "u1", "gp-1-q1", "Norris"); !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("expected locked error when finished, got %v", err)
	}
}

func TestCreatedEventIsLockedForSubmission(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEvent(store, "gp-1", domain.StatusCreated, baseTime.Add(time.Hour))
	lc := newLifecycle(store, baseTime)

	if locked, _ := lc.IsLocked(ctx, "gp-1"); !locked {
		t.Fatalf("created event must be locked for submissions")
	}
	if _, err := lc.SubmitPrediction(ctx, "u1", "gp-1-q1", "Verstappen"); !errors.Is(err, domain.ErrLocked) {
		t.Fatalf("expected locked error before launch, got %v", err)
	}
}

func TestSubmitPredictionUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEvent(store, "gp-1", domain.StatusActive, baseTime.Add(time.Hour))
	lc := newLifecycle(store, baseTime)

	first, err := lc.SubmitPrediction(ctx, "u1", "gp-1-q1", "Verstappen")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	second, err := lc.SubmitPrediction(ctx, "u1", "gp-1-q1", "Norris")
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if second.Answer != "Norris" {
		t.Fatalf("expected updated answer, got %q", second.Answer)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("resubmission must keep the original creation time")
	}

	predictions, err := store.ListPredictionsForQuestions(ctx, []string{"gp-1-q1"})
	if err != nil {
		t.Fatalf("list predictions: %v", err)
	}
	if len(predictions) != 1 {
		t.Fatalf("expected a single prediction row, got %d", len(predictions))
	}
}
