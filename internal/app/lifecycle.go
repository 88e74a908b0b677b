package app

import (
	"context"
	"time"

	"gridpool-service/internal/domain"
)

// Lifecycle owns event state transitions and the deadline lock that gates
// every prediction write.
type Lifecycle struct {
	events      EventStore
	predictions PredictionStore
	now         func() time.Time
}

func NewLifecycle(events EventStore, predictions PredictionStore) *Lifecycle {
	return &Lifecycle{events: events, predictions: predictions, now: time.Now}
}

// NewLifecycleWithClock is test-only for deterministic timestamps.
func NewLifecycleWithClock(events EventStore, predictions PredictionStore, now func() time.Time) *Lifecycle {
	return &Lifecycle{events: events, predictions: predictions, now: now}
}

// Launch moves a created event to active, stamping the launch time. It
// requires at least one attached question and a deadline still in the
// future; broadcast delivery stays with the external notifier, the event
// only keeps the "notifications still owed" flag.
func (l *Lifecycle) Launch(ctx context.Context, eventID string) (domain.Event, error) {
	event, err := l.events.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	if event.Status != domain.StatusCreated {
		return domain.Event{}, &domain.InvalidTransitionError{EventID: eventID, From: event.Status, Requested: domain.StatusActive}
	}
	questions, err := l.events.ListQuestions(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	if len(questions) == 0 {
		return domain.Event{}, &domain.InvalidTransitionError{EventID: eventID, From: event.Status, Requested: domain.StatusActive, Reason: "no questions attached"}
	}
	now := l.now()
	if !now.Before(event.Deadline) {
		return domain.Event{}, &domain.InvalidTransitionError{EventID: eventID, From: event.Status, Requested: domain.StatusActive, Reason: "deadline already passed"}
	}

	event.Status = domain.StatusActive
	event.LaunchedAt = &now
	if err := l.events.SaveEventState(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

// Pause suspends an active event. Existing predictions are preserved; no
// new writes are accepted while paused, regardless of the deadline.
func (l *Lifecycle) Pause(ctx context.Context, eventID string) (domain.Event, error) {
	return l.transition(ctx, eventID, domain.StatusPaused, domain.StatusActive)
}

// Resume reactivates a paused event.
func (l *Lifecycle) Resume(ctx context.Context, eventID string) (domain.Event, error) {
	return l.transition(ctx, eventID, domain.StatusActive, domain.StatusPaused)
}

// Finish ends an active or paused event. Finished is terminal; predictions
// are permanently frozen.
func (l *Lifecycle) Finish(ctx context.Context, eventID string) (domain.Event, error) {
	return l.transition(ctx, eventID, domain.StatusFinished, domain.StatusActive, domain.StatusPaused)
}

func (l *Lifecycle) transition(ctx context.Context, eventID string, to domain.EventStatus, from ...domain.EventStatus) (domain.Event, error) {
	event, err := l.events.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	allowed := false
	for _, s := range from {
		if event.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.Event{}, &domain.InvalidTransitionError{EventID: eventID, From: event.Status, Requested: to}
	}
	event.Status = to
	if err := l.events.SaveEventState(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

// IsLocked is the single gate consulted before accepting or editing a
// prediction for any question of the event.
func (l *Lifecycle) IsLocked(ctx context.Context, eventID string) (bool, error) {
	event, err := l.events.GetEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	return event.Locked(l.now()), nil
}

// SubmitPrediction records or updates a user's answer to one question,
// rejecting the write with domain.ErrLocked when the owning event's gate
// is closed.
func (l *Lifecycle) SubmitPrediction(ctx context.Context, userID, questionID, answer string) (domain.Prediction, error) {
	question, err := l.events.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Prediction{}, err
	}
	event, err := l.events.GetEvent(ctx, question.EventID)
	if err != nil {
		return domain.Prediction{}, err
	}
	now := l.now()
	if event.Locked(now) {
		return domain.Prediction{}, domain.ErrLocked
	}
	return l.predictions.UpsertPrediction(ctx, domain.Prediction{
		UserID:     userID,
		QuestionID: questionID,
		Answer:     answer,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}
