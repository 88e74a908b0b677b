package app

import (
	"context"

	"gridpool-service/internal/domain"
)

// EventStore abstracts how events and their questions are stored
// (in-memory, Postgres, etc).
type EventStore interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	ListEventsBySeason(ctx context.Context, season string) ([]domain.Event, error)
	// SaveEventState persists lifecycle-owned fields only (status,
	// launched-at, notification flag); scheduling fields are external.
	SaveEventState(ctx context.Context, event domain.Event) error
	GetQuestion(ctx context.Context, questionID string) (domain.EventQuestion, error)
	ListQuestions(ctx context.Context, eventID string) ([]domain.EventQuestion, error)
}

// PredictionStore holds one answer per (user, question) pair, globally.
// The scoring engine only ever reads from it.
type PredictionStore interface {
	UpsertPrediction(ctx context.Context, p domain.Prediction) (domain.Prediction, error)
	ListPredictionsForQuestions(ctx context.Context, questionIDs []string) ([]domain.Prediction, error)
}

// ResultStore holds at most one official answer per event question.
type ResultStore interface {
	UpsertResult(ctx context.Context, r domain.OfficialResult) (domain.OfficialResult, error)
	ListResultsForEvent(ctx context.Context, eventID string) ([]domain.OfficialResult, error)
}

// TenantStore supplies tenant-season records and membership lists.
type TenantStore interface {
	GetTenantSeason(ctx context.Context, tenantSeasonID string) (domain.TenantSeason, error)
	ListTenantSeasonsBySeason(ctx context.Context, season string) ([]domain.TenantSeason, error)
	ListTenantSeasonsForUser(ctx context.Context, userID string) ([]domain.TenantSeason, error)
}

// StandingStore persists score contributions and standing entries.
// UpsertContribution replaces the (user, tenant, event) row wholesale;
// SaveStanding must fail with domain.ErrConflict when the entry's version
// no longer matches the stored one.
type StandingStore interface {
	UpsertContribution(ctx context.Context, c domain.EventScoreContribution) error
	ListContributionsForUser(ctx context.Context, tenantSeasonID, userID string) ([]domain.EventScoreContribution, error)
	GetStanding(ctx context.Context, tenantSeasonID, userID string) (domain.StandingEntry, bool, error)
	SaveStanding(ctx context.Context, entry domain.StandingEntry) error
	ListStandings(ctx context.Context, tenantSeasonID string) ([]domain.StandingEntry, error)
}
