package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"gridpool-service/internal/domain"
)

// StandingsCacheInvalidator drops any cached leaderboard snapshot for a
// tenant season after its standings change.
type StandingsCacheInvalidator interface {
	InvalidateStandings(ctx context.Context, tenantSeasonID string) error
}

// Scoring converts official answers into per-user contributions and
// tenant-scoped standings. Every pass is idempotent: contributions are
// replaced, never incremented, and standing totals are rebuilt from the
// full contribution set, so re-running after an official-answer correction
// fully supersedes the previous pass.
type Scoring struct {
	events      EventStore
	predictions PredictionStore
	results     ResultStore
	tenants     TenantStore
	standings   StandingStore
	board       *Standings
	notifier    *StandingsNotifier
	cache       StandingsCacheInvalidator
	now         func() time.Time
}

func NewScoring(events EventStore, predictions PredictionStore, results ResultStore, tenants TenantStore, standings StandingStore, board *Standings) *Scoring {
	return &Scoring{
		events:      events,
		predictions: predictions,
		results:     results,
		tenants:     tenants,
		standings:   standings,
		board:       board,
		now:         time.Now,
	}
}

// WithNotifier publishes a leaderboard snapshot after each completed pass.
func (s *Scoring) WithNotifier(n *StandingsNotifier) *Scoring {
	s.notifier = n
	return s
}

// WithCacheInvalidator drops cached snapshots after each completed pass.
func (s *Scoring) WithCacheInvalidator(c StandingsCacheInvalidator) *Scoring {
	s.cache = c
	return s
}

// WithClock is test-only for deterministic timestamps.
func (s *Scoring) WithClock(now func() time.Time) *Scoring {
	s.now = now
	return s
}

// EnterResult records the official answer for one question. Corrections
// overwrite in place; callers re-run scoring to propagate them.
func (s *Scoring) EnterResult(ctx context.Context, questionID, answer, enteredBy string) (domain.OfficialResult, error) {
	if _, err := s.events.GetQuestion(ctx, questionID); err != nil {
		return domain.OfficialResult{}, err
	}
	return s.results.UpsertResult(ctx, domain.OfficialResult{
		QuestionID: questionID,
		Answer:     answer,
		EnteredBy:  enteredBy,
		UpdatedAt:  s.now(),
	})
}

// ProcessEventResults recomputes one event's contribution to every
// participating user's standing within one tenant season. Partial official
// results are allowed: unresolved questions simply cannot be correct.
func (s *Scoring) ProcessEventResults(ctx context.Context, eventID, tenantSeasonID string) ([]domain.PerUserResult, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	season, err := s.tenants.GetTenantSeason(ctx, tenantSeasonID)
	if err != nil {
		return nil, err
	}

	questions, err := s.events.ListQuestions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	official, err := s.results.ListResultsForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	officialByQuestion := make(map[string]string, len(official))
	for _, r := range official {
		officialByQuestion[r.QuestionID] = r.Answer
	}

	questionIDs := make([]string, 0, len(questions))
	questionByID := make(map[string]domain.EventQuestion, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
		questionByID[q.ID] = q
	}
	predictions, err := s.predictions.ListPredictionsForQuestions(ctx, questionIDs)
	if err != nil {
		return nil, err
	}

	perUser := make(map[string]*domain.PerUserResult)
	for _, p := range predictions {
		if !season.HasMember(p.UserID) {
			continue
		}
		question, ok := questionByID[p.QuestionID]
		if !ok {
			continue
		}
		result, ok := perUser[p.UserID]
		if !ok {
			result = &domain.PerUserResult{UserID: p.UserID}
			perUser[p.UserID] = result
		}
		result.TotalPredictions++
		if IsCorrect(question.Type, p.Answer, officialByQuestion[question.ID]) {
			result.CorrectCount++
			result.TotalPoints += question.Points
		}
	}

	now := s.now()
	results := make([]domain.PerUserResult, 0, len(perUser))
	for userID, result := range perUser {
		contribution := domain.EventScoreContribution{
			UserID:         userID,
			TenantSeasonID: tenantSeasonID,
			EventID:        event.ID,
			Points:         result.TotalPoints,
			CorrectCount:   result.CorrectCount,
			AnsweredCount:  result.TotalPredictions,
			UpdatedAt:      now,
		}
		if err := s.standings.UpsertContribution(ctx, contribution); err != nil {
			return nil, fmt.Errorf("write contribution for user %s: %w", userID, err)
		}
		if err := s.rebuildStanding(ctx, season, userID, now); err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalPoints != results[j].TotalPoints {
			return results[i].TotalPoints > results[j].TotalPoints
		}
		return results[i].UserID < results[j].UserID
	})

	s.afterPass(ctx, tenantSeasonID)
	return results, nil
}

// RecalculateEventScoring re-runs scoring after an official-answer
// correction. Identical semantics to ProcessEventResults; both are safe to
// call any number of times with the same inputs.
func (s *Scoring) RecalculateEventScoring(ctx context.Context, eventID, tenantSeasonID string) ([]domain.PerUserResult, error) {
	return s.ProcessEventResults(ctx, eventID, tenantSeasonID)
}

// rebuildStanding recomputes a user's standing total as the sum of all of
// their contributions for the tenant season, not an incremental add. A
// write conflict gets one internal retry with fresh reads before
// surfacing domain.ErrConflict.
func (s *Scoring) rebuildStanding(ctx context.Context, season domain.TenantSeason, userID string, now time.Time) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.writeStanding(ctx, season, userID, now)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("rebuild standing for user %s: %w", userID, err)
}

func (s *Scoring) writeStanding(ctx context.Context, season domain.TenantSeason, userID string, now time.Time) error {
	contributions, err := s.standings.ListContributionsForUser(ctx, season.ID, userID)
	if err != nil {
		return err
	}
	totalPoints, answered := 0, 0
	for _, c := range contributions {
		totalPoints += c.Points
		answered += c.AnsweredCount
	}

	entry, found, err := s.standings.GetStanding(ctx, season.ID, userID)
	if err != nil {
		return err
	}
	if !found {
		entry = domain.StandingEntry{
			UserID:         userID,
			TenantSeasonID: season.ID,
			JoinedAt:       now,
		}
		for _, m := range season.Members {
			if m.UserID == userID {
				entry.JoinedAt = m.JoinedAt
				break
			}
		}
	}
	entry.TotalPoints = totalPoints
	entry.AnsweredCount = answered
	entry.UpdatedAt = now
	return s.standings.SaveStanding(ctx, entry)
}

// afterPass refreshes read-side consumers. Failures here never fail the
// scoring pass itself: contributions and standings are already durable.
func (s *Scoring) afterPass(ctx context.Context, tenantSeasonID string) {
	if s.cache != nil {
		if err := s.cache.InvalidateStandings(ctx, tenantSeasonID); err != nil {
			log.Printf("invalidate standings cache for %s: %v", tenantSeasonID, err)
		}
	}
	if s.notifier != nil && s.board != nil {
		lb, err := s.board.Leaderboard(ctx, tenantSeasonID)
		if err != nil {
			log.Printf("snapshot standings for %s: %v", tenantSeasonID, err)
			return
		}
		s.notifier.Publish(lb)
	}
}

// ProcessAllTenants scores one event for every tenant season of its
// season, one tenant at a time, continuing past per-tenant failures. The
// returned outcomes report success or error per tenant; the batch is
// safely resumable because each tenant's pass is idempotent.
func (s *Scoring) ProcessAllTenants(ctx context.Context, eventID string) ([]domain.TenantOutcome, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	seasons, err := s.tenants.ListTenantSeasonsBySeason(ctx, event.Season)
	if err != nil {
		return nil, err
	}

	outcomes := make([]domain.TenantOutcome, 0, len(seasons))
	for _, season := range seasons {
		outcome := domain.TenantOutcome{TenantSeasonID: season.ID, Tenant: season.Tenant}
		results, err := s.ProcessEventResults(ctx, eventID, season.ID)
		if err != nil {
			outcome.Error = err.Error()
			log.Printf("scoring event %s for tenant %s failed: %v", eventID, season.Tenant, err)
		} else {
			outcome.UsersScored = len(results)
			for _, r := range results {
				outcome.PointsAwarded += r.TotalPoints
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// Readiness reports which of a tenant season's events have a full set of
// official results and which are still waiting. It is a pure query over
// counts, recomputed on every call and never cached.
func (s *Scoring) Readiness(ctx context.Context, tenantSeasonID string) (domain.ScoringReadiness, error) {
	season, err := s.tenants.GetTenantSeason(ctx, tenantSeasonID)
	if err != nil {
		return domain.ScoringReadiness{}, err
	}
	events, err := s.events.ListEventsBySeason(ctx, season.Season)
	if err != nil {
		return domain.ScoringReadiness{}, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Round < events[j].Round })

	readiness := domain.ScoringReadiness{
		TenantSeasonID:        tenantSeasonID,
		EventsReadyToScore:    []domain.EventReadiness{},
		EventsAwaitingResults: []domain.EventReadiness{},
	}
	for _, event := range events {
		questions, err := s.events.ListQuestions(ctx, event.ID)
		if err != nil {
			return domain.ScoringReadiness{}, err
		}
		if len(questions) == 0 {
			continue
		}
		official, err := s.results.ListResultsForEvent(ctx, event.ID)
		if err != nil {
			return domain.ScoringReadiness{}, err
		}
		er := domain.EventReadiness{
			EventID:       event.ID,
			Round:         event.Round,
			QuestionCount: len(questions),
			ResultCount:   len(official),
		}
		if er.ResultCount >= er.QuestionCount {
			readiness.EventsReadyToScore = append(readiness.EventsReadyToScore, er)
		} else {
			readiness.EventsAwaitingResults = append(readiness.EventsAwaitingResults, er)
		}
	}
	return readiness, nil
}
