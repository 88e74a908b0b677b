package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gridpool-service/internal/domain"
)

// Store is an in-memory implementation of every app store interface. It
// backs unit tests and the no-database demo mode; the Postgres store is
// the production twin.
type Store struct {
	mu            sync.RWMutex
	events        map[string]domain.Event
	questions     map[string]domain.EventQuestion
	predictions   map[string]domain.Prediction // keyed userID+"/"+questionID
	results       map[string]domain.OfficialResult
	tenantSeasons map[string]domain.TenantSeason
	contributions map[string]domain.EventScoreContribution // keyed userID+"/"+tenantSeasonID+"/"+eventID
	standings     map[string]domain.StandingEntry          // keyed tenantSeasonID+"/"+userID

	// standingConflicts injects one ErrConflict per queued userID, for
	// exercising the scoring engine's optimistic retry.
	standingConflicts map[string]int
}

func NewStore() *Store {
	return &Store{
		events:            make(map[string]domain.Event),
		questions:         make(map[string]domain.EventQuestion),
		predictions:       make(map[string]domain.Prediction),
		results:           make(map[string]domain.OfficialResult),
		tenantSeasons:     make(map[string]domain.TenantSeason),
		contributions:     make(map[string]domain.EventScoreContribution),
		standings:         make(map[string]domain.StandingEntry),
		standingConflicts: make(map[string]int),
	}
}

// SeedEvent inserts or replaces an event wholesale.
func (s *Store) SeedEvent(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	s.events[event.ID] = event
}

// SeedQuestion inserts or replaces a question wholesale.
func (s *Store) SeedQuestion(q domain.EventQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	s.questions[q.ID] = q
}

// SeedTenantSeason inserts or replaces a tenant season wholesale.
func (s *Store) SeedTenantSeason(ts domain.TenantSeason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	s.tenantSeasons[ts.ID] = ts
}

// FailNextStandingWrites queues n conflict errors for a user's standing
// writes. Test hook.
func (s *Store) FailNextStandingWrites(userID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standingConflicts[userID] = n
}

func (s *Store) GetEvent(_ context.Context, eventID string) (domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return event, nil
}

func (s *Store) ListEventsBySeason(_ context.Context, season string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]domain.Event, 0)
	for _, event := range s.events {
		if event.Season == season {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Round < events[j].Round })
	return events, nil
}

func (s *Store) SaveEventState(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.events[event.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	stored.Status = event.Status
	stored.LaunchedAt = event.LaunchedAt
	stored.NotificationsSent = event.NotificationsSent
	s.events[event.ID] = stored
	return nil
}

func (s *Store) GetQuestion(_ context.Context, questionID string) (domain.EventQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.EventQuestion{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Store) ListQuestions(_ context.Context, eventID string) ([]domain.EventQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]domain.EventQuestion, 0)
	for _, q := range s.questions {
		if q.EventID == eventID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })
	return questions, nil
}

func (s *Store) UpsertPrediction(_ context.Context, p domain.Prediction) (domain.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := p.UserID + "/" + p.QuestionID
	if existing, ok := s.predictions[key]; ok {
		existing.Answer = p.Answer
		existing.UpdatedAt = p.UpdatedAt
		s.predictions[key] = existing
		return existing, nil
	}
	s.predictions[key] = p
	return p, nil
}

func (s *Store) ListPredictionsForQuestions(_ context.Context, questionIDs []string) ([]domain.Prediction, error) {
	wanted := make(map[string]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	predictions := make([]domain.Prediction, 0)
	for _, p := range s.predictions {
		if _, ok := wanted[p.QuestionID]; ok {
			predictions = append(predictions, p)
		}
	}
	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].UserID != predictions[j].UserID {
			return predictions[i].UserID < predictions[j].UserID
		}
		return predictions[i].QuestionID < predictions[j].QuestionID
	})
	return predictions, nil
}

func (s *Store) UpsertResult(_ context.Context, r domain.OfficialResult) (domain.OfficialResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.QuestionID] = r
	return r, nil
}

func (s *Store) ListResultsForEvent(_ context.Context, eventID string) ([]domain.OfficialResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.OfficialResult, 0)
	for _, r := range s.results {
		q, ok := s.questions[r.QuestionID]
		if ok && q.EventID == eventID {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].QuestionID < results[j].QuestionID })
	return results, nil
}

func (s *Store) GetTenantSeason(_ context.Context, tenantSeasonID string) (domain.TenantSeason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.tenantSeasons[tenantSeasonID]
	if !ok {
		return domain.TenantSeason{}, domain.ErrTenantSeasonNotFound
	}
	return ts, nil
}

func (s *Store) ListTenantSeasonsBySeason(_ context.Context, season string) ([]domain.TenantSeason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seasons := make([]domain.TenantSeason, 0)
	for _, ts := range s.tenantSeasons {
		if ts.Season == season {
			seasons = append(seasons, ts)
		}
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].Tenant < seasons[j].Tenant })
	return seasons, nil
}

func (s *Store) ListTenantSeasonsForUser(_ context.Context, userID string) ([]domain.TenantSeason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seasons := make([]domain.TenantSeason, 0)
	for _, ts := range s.tenantSeasons {
		if ts.HasMember(userID) {
			seasons = append(seasons, ts)
		}
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].Tenant < seasons[j].Tenant })
	return seasons, nil
}

func (s *Store) UpsertContribution(_ context.Context, c domain.EventScoreContribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := c.UserID + "/" + c.TenantSeasonID + "/" + c.EventID
	if existing, ok := s.contributions[key]; ok {
		c.ID = existing.ID
	} else if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.contributions[key] = c
	return nil
}

func (s *Store) ListContributionsForUser(_ context.Context, tenantSeasonID, userID string) ([]domain.EventScoreContribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contributions := make([]domain.EventScoreContribution, 0)
	for _, c := range s.contributions {
		if c.TenantSeasonID == tenantSeasonID && c.UserID == userID {
			contributions = append(contributions, c)
		}
	}
	sort.Slice(contributions, func(i, j int) bool { return contributions[i].EventID < contributions[j].EventID })
	return contributions, nil
}

func (s *Store) GetStanding(_ context.Context, tenantSeasonID, userID string) (domain.StandingEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.standings[tenantSeasonID+"/"+userID]
	return entry, ok, nil
}

func (s *Store) SaveStanding(_ context.Context, entry domain.StandingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.standingConflicts[entry.UserID]; n > 0 {
		s.standingConflicts[entry.UserID] = n - 1
		return domain.ErrConflict
	}
	key := entry.TenantSeasonID + "/" + entry.UserID
	if stored, ok := s.standings[key]; ok && stored.Version != entry.Version {
		return domain.ErrConflict
	}
	entry.Version++
	s.standings[key] = entry
	return nil
}

func (s *Store) ListStandings(_ context.Context, tenantSeasonID string) ([]domain.StandingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]domain.StandingEntry, 0)
	for _, entry := range s.standings {
		if entry.TenantSeasonID == tenantSeasonID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries, nil
}
