package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"gridpool-service/internal/domain"
)

// Store is the bun-backed implementation of the app store interfaces.
// Question reads go through the pgx CatalogLoader; everything the scoring
// engine writes goes through bun so contribution replacement and the
// standings version check stay in SQL.
type Store struct {
	db      *bun.DB
	catalog *CatalogLoader
}

func NewStore(db *bun.DB, catalog *CatalogLoader) *Store {
	return &Store{db: db, catalog: catalog}
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	var row eventRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", eventID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, domain.ErrEventNotFound
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("load event %s: %w", eventID, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListEventsBySeason(ctx context.Context, season string) ([]domain.Event, error) {
	var rows []eventRow
	err := s.db.NewSelect().Model(&rows).Where("season = ?", season).Order("round ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events for season %s: %w", season, err)
	}
	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toDomain())
	}
	return events, nil
}

func (s *Store) SaveEventState(ctx context.Context, event domain.Event) error {
	res, err := s.db.NewUpdate().
		Model((*eventRow)(nil)).
		Set("status = ?", string(event.Status)).
		Set("launched_at = ?", event.LaunchedAt).
		Set("notifications_sent = ?", event.NotificationsSent).
		Where("id = ?", event.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save event state for %s: %w", event.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (domain.EventQuestion, error) {
	return s.catalog.GetQuestion(ctx, questionID)
}

func (s *Store) ListQuestions(ctx context.Context, eventID string) ([]domain.EventQuestion, error) {
	return s.catalog.ListQuestions(ctx, eventID)
}

func (s *Store) UpsertPrediction(ctx context.Context, p domain.Prediction) (domain.Prediction, error) {
	row := predictionRow{
		UserID:     p.UserID,
		QuestionID: p.QuestionID,
		Answer:     p.Answer,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (user_id, question_id) DO UPDATE").
		Set("answer = EXCLUDED.answer, updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("upsert prediction for user %s question %s: %w", p.UserID, p.QuestionID, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListPredictionsForQuestions(ctx context.Context, questionIDs []string) ([]domain.Prediction, error) {
	if len(questionIDs) == 0 {
		return []domain.Prediction{}, nil
	}
	var rows []predictionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("question_id IN (?)", bun.In(questionIDs)).
		Order("user_id ASC", "question_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	predictions := make([]domain.Prediction, 0, len(rows))
	for _, row := range rows {
		predictions = append(predictions, row.toDomain())
	}
	return predictions, nil
}

func (s *Store) UpsertResult(ctx context.Context, r domain.OfficialResult) (domain.OfficialResult, error) {
	row := officialResultRow{
		QuestionID: r.QuestionID,
		Answer:     r.Answer,
		EnteredBy:  r.EnteredBy,
		UpdatedAt:  r.UpdatedAt,
	}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (question_id) DO UPDATE").
		Set("answer = EXCLUDED.answer, entered_by = EXCLUDED.entered_by, updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return domain.OfficialResult{}, fmt.Errorf("upsert result for question %s: %w", r.QuestionID, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListResultsForEvent(ctx context.Context, eventID string) ([]domain.OfficialResult, error) {
	var rows []officialResultRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("question_id IN (SELECT id FROM event_questions WHERE event_id = ?)", eventID).
		Order("question_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load results for event %s: %w", eventID, err)
	}
	results := make([]domain.OfficialResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toDomain())
	}
	return results, nil
}

func (s *Store) GetTenantSeason(ctx context.Context, tenantSeasonID string) (domain.TenantSeason, error) {
	var row tenantSeasonRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", tenantSeasonID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TenantSeason{}, domain.ErrTenantSeasonNotFound
	}
	if err != nil {
		return domain.TenantSeason{}, fmt.Errorf("load tenant season %s: %w", tenantSeasonID, err)
	}
	members, err := s.listMembers(ctx, tenantSeasonID)
	if err != nil {
		return domain.TenantSeason{}, err
	}
	return domain.TenantSeason{ID: row.ID, Tenant: row.Tenant, Season: row.Season, Members: members}, nil
}

func (s *Store) listMembers(ctx context.Context, tenantSeasonID string) ([]domain.Member, error) {
	var rows []tenantMemberRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("tenant_season_id = ?", tenantSeasonID).
		Order("joined_at ASC", "user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load members for tenant season %s: %w", tenantSeasonID, err)
	}
	members := make([]domain.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, domain.Member{UserID: row.UserID, JoinedAt: row.JoinedAt})
	}
	return members, nil
}

func (s *Store) ListTenantSeasonsBySeason(ctx context.Context, season string) ([]domain.TenantSeason, error) {
	var rows []tenantSeasonRow
	err := s.db.NewSelect().Model(&rows).Where("season = ?", season).Order("tenant ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tenant seasons for season %s: %w", season, err)
	}
	seasons := make([]domain.TenantSeason, 0, len(rows))
	for _, row := range rows {
		members, err := s.listMembers(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, domain.TenantSeason{ID: row.ID, Tenant: row.Tenant, Season: row.Season, Members: members})
	}
	return seasons, nil
}

func (s *Store) ListTenantSeasonsForUser(ctx context.Context, userID string) ([]domain.TenantSeason, error) {
	var rows []tenantSeasonRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("id IN (SELECT tenant_season_id FROM tenant_members WHERE user_id = ?)", userID).
		Order("tenant ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tenant seasons for user %s: %w", userID, err)
	}
	seasons := make([]domain.TenantSeason, 0, len(rows))
	for _, row := range rows {
		members, err := s.listMembers(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, domain.TenantSeason{ID: row.ID, Tenant: row.Tenant, Season: row.Season, Members: members})
	}
	return seasons, nil
}

// UpsertContribution replaces the (user, tenant, event) contribution row
// wholesale. Replacement, not increment, is what makes rescoring after a
// correction safe to repeat.
func (s *Store) UpsertContribution(ctx context.Context, c domain.EventScoreContribution) error {
	row := contributionRow{
		ID:             c.ID,
		UserID:         c.UserID,
		TenantSeasonID: c.TenantSeasonID,
		EventID:        c.EventID,
		Points:         c.Points,
		CorrectCount:   c.CorrectCount,
		AnsweredCount:  c.AnsweredCount,
		UpdatedAt:      c.UpdatedAt,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (user_id, tenant_season_id, event_id) DO UPDATE").
		Set("points = EXCLUDED.points, correct_count = EXCLUDED.correct_count, answered_count = EXCLUDED.answered_count, updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert contribution: %w", err)
	}
	return nil
}

func (s *Store) ListContributionsForUser(ctx context.Context, tenantSeasonID, userID string) ([]domain.EventScoreContribution, error) {
	var rows []contributionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("tenant_season_id = ?", tenantSeasonID).
		Where("user_id = ?", userID).
		Order("event_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contributions for user %s: %w", userID, err)
	}
	contributions := make([]domain.EventScoreContribution, 0, len(rows))
	for _, row := range rows {
		contributions = append(contributions, row.toDomain())
	}
	return contributions, nil
}

func (s *Store) GetStanding(ctx context.Context, tenantSeasonID, userID string) (domain.StandingEntry, bool, error) {
	var row standingRow
	err := s.db.NewSelect().
		Model(&row).
		Where("tenant_season_id = ?", tenantSeasonID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StandingEntry{}, false, nil
	}
	if err != nil {
		return domain.StandingEntry{}, false, fmt.Errorf("load standing for user %s: %w", userID, err)
	}
	return row.toDomain(), true, nil
}

// SaveStanding writes a standing entry under optimistic concurrency: the
// row's stored version must still match the version the caller read, or
// the write fails with domain.ErrConflict and the caller re-reads.
func (s *Store) SaveStanding(ctx context.Context, entry domain.StandingEntry) error {
	if entry.Version == 0 {
		row := standingRow{
			TenantSeasonID: entry.TenantSeasonID,
			UserID:         entry.UserID,
			TotalPoints:    entry.TotalPoints,
			AnsweredCount:  entry.AnsweredCount,
			JoinedAt:       entry.JoinedAt,
			Version:        1,
			UpdatedAt:      entry.UpdatedAt,
		}
		res, err := s.db.NewInsert().
			Model(&row).
			On("CONFLICT (tenant_season_id, user_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert standing for user %s: %w", entry.UserID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// someone else created the row since our read
			return domain.ErrConflict
		}
		return nil
	}

	res, err := s.db.NewUpdate().
		Model((*standingRow)(nil)).
		Set("total_points = ?", entry.TotalPoints).
		Set("answered_count = ?", entry.AnsweredCount).
		Set("version = version + 1").
		Set("updated_at = ?", entry.UpdatedAt).
		Where("tenant_season_id = ?", entry.TenantSeasonID).
		Where("user_id = ?", entry.UserID).
		Where("version = ?", entry.Version).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update standing for user %s: %w", entry.UserID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (s *Store) ListStandings(ctx context.Context, tenantSeasonID string) ([]domain.StandingEntry, error) {
	var rows []standingRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("tenant_season_id = ?", tenantSeasonID).
		Order("user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load standings for tenant season %s: %w", tenantSeasonID, err)
	}
	entries := make([]domain.StandingEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}
