package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"gridpool-service/internal/domain"
)

type eventRow struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID                string     `bun:"id,pk"`
	Season            string     `bun:"season,notnull"`
	Round             int        `bun:"round,notnull"`
	Name              string     `bun:"name,notnull,default:''"`
	Status            string     `bun:"status,notnull"`
	Deadline          time.Time  `bun:"deadline,notnull"`
	RaceAt            time.Time  `bun:"race_at,notnull"`
	Sprint            bool       `bun:"sprint,notnull,default:false"`
	NotificationsSent bool       `bun:"notifications_sent,notnull,default:false"`
	LaunchedAt        *time.Time `bun:"launched_at"`
}

func (r eventRow) toDomain() domain.Event {
	return domain.Event{
		ID:                r.ID,
		Season:            r.Season,
		Round:             r.Round,
		Name:              r.Name,
		Status:            domain.EventStatus(r.Status),
		Deadline:          r.Deadline,
		RaceAt:            r.RaceAt,
		Sprint:            r.Sprint,
		NotificationsSent: r.NotificationsSent,
		LaunchedAt:        r.LaunchedAt,
	}
}

type predictionRow struct {
	bun.BaseModel `bun:"table:predictions,alias:p"`

	UserID     string    `bun:"user_id,pk"`
	QuestionID string    `bun:"question_id,pk"`
	Answer     string    `bun:"answer,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (r predictionRow) toDomain() domain.Prediction {
	return domain.Prediction{
		UserID:     r.UserID,
		QuestionID: r.QuestionID,
		Answer:     r.Answer,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type officialResultRow struct {
	bun.BaseModel `bun:"table:official_results,alias:r"`

	QuestionID string    `bun:"question_id,pk"`
	Answer     string    `bun:"answer,notnull"`
	EnteredBy  string    `bun:"entered_by,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (r officialResultRow) toDomain() domain.OfficialResult {
	return domain.OfficialResult{
		QuestionID: r.QuestionID,
		Answer:     r.Answer,
		EnteredBy:  r.EnteredBy,
		UpdatedAt:  r.UpdatedAt,
	}
}

type tenantSeasonRow struct {
	bun.BaseModel `bun:"table:tenant_seasons,alias:ts"`

	ID     string `bun:"id,pk"`
	Tenant string `bun:"tenant,notnull"`
	Season string `bun:"season,notnull"`
}

type tenantMemberRow struct {
	bun.BaseModel `bun:"table:tenant_members,alias:tm"`

	TenantSeasonID string    `bun:"tenant_season_id,pk"`
	UserID         string    `bun:"user_id,pk"`
	JoinedAt       time.Time `bun:"joined_at,notnull"`
}

type contributionRow struct {
	bun.BaseModel `bun:"table:score_contributions,alias:c"`

	ID             string    `bun:"id,pk"`
	UserID         string    `bun:"user_id,notnull"`
	TenantSeasonID string    `bun:"tenant_season_id,notnull"`
	EventID        string    `bun:"event_id,notnull"`
	Points         int       `bun:"points,notnull"`
	CorrectCount   int       `bun:"correct_count,notnull"`
	AnsweredCount  int       `bun:"answered_count,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func (r contributionRow) toDomain() domain.EventScoreContribution {
	return domain.EventScoreContribution{
		ID:             r.ID,
		UserID:         r.UserID,
		TenantSeasonID: r.TenantSeasonID,
		EventID:        r.EventID,
		Points:         r.Points,
		CorrectCount:   r.CorrectCount,
		AnsweredCount:  r.AnsweredCount,
		UpdatedAt:      r.UpdatedAt,
	}
}

type standingRow struct {
	bun.BaseModel `bun:"table:standings,alias:s"`

	TenantSeasonID string    `bun:"tenant_season_id,pk"`
	UserID         string    `bun:"user_id,pk"`
	TotalPoints    int       `bun:"total_points,notnull"`
	AnsweredCount  int       `bun:"answered_count,notnull"`
	JoinedAt       time.Time `bun:"joined_at,notnull"`
	Version        int64     `bun:"version,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func (r standingRow) toDomain() domain.StandingEntry {
	return domain.StandingEntry{
		UserID:         r.UserID,
		TenantSeasonID: r.TenantSeasonID,
		TotalPoints:    r.TotalPoints,
		AnsweredCount:  r.AnsweredCount,
		JoinedAt:       r.JoinedAt,
		Version:        r.Version,
		UpdatedAt:      r.UpdatedAt,
	}
}
