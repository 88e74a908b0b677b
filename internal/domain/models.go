package domain

import "time"

// EventStatus is the lifecycle state of a race event.
type EventStatus string

const (
	StatusCreated  EventStatus = "created"
	StatusActive   EventStatus = "active"
	StatusPaused   EventStatus = "paused"
	StatusFinished EventStatus = "finished"
)

// QuestionType enumerates the fixed set of scoreable question kinds.
type QuestionType string

const (
	QuestionDriverPick     QuestionType = "driver_pick"
	QuestionTeamPick       QuestionType = "team_pick"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionNumeric        QuestionType = "numeric"
	QuestionBoolean        QuestionType = "boolean"
	QuestionHeadToHead     QuestionType = "head_to_head"
)

// OptionKind tags the shape of a question's answer options.
type OptionKind string

const (
	OptionsRoster  OptionKind = "roster"
	OptionsCustom  OptionKind = "custom"
	OptionsBoolean OptionKind = "boolean"
)

// OptionSpec describes where a question's admissible answers come from:
// a named roster, an explicit value list, or the fixed yes/no pair.
type OptionSpec struct {
	Kind   OptionKind `json:"kind"`
	Roster string     `json:"roster,omitempty"`
	Values []string   `json:"values,omitempty"`
}

// Event is one scheduled round of competition.
type Event struct {
	ID                string      `json:"id"`
	Season            string      `json:"season"`
	Round             int         `json:"round"`
	Name              string      `json:"name"`
	Status            EventStatus `json:"status"`
	Deadline          time.Time   `json:"deadline"`
	RaceAt            time.Time   `json:"raceAt"`
	Sprint            bool        `json:"sprint"`
	NotificationsSent bool        `json:"notificationsSent"`
	LaunchedAt        *time.Time  `json:"launchedAt,omitempty"`
}

// Locked reports whether prediction writes are rejected for this event at
// the given instant. Paused and finished events are always locked; created
// events are locked because submissions require an active event; active
// events lock once the deadline passes.
func (e Event) Locked(now time.Time) bool {
	switch e.Status {
	case StatusPaused, StatusFinished, StatusCreated:
		return true
	default:
		return !now.Before(e.Deadline)
	}
}

// EventQuestion is one scoreable question attached to an event.
type EventQuestion struct {
	ID       string       `json:"id"`
	EventID  string       `json:"eventId"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	Points   int          `json:"points"`
	Category string       `json:"category"`
	Position int          `json:"position"`
	Options  OptionSpec   `json:"options"`
}

// Prediction is a single user's answer to one event question. One row per
// (user, question), shared across every tenant the user belongs to.
type Prediction struct {
	UserID     string    `json:"userId"`
	QuestionID string    `json:"questionId"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// OfficialResult is the administrator-entered correct answer for one
// question. At most one per question; corrections overwrite in place and
// require a rescoring pass to propagate.
type OfficialResult struct {
	QuestionID string    `json:"questionId"`
	Answer     string    `json:"answer"`
	EnteredBy  string    `json:"enteredBy"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Member is a user's membership in a tenant season.
type Member struct {
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// TenantSeason binds one tenant (workspace) to one season. Scoring and
// standings are always scoped to this pair.
type TenantSeason struct {
	ID      string   `json:"id"`
	Tenant  string   `json:"tenant"`
	Season  string   `json:"season"`
	Members []Member `json:"members,omitempty"`
}

// HasMember reports whether userID belongs to this tenant season.
func (t TenantSeason) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// EventScoreContribution is the idempotent unit of scoring: the points one
// user earned for one event within one tenant season. A scoring pass
// replaces this row, never increments it.
type EventScoreContribution struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	TenantSeasonID string    `json:"tenantSeasonId"`
	EventID        string    `json:"eventId"`
	Points         int       `json:"points"`
	CorrectCount   int       `json:"correctCount"`
	AnsweredCount  int       `json:"answeredCount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StandingEntry is a user's cumulative score within one tenant season.
// TotalPoints and AnsweredCount are derived from contributions; Rank is
// recomputed on every aggregation pass and never stored authoritatively.
type StandingEntry struct {
	UserID         string    `json:"userId"`
	TenantSeasonID string    `json:"tenantSeasonId"`
	TotalPoints    int       `json:"totalPoints"`
	AnsweredCount  int       `json:"answeredCount"`
	JoinedAt       time.Time `json:"joinedAt"`
	Rank           int       `json:"rank,omitempty"`
	Version        int64     `json:"-"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Leaderboard is the ranked scoreboard snapshot for a tenant season.
type Leaderboard struct {
	TenantSeasonID string          `json:"tenantSeasonId"`
	Entries        []StandingEntry `json:"entries"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PerUserResult summarizes one user's outcome of a scoring pass.
type PerUserResult struct {
	UserID           string `json:"userId"`
	TotalPoints      int    `json:"totalPoints"`
	CorrectCount     int    `json:"correctCount"`
	TotalPredictions int    `json:"totalPredictions"`
}

// TenantOutcome is the per-tenant report of an all-tenants scoring batch.
// Error is empty on success; the batch never aborts on one tenant.
type TenantOutcome struct {
	TenantSeasonID string `json:"tenantSeasonId"`
	Tenant         string `json:"tenant"`
	UsersScored    int    `json:"usersScored"`
	PointsAwarded  int    `json:"pointsAwarded"`
	Error          string `json:"error,omitempty"`
}

// EventReadiness counts official results against questions for one event.
type EventReadiness struct {
	EventID       string `json:"eventId"`
	Round         int    `json:"round"`
	QuestionCount int    `json:"questionCount"`
	ResultCount   int    `json:"resultCount"`
}

// ScoringReadiness splits a season's events into those whose questions are
// fully resolved and those still awaiting official results.
type ScoringReadiness struct {
	TenantSeasonID        string           `json:"tenantSeasonId"`
	EventsReadyToScore    []EventReadiness `json:"eventsReadyToScore"`
	EventsAwaitingResults []EventReadiness `json:"eventsAwaitingResults"`
}

// GlobalStanding is a user's best performance across every tenant season
// they participate in.
type GlobalStanding struct {
	UserID       string `json:"userId"`
	BestPoints   int    `json:"bestPoints"`
	BestTenant   string `json:"bestTenant"`
	TotalTenants int    `json:"totalTenants"`
}
