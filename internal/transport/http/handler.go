package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridpool-service/internal/app"
	"gridpool-service/internal/domain"
)

// LeaderboardReader serves ranked standings: either the aggregator itself
// or the Redis cache in front of it.
type LeaderboardReader interface {
	Leaderboard(ctx context.Context, tenantSeasonID string) (domain.Leaderboard, error)
}

// Handler exposes the admin surface: lifecycle transitions, scoring
// triggers, readiness, standings reads and the gated prediction write.
type Handler struct {
	lifecycle *app.Lifecycle
	scoring   *app.Scoring
	standings *app.Standings
	boards    LeaderboardReader
	ws        *WSHandler
}

func NewHandler(lifecycle *app.Lifecycle, scoring *app.Scoring, standings *app.Standings, boards LeaderboardReader, ws *WSHandler) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		scoring:   scoring,
		standings: standings,
		boards:    boards,
		ws:        ws,
	}
}

// Routes mounts every endpoint on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Post("/launch", h.transition(h.lifecycle.Launch))
		r.Post("/pause", h.transition(h.lifecycle.Pause))
		r.Post("/resume", h.transition(h.lifecycle.Resume))
		r.Post("/finish", h.transition(h.lifecycle.Finish))
		r.Get("/locked", h.locked)
		r.Post("/score", h.scoreTenant)
		r.Post("/score-all", h.scoreAllTenants)
	})

	r.Get("/tenants/{tenantSeasonID}/readiness", h.readiness)
	r.Get("/tenants/{tenantSeasonID}/standings", h.leaderboard)
	r.Get("/users/{userID}/global", h.globalStanding)
	r.Put("/predictions", h.submitPrediction)
	r.Put("/results", h.enterResult)

	if h.ws != nil {
		r.Get("/ws", h.ws.ServeWS)
	}
	return r
}

func (h *Handler) transition(fn func(ctx context.Context, eventID string) (domain.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := fn(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

func (h *Handler) locked(w http.ResponseWriter, r *http.Request) {
	locked, err := h.lifecycle.IsLocked(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"locked": locked})
}

func (h *Handler) scoreTenant(w http.ResponseWriter, r *http.Request) {
	tenantSeasonID := r.URL.Query().Get("tenantSeason")
	if tenantSeasonID == "" {
		http.Error(w, "missing tenantSeason", http.StatusBadRequest)
		return
	}
	results, err := h.scoring.ProcessEventResults(r.Context(), chi.URLParam(r, "eventID"), tenantSeasonID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) scoreAllTenants(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.scoring.ProcessAllTenants(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomes)
}

func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	readiness, err := h.scoring.Readiness(r.Context(), chi.URLParam(r, "tenantSeasonID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readiness)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.boards.Leaderboard(r.Context(), chi.URLParam(r, "tenantSeasonID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) globalStanding(w http.ResponseWriter, r *http.Request) {
	global, err := h.standings.GlobalStanding(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, global)
}

type predictionRequest struct {
	UserID     string `json:"userId"`
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

func (h *Handler) submitPrediction(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.QuestionID == "" || req.Answer == "" {
		http.Error(w, "missing userId, questionId, or answer", http.StatusBadRequest)
		return
	}
	prediction, err := h.lifecycle.SubmitPrediction(r.Context(), req.UserID, req.QuestionID, req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

type resultRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	EnteredBy  string `json:"enteredBy"`
}

func (h *Handler) enterResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.QuestionID == "" || req.Answer == "" {
		http.Error(w, "missing questionId or answer", http.StatusBadRequest)
		return
	}
	result, err := h.scoring.EnterResult(r.Context(), req.QuestionID, req.Answer, req.EnteredBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsInvalidTransition(err):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrTenantSeasonNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLocked):
		status = http.StatusLocked
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
