package ratings

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/jobs"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/middleware"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

// Handler serves rating submission and the public received-ratings list.
type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// --- POST /api/v1/ratings ---

type rateRequest struct {
	JobID   string `json:"job_id"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	raterID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		http.Error(w, "invalid job_id", http.StatusBadRequest)
		return
	}

	rt, err := h.svc.Rate(r.Context(), raterID, RateInput{
		JobID:   jobID,
		Score:   req.Score,
		Comment: req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBadScore):
			http.Error(w, "score must be between 1 and 5", http.StatusBadRequest)
		case errors.Is(err, jobs.ErrJobNotFound):
			http.Error(w, "job not found", http.StatusNotFound)
		case errors.Is(err, ErrNotRatable):
			http.Error(w, "job must be completed first", http.StatusConflict)
		case errors.Is(err, ErrNotParticipant):
			http.Error(w, "not a participant", http.StatusForbidden)
		case errors.Is(err, ErrAlreadyRated):
			http.Error(w, "already rated this job", http.StatusConflict)
		default:
			h.log.Error("submit rating", "job_id", jobID, "error", err)
			http.Error(w, "rating failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

// --- GET /api/v1/users/{id}/ratings ---

func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	list, err := h.svc.ListForUser(r.Context(), userID, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		h.log.Error("list ratings", "user_id", userID, "error", err)
		http.Error(w, "failed to load ratings", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Rating{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- helpers ---

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
