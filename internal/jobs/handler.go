package jobs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/middleware"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/wallet"
)

// Handler serves /api/v1/jobs endpoints.
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

// --- POST /api/v1/jobs ---

type createJobRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	LocationName string   `json:"location_name"`
	BudgetMin    int64    `json:"budget_min"`
	BudgetMax    int64    `json:"budget_max"`
}

// Create handles POST /api/v1/jobs. The router restricts it to employers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}
	if req.BudgetMin < 0 || req.BudgetMax < 0 || (req.BudgetMax > 0 && req.BudgetMax < req.BudgetMin) {
		http.Error(w, "invalid budget range", http.StatusBadRequest)
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		http.Error(w, "latitude and longitude must be set together", http.StatusBadRequest)
		return
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180) {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}

	job, err := h.svc.Create(r.Context(), userID, CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LocationName: req.LocationName,
		BudgetMin:    req.BudgetMin,
		BudgetMax:    req.BudgetMax,
	})
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			http.Error(w, "insufficient tokens to post a job", http.StatusPaymentRequired)
			return
		}
		h.log.Error("create job", "employer_id", userID, "error", err)
		http.Error(w, "failed to create job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// --- GET /api/v1/jobs ---

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	role, _ := middleware.RoleFromCtx(r.Context())

	q := r.URL.Query()
	f := ListFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	}
	list, err := h.svc.List(r.Context(), userID, role, f)
	if err != nil {
		h.log.Error("list jobs", "user_id", userID, "error", err)
		http.Error(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Job{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- GET /api/v1/jobs/{id} ---

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	job, err := h.svc.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		h.log.Error("get job", "job_id", jobID, "error", err)
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// --- PATCH /api/v1/jobs/{id}/status ---

type statusUpdateRequest struct {
	Status string `json:"status"`
}

type transitionConflict struct {
	Error   string   `json:"error"`
	Allowed []string `json:"allowed"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	role, _ := middleware.RoleFromCtx(r.Context())

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}

	job, err := h.svc.Transition(r.Context(), jobID, userID, role, req.Status)
	if err != nil {
		var ite *InvalidTransitionError
		switch {
		case errors.Is(err, ErrJobNotFound):
			http.Error(w, "job not found", http.StatusNotFound)
		case errors.Is(err, ErrNotParticipant):
			http.Error(w, "not allowed to update this job", http.StatusForbidden)
		case errors.As(err, &ite):
			writeJSON(w, http.StatusConflict, transitionConflict{Error: ite.Error(), Allowed: ite.Allowed})
		case errors.Is(err, ErrStaleStatus):
			http.Error(w, "job status changed, refresh and retry", http.StatusConflict)
		default:
			h.log.Error("transition job", "job_id", jobID, "to", req.Status, "error", err)
			http.Error(w, "failed to update job status", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, job)
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
