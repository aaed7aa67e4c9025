package geo

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/middleware"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

// Handler serves /api/v1/locations endpoints and the nearby-jobs search.
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

// --- POST /api/v1/locations/update ---

type updateLocationRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	loc, err := h.svc.UpdateLocation(r.Context(), userID, req.Latitude, req.Longitude, req.Accuracy)
	if err != nil {
		if errors.Is(err, ErrBadCoordinates) {
			http.Error(w, "coordinates out of range", http.StatusBadRequest)
			return
		}
		h.log.Error("update location", "user_id", userID, "error", err)
		http.Error(w, "failed to update location", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// --- GET /api/v1/jobs/nearby ---

func (h *Handler) NearbyJobs(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := requireLatLon(w, r)
	if !ok {
		return
	}
	radius := queryFloat(r, "radius", MaxRadiusKm)
	limit := queryInt(r, "limit", 0)

	jobs, err := h.svc.NearbyJobs(r.Context(), lat, lon, radius, limit)
	if err != nil {
		if errors.Is(err, ErrBadCoordinates) {
			http.Error(w, "coordinates out of range", http.StatusBadRequest)
			return
		}
		h.log.Error("nearby jobs", "error", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []*models.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// --- GET /api/v1/locations/workers ---

func (h *Handler) NearbyWorkers(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := requireLatLon(w, r)
	if !ok {
		return
	}
	radius := queryFloat(r, "radius", MaxRadiusKm)
	profession := r.URL.Query().Get("profession")

	workers, err := h.svc.NearbyWorkers(r.Context(), lat, lon, radius, profession, 0)
	if err != nil {
		if errors.Is(err, ErrBadCoordinates) {
			http.Error(w, "coordinates out of range", http.StatusBadRequest)
			return
		}
		h.log.Error("nearby workers", "error", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	if workers == nil {
		workers = []*NearbyWorker{}
	}
	writeJSON(w, http.StatusOK, workers)
}

// --- GET /api/v1/locations/heatmap ---

func (h *Handler) Heatmap(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := requireLatLon(w, r)
	if !ok {
		return
	}
	radius := queryFloat(r, "radius", maxHeatmapRadiusKm)

	points, err := h.svc.Heatmap(r.Context(), lat, lon, radius)
	if err != nil {
		if errors.Is(err, ErrBadCoordinates) {
			http.Error(w, "coordinates out of range", http.StatusBadRequest)
			return
		}
		h.log.Error("heatmap", "error", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	if points == nil {
		points = []*HeatPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

// --- helpers ---

func requireLatLon(w http.ResponseWriter, r *http.Request) (lat, lon float64, ok bool) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("latitude"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("longitude"), 64)
	if errLat != nil || errLon != nil {
		http.Error(w, "latitude and longitude are required", http.StatusBadRequest)
		return 0, 0, false
	}
	return lat, lon, true
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

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
