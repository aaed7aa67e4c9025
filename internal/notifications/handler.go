package notifications

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/middleware"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

// Handler serves /api/v1/notifications endpoints.
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

// --- GET /api/v1/notifications ---

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	unreadOnly := q.Get("unread_only") == "true"
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	list, err := h.svc.List(r.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		h.log.Error("list notifications", "user_id", userID, "error", err)
		http.Error(w, "failed to load notifications", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- PATCH /api/v1/notifications/{id}/read ---

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	if err := h.svc.MarkRead(r.Context(), id, userID); err != nil {
		h.log.Error("mark notification read", "user_id", userID, "error", err)
		http.Error(w, "failed to mark read", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- PATCH /api/v1/notifications/read-all ---

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.svc.MarkAllRead(r.Context(), userID); err != nil {
		h.log.Error("mark all read", "user_id", userID, "error", err)
		http.Error(w, "failed to mark read", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- GET /api/v1/notifications/unread-count ---

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	count, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		h.log.Error("unread count", "user_id", userID, "error", err)
		http.Error(w, "failed to count", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
