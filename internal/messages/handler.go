package messages

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

type sendRequest struct {
	ReceiverID     uuid.UUID `json:"receiver_id"`
	Content        string    `json:"content"`
	AttachmentURL  *string   `json:"attachment_url"`
	AttachmentType *string   `json:"attachment_type"`
}

// Send handles POST /api/v1/messages.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ReceiverID == uuid.Nil {
		http.Error(w, "receiver_id is required", http.StatusBadRequest)
		return
	}

	msg, err := h.svc.Send(r.Context(), userID, req.ReceiverID, req.Content, req.AttachmentURL, req.AttachmentType)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyContent):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrReceiverNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, wallet.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusPaymentRequired)
		default:
			h.log.Error("send message failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Conversations handles GET /api/v1/messages/conversations.
func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.svc.Conversations(r.Context(), userID)
	if err != nil {
		h.log.Error("list conversations failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Conversation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Thread handles GET /api/v1/messages/{partner_id}.
func (h *Handler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	partnerID, err := uuid.Parse(r.PathValue("partner_id"))
	if err != nil {
		http.Error(w, "invalid partner id", http.StatusBadRequest)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	list, err := h.svc.Thread(r.Context(), userID, partnerID, limit, offset)
	if err != nil {
		h.log.Error("load thread failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Message{}
	}
	writeJSON(w, http.StatusOK, list)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
