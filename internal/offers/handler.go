package offers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/jobs"
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

type createOfferRequest struct {
	JobID    uuid.UUID `json:"job_id"`
	ToUserID uuid.UUID `json:"to_user_id"`
	Amount   int64     `json:"amount"`
	Message  string    `json:"message"`
}

// Create handles POST /api/v1/offers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.JobID == uuid.Nil || req.ToUserID == uuid.Nil {
		http.Error(w, "job_id and to_user_id are required", http.StatusBadRequest)
		return
	}
	if req.ToUserID == userID {
		http.Error(w, "cannot send an offer to yourself", http.StatusBadRequest)
		return
	}

	offer, err := h.svc.Create(r.Context(), userID, CreateInput{
		JobID:    req.JobID,
		ToUserID: req.ToUserID,
		Amount:   req.Amount,
		Message:  req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBadAmount):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, jobs.ErrJobNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrJobUnavailable), errors.Is(err, jobs.ErrStaleStatus):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, wallet.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusPaymentRequired)
		default:
			h.log.Error("create offer failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

// ListForJob handles GET /api/v1/offers/job/{job_id}.
func (h *Handler) ListForJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	role, _ := middleware.RoleFromCtx(r.Context())

	jobID, err := uuid.Parse(r.PathValue("job_id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	list, err := h.svc.ListForJob(r.Context(), jobID, userID, role)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error("list offers failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Offer{}
	}
	writeJSON(w, http.StatusOK, list)
}

// ListSent handles GET /api/v1/offers/sent.
func (h *Handler) ListSent(w http.ResponseWriter, r *http.Request) {
	h.listMine(w, r, h.svc.ListSent)
}

// ListReceived handles GET /api/v1/offers/received.
func (h *Handler) ListReceived(w http.ResponseWriter, r *http.Request) {
	h.listMine(w, r, h.svc.ListReceived)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request, list func(context.Context, uuid.UUID) ([]*models.Offer, error)) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	out, err := list(r.Context(), userID)
	if err != nil {
		h.log.Error("list offers failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []*models.Offer{}
	}
	writeJSON(w, http.StatusOK, out)
}

type respondRequest struct {
	Status         string `json:"status"`
	CounterAmount  int64  `json:"counter_amount"`
	CounterMessage string `json:"counter_message"`
}

// Respond handles PATCH /api/v1/offers/{id}.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	offerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid offer id", http.StatusBadRequest)
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	offer, err := h.svc.Respond(r.Context(), offerID, userID, RespondInput{
		Action:         req.Status,
		CounterAmount:  req.CounterAmount,
		CounterMessage: req.CounterMessage,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBadAction), errors.Is(err, ErrBadAmount):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrOfferNotFound), errors.Is(err, jobs.ErrJobNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrNotRecipient):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, ErrOfferClosed), errors.Is(err, jobs.ErrStaleStatus):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.log.Error("respond to offer failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
