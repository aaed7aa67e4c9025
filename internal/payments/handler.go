package payments

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/middleware"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/pesepay"
)

const maxWebhookBody = 1 << 20

// Handler serves token purchases, payment lookups and the gateway webhook.
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

// --- POST /api/v1/tokens/purchase ---

type purchaseRequest struct {
	Tokens int64  `json:"tokens"`
	Method string `json:"method"`
	Phone  string `json:"phone"`
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Purchase(r.Context(), userID, PurchaseInput{
		Tokens: req.Tokens,
		Method: req.Method,
		Phone:  req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBadAmount):
			http.Error(w, "tokens must be > 0", http.StatusBadRequest)
		case errors.Is(err, ErrGatewayDisabled):
			http.Error(w, "payments are temporarily unavailable", http.StatusServiceUnavailable)
		case errors.Is(err, pesepay.ErrGatewayUnavailable):
			http.Error(w, "payment gateway unreachable, try again", http.StatusBadGateway)
		case errors.Is(err, pesepay.ErrRejected):
			http.Error(w, "payment was rejected by the gateway", http.StatusBadGateway)
		default:
			h.log.Error("purchase tokens", "user_id", userID, "error", err)
			http.Error(w, "purchase failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// --- GET /api/v1/payments/{id} ---

// GetPayment returns a payment, polling the gateway once when it is still
// pending so a returning client sees the freshest state.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	role, _ := middleware.RoleFromCtx(r.Context())
	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid payment id", http.StatusBadRequest)
		return
	}

	p, err := h.svc.CheckAndSettle(r.Context(), paymentID, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			http.Error(w, "payment not found", http.StatusNotFound)
		case errors.Is(err, ErrNotOwner):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			h.log.Error("get payment", "payment_id", paymentID, "error", err)
			http.Error(w, "failed to load payment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- GET /api/v1/payments ---

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	list, err := h.svc.ListForUser(r.Context(), userID, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		h.log.Error("list payments", "user_id", userID, "error", err)
		http.Error(w, "failed to load payments", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.Payment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- POST /api/v1/payments/webhook ---

// Webhook receives gateway result callbacks. It always answers 200 for
// payloads that reference a known payment so the gateway stops retrying.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), body); err != nil {
		switch {
		case errors.Is(err, ErrMissingReference):
			http.Error(w, "missing reference", http.StatusBadRequest)
		case errors.Is(err, ErrPaymentNotFound):
			http.Error(w, "unknown payment", http.StatusNotFound)
		default:
			h.log.Error("payment webhook", "error", err)
			http.Error(w, "webhook processing failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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
