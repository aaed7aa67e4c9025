package wallet

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/middleware"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

// Handler serves /api/v1/wallet endpoints plus the admin token grant.
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

// --- GET /api/v1/wallet ---

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	wal, err := h.svc.GetOrCreate(r.Context(), userID)
	if err != nil {
		h.log.Error("get wallet", "user_id", userID, "error", err)
		http.Error(w, "failed to load wallet", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, wal)
}

// --- GET /api/v1/wallet/transactions ---

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	list, err := h.svc.Transactions(r.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list transactions", "user_id", userID, "error", err)
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*models.TokenTransaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- POST /api/v1/admin/tokens/grant ---

type grantRequest struct {
	UserID      string `json:"user_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// GrantTokens credits a user out of band. The router guards this route with
// the admin role check.
func (h *Handler) GrantTokens(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be > 0", http.StatusBadRequest)
		return
	}
	desc := req.Description
	if desc == "" {
		desc = "admin grant"
	}

	wal, err := h.svc.Credit(r.Context(), userID, req.Amount, models.TxTypeAdminGrant, desc, nil)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			http.Error(w, "wallet not found", http.StatusNotFound)
			return
		}
		h.log.Error("grant tokens", "user_id", userID, "amount", req.Amount, "error", err)
		http.Error(w, "grant failed", http.StatusInternalServerError)
		return
	}
	h.log.Info("tokens granted", "user_id", userID, "amount", req.Amount)
	writeJSON(w, http.StatusOK, wal)
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
