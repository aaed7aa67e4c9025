package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/middleware"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

// Handler serves registration, login, logout, and the current-user lookup.
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

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// --- POST /api/v1/auth/register ---

type registerRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Phone == "" || req.Password == "" || req.FullName == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	user, token, err := h.svc.Register(r.Context(), RegisterInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUser):
			http.Error(w, "email or phone already registered", http.StatusConflict)
		case errors.Is(err, ErrInvalidRole):
			http.Error(w, "role must be employer or employee", http.StatusBadRequest)
		default:
			h.log.Error("register", "error", err)
			http.Error(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// --- POST /api/v1/auth/login ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "missing email or password", http.StatusBadRequest)
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		case errors.Is(err, ErrSuspended):
			http.Error(w, "account suspended", http.StatusForbidden)
		default:
			h.log.Error("login", "error", err)
			http.Error(w, "login failed", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// --- POST /api/v1/auth/logout ---

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.svc.Logout(r.Context(), userID); err != nil {
		h.log.Error("logout", "user_id", userID, "error", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- GET /api/v1/auth/me ---

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.log.Error("me", "user_id", userID, "error", err)
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
