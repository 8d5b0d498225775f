package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/workstream/internal/security/auth"
)

const tokenTTL = 24 * time.Hour

// LoginRequest carries the credentials for a development login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the minted token plus the identity baked into it,
// so clients can render role-aware UI without decoding the JWT.
type LoginResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"companyId"`
	ExpiresIn int64  `json:"expiresIn"`
}

// LoginHandler authenticates configured users and mints JWTs for the
// realtime gateway.
type LoginHandler struct {
	users  *auth.UserStore
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewLoginHandler(users *auth.UserStore, tokens *auth.TokenManager, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{users: users, tokens: tokens, logger: logger}
}

// ServeHTTP handles POST /api/login requests
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login rejected", slog.String("email", req.Email))
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.GenerateToken(user.CompanyID, user.ID, user.Email, user.Role, tokenTTL)
	if err != nil {
		h.logger.Error("failed to mint token", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("login succeeded",
		slog.String("email", user.Email),
		slog.String("company_id", user.CompanyID),
		slog.String("role", string(user.Role)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Token:     token,
		Email:     user.Email,
		Role:      string(user.Role),
		CompanyID: user.CompanyID,
		ExpiresIn: int64(tokenTTL.Seconds()),
	})
}
