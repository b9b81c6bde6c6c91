package handler

import (
	"net/http"
	"time"

	"wellspring/internal/logger"
	"wellspring/internal/middleware"
	"wellspring/internal/service"
)

// AuthHandler serves login and logout.
type AuthHandler struct {
	auth *service.AuthService
	log  logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	UserID    int64  `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

// login authenticates by name or email and returns the session token.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req loginRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}

	remote := r.RemoteAddr
	session, err := h.auth.Login(r.Context(), req.Identifier, req.Password, &remote)
	if err != nil {
		return fail(err, "login failed")
	}
	return respondJSON(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// logout drops the caller's session.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	if userInfo.Anonymous() {
		return fail(service.ErrAuthFailed, "not logged in")
	}
	removed, err := h.auth.Logout(r.Context(), userInfo.UserID)
	if err != nil {
		return fail(err, "logout failed")
	}
	return respondJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}
