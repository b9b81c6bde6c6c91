package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wellspring/internal/logger"
	"wellspring/internal/middleware"
	"wellspring/internal/service"
)

// UserHandler serves account management.
type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
	log   logger.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, auth *service.AuthService, log logger.Logger) *UserHandler {
	return &UserHandler{users: users, auth: auth, log: log}
}

func userID(r *http.Request) (int64, *middleware.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &middleware.AppError{Err: err, Message: "invalid user id", Code: http.StatusBadRequest}
	}
	return id, nil
}

// requireSelf rejects callers operating on someone else's account, with
// an exception for administrators.
func requireSelf(r *http.Request, id int64) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	if userInfo.UserID != id && userInfo.Subject != "admin" {
		return &middleware.AppError{Message: "forbidden", Code: http.StatusForbidden}
	}
	return nil
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsBot    bool   `json:"is_bot"`
}

// create registers an account, with its initial password when one is
// given.
func (h *UserHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req createUserRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email, req.IsBot)
	if err != nil {
		return fail(err, "failed to create user")
	}
	if req.Password != "" {
		if err := h.auth.SetPassword(r.Context(), user.ID, req.Password); err != nil {
			return fail(err, "failed to set password")
		}
	}
	return respondJSON(w, http.StatusCreated, user)
}

// get returns a user's profile.
func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := userID(r)
	if appErr != nil {
		return appErr
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		return fail(err, "failed to get user")
	}
	return respondJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	AuthorPage string `json:"author_page"`
	Website    string `json:"website"`
	About      string `json:"about"`
	Gender     string `json:"gender"`
	Location   string `json:"location"`
}

// update writes a user's profile fields.
func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := userID(r)
	if appErr != nil {
		return appErr
	}
	if appErr := requireSelf(r, id); appErr != nil {
		return appErr
	}
	var req updateProfileRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		return fail(err, "failed to get user")
	}
	user.AuthorPage = req.AuthorPage
	user.Website = req.Website
	user.About = req.About
	user.Gender = req.Gender
	user.Location = req.Location
	if err := h.users.UpdateProfile(r.Context(), user); err != nil {
		return fail(err, "failed to update profile")
	}
	return respondJSON(w, http.StatusOK, user)
}

// delete soft-deletes an account.
func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := userID(r)
	if appErr != nil {
		return appErr
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		return fail(err, "failed to delete user")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// verify marks a user's email as verified.
func (h *UserHandler) verify(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := userID(r)
	if appErr != nil {
		return appErr
	}
	if err := h.users.Verify(r.Context(), id); err != nil {
		return fail(err, "failed to verify user")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

// setPassword replaces a user's password.
func (h *UserHandler) setPassword(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := userID(r)
	if appErr != nil {
		return appErr
	}
	if appErr := requireSelf(r, id); appErr != nil {
		return appErr
	}
	var req setPasswordRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	if err := h.auth.SetPassword(r.Context(), id, req.Password); err != nil {
		return fail(err, "failed to set password")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// logins returns a user's login audit log.
func (h *UserHandler) logins(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := userID(r)
	if appErr != nil {
		return appErr
	}
	if appErr := requireSelf(r, id); appErr != nil {
		return appErr
	}
	attempts, err := h.auth.LoginHistory(r.Context(), id)
	if err != nil {
		return fail(err, "failed to list login attempts")
	}
	return respondJSON(w, http.StatusOK, attempts)
}
