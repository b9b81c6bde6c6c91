package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wellspring/internal/data"
	"wellspring/internal/logger"
	"wellspring/internal/middleware"
	"wellspring/internal/service"
)

// WikiHandler serves wiki management and membership.
type WikiHandler struct {
	wikis *service.WikiService
	log   logger.Logger
}

// NewWikiHandler creates a new WikiHandler.
func NewWikiHandler(wikis *service.WikiService, log logger.Logger) *WikiHandler {
	return &WikiHandler{wikis: wikis, log: log}
}

// wiki resolves the {wiki} slug in the route to its row.
func (h *WikiHandler) wiki(r *http.Request) (*data.Wiki, *middleware.AppError) {
	wiki, err := h.wikis.GetBySlug(r.Context(), chi.URLParam(r, "wiki"))
	if err != nil {
		return nil, fail(err, "failed to resolve wiki")
	}
	return wiki, nil
}

type createWikiRequest struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Domain string `json:"domain"`
}

// create registers a new wiki.
func (h *WikiHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req createWikiRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	wiki, err := h.wikis.Create(r.Context(), req.Name, req.Slug, req.Domain)
	if err != nil {
		return fail(err, "failed to create wiki")
	}
	return respondJSON(w, http.StatusCreated, wiki)
}

// list returns all wikis.
func (h *WikiHandler) list(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wikis, err := h.wikis.List(r.Context())
	if err != nil {
		return fail(err, "failed to list wikis")
	}
	return respondJSON(w, http.StatusOK, wikis)
}

// get returns a wiki by slug.
func (h *WikiHandler) get(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	return respondJSON(w, http.StatusOK, wiki)
}

type updateWikiRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// update changes a wiki's name and/or domain. The slug is permanent.
func (h *WikiHandler) update(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req updateWikiRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}

	if req.Name != "" && req.Name != wiki.Name {
		if err := h.wikis.Rename(r.Context(), wiki.ID, req.Name); err != nil {
			return fail(err, "failed to rename wiki")
		}
	}
	if req.Domain != "" && req.Domain != wiki.Domain {
		if err := h.wikis.SetDomain(r.Context(), wiki.ID, req.Domain); err != nil {
			return fail(err, "failed to change wiki domain")
		}
	}

	updated, err := h.wikis.GetByID(r.Context(), wiki.ID)
	if err != nil {
		return fail(err, "failed to get wiki")
	}
	return respondJSON(w, http.StatusOK, updated)
}

// settings returns a wiki's settings.
func (h *WikiHandler) settings(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	settings, err := h.wikis.Settings(r.Context(), wiki.ID)
	if err != nil {
		return fail(err, "failed to get settings")
	}
	return respondJSON(w, http.StatusOK, settings)
}

type updateSettingsRequest struct {
	PageLockDuration int16 `json:"page_lock_duration"`
}

// updateSettings writes a wiki's settings.
func (h *WikiHandler) updateSettings(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req updateSettingsRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	settings := &data.WikiSettings{WikiID: wiki.ID, PageLockDuration: req.PageLockDuration}
	if err := h.wikis.UpdateSettings(r.Context(), settings); err != nil {
		return fail(err, "failed to update settings")
	}
	return respondJSON(w, http.StatusOK, settings)
}

// join adds the caller as a member of the wiki.
func (h *WikiHandler) join(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	userInfo := middleware.GetUserInfo(r.Context())
	m, err := h.wikis.Join(r.Context(), wiki.ID, userInfo.UserID)
	if err != nil {
		return fail(err, "failed to join wiki")
	}
	return respondJSON(w, http.StatusCreated, m)
}

// members lists a wiki's memberships.
func (h *WikiHandler) members(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	members, err := h.wikis.Members(r.Context(), wiki.ID)
	if err != nil {
		return fail(err, "failed to list members")
	}
	return respondJSON(w, http.StatusOK, members)
}

func memberID(r *http.Request) (int64, *middleware.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "user"), 10, 64)
	if err != nil {
		return 0, &middleware.AppError{Err: err, Message: "invalid user id", Code: http.StatusBadRequest}
	}
	return id, nil
}

type banRequest struct {
	// Until is RFC 3339; empty means indefinite.
	Until string `json:"until"`
}

// ban bans a member, optionally until a given time.
func (h *WikiHandler) ban(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := memberID(r)
	if appErr != nil {
		return appErr
	}
	var req banRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}

	var until *time.Time
	if req.Until != "" {
		t, err := time.Parse(time.RFC3339, req.Until)
		if err != nil {
			return &middleware.AppError{Err: err, Message: "invalid ban expiry", Code: http.StatusBadRequest}
		}
		until = &t
	}
	if err := h.wikis.Ban(r.Context(), wiki.ID, id, until); err != nil {
		return fail(err, "failed to ban member")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// unban lifts a member's ban.
func (h *WikiHandler) unban(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := memberID(r)
	if appErr != nil {
		return appErr
	}
	if err := h.wikis.Unban(r.Context(), wiki.ID, id); err != nil {
		return fail(err, "failed to unban member")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}
