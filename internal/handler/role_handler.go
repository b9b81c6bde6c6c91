package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wellspring/internal/data"
	"wellspring/internal/logger"
	"wellspring/internal/middleware"
	"wellspring/internal/service"
)

// RoleHandler serves per-wiki role management.
type RoleHandler struct {
	roles *service.RoleService
	wikis *service.WikiService
	log   logger.Logger
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(roles *service.RoleService, wikis *service.WikiService, log logger.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, wikis: wikis, log: log}
}

func (h *RoleHandler) wiki(r *http.Request) (*data.Wiki, *middleware.AppError) {
	wiki, err := h.wikis.GetBySlug(r.Context(), chi.URLParam(r, "wiki"))
	if err != nil {
		return nil, fail(err, "failed to resolve wiki")
	}
	return wiki, nil
}

func roleID(r *http.Request) (int64, *middleware.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "role"), 10, 64)
	if err != nil {
		return 0, &middleware.AppError{Err: err, Message: "invalid role id", Code: http.StatusBadRequest}
	}
	return id, nil
}

type createRoleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func parsePermissions(names []string) (data.PermissionSet, *middleware.AppError) {
	var set data.PermissionSet
	for _, name := range names {
		p, err := data.ParsePermission(name)
		if err != nil {
			return 0, &middleware.AppError{Err: err, Message: err.Error(), Code: http.StatusBadRequest}
		}
		set = set.With(p)
	}
	return set, nil
}

// create adds a role to a wiki.
func (h *RoleHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req createRoleRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	set, appErr := parsePermissions(req.Permissions)
	if appErr != nil {
		return appErr
	}
	role, err := h.roles.Create(r.Context(), wiki.ID, req.Name, set)
	if err != nil {
		return fail(err, "failed to create role")
	}
	return respondJSON(w, http.StatusCreated, role)
}

// get returns one role.
func (h *RoleHandler) get(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if _, appErr := h.wiki(r); appErr != nil {
		return appErr
	}
	id, appErr := roleID(r)
	if appErr != nil {
		return appErr
	}
	role, err := h.roles.Get(r.Context(), id)
	if err != nil {
		return fail(err, "failed to get role")
	}
	return respondJSON(w, http.StatusOK, role)
}

// members lists the holders of a role.
func (h *RoleHandler) members(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if _, appErr := h.wiki(r); appErr != nil {
		return appErr
	}
	id, appErr := roleID(r)
	if appErr != nil {
		return appErr
	}
	members, err := h.roles.Members(r.Context(), id)
	if err != nil {
		return fail(err, "failed to list role members")
	}
	return respondJSON(w, http.StatusOK, members)
}

// list returns a wiki's roles.
func (h *RoleHandler) list(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	roles, err := h.roles.List(r.Context(), wiki.ID)
	if err != nil {
		return fail(err, "failed to list roles")
	}
	return respondJSON(w, http.StatusOK, roles)
}

type setPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// setPermissions replaces a role's permission set.
func (h *RoleHandler) setPermissions(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if _, appErr := h.wiki(r); appErr != nil {
		return appErr
	}
	id, appErr := roleID(r)
	if appErr != nil {
		return appErr
	}
	var req setPermissionsRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	set, appErr := parsePermissions(req.Permissions)
	if appErr != nil {
		return appErr
	}
	if err := h.roles.SetPermissions(r.Context(), id, set); err != nil {
		return fail(err, "failed to set permissions")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// assign gives a member the role.
func (h *RoleHandler) assign(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := roleID(r)
	if appErr != nil {
		return appErr
	}
	user, appErr := memberID(r)
	if appErr != nil {
		return appErr
	}
	if err := h.roles.Assign(r.Context(), wiki.ID, id, user); err != nil {
		return fail(err, "failed to assign role")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// unassign removes the role from a member.
func (h *RoleHandler) unassign(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := roleID(r)
	if appErr != nil {
		return appErr
	}
	user, appErr := memberID(r)
	if appErr != nil {
		return appErr
	}
	if err := h.roles.Unassign(r.Context(), wiki.ID, id, user); err != nil {
		return fail(err, "failed to unassign role")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// userRoles lists the roles a user holds in the wiki.
func (h *RoleHandler) userRoles(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	user, appErr := memberID(r)
	if appErr != nil {
		return appErr
	}
	roles, err := h.roles.UserRoles(r.Context(), wiki.ID, user)
	if err != nil {
		return fail(err, "failed to list user roles")
	}
	return respondJSON(w, http.StatusOK, roles)
}
