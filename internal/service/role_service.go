package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wellspring/internal/data"
)

// RoleRepository defines the interface for role rows and their member
// assignments.
type RoleRepository interface {
	Create(ctx context.Context, role *data.Role) error
	GetByID(ctx context.Context, id int64) (*data.Role, error)
	ListByWiki(ctx context.Context, wikiID int64) ([]*data.Role, error)
	UpdatePermissions(ctx context.Context, id int64, set data.PermissionSet) error
	AddMember(ctx context.Context, m *data.RoleMembership) error
	RemoveMember(ctx context.Context, wikiID, roleID, userID int64) error
	ListMembers(ctx context.Context, roleID int64) ([]*data.RoleMembership, error)
	ListUserRoles(ctx context.Context, wikiID, userID int64) ([]*data.Role, error)
}

// RoleService manages per-wiki roles and answers permission queries. A
// user's effective permissions are the union of all their roles in that
// wiki.
type RoleService struct {
	roles       RoleRepository
	memberships MembershipRepository
}

// NewRoleService creates a new RoleService.
func NewRoleService(roles RoleRepository, memberships MembershipRepository) *RoleService {
	return &RoleService{roles: roles, memberships: memberships}
}

// Create adds a role to a wiki. Role names are unique per wiki.
func (s *RoleService) Create(ctx context.Context, wikiID int64, name string, set data.PermissionSet) (*data.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("role name must not be empty")
	}
	role := &data.Role{WikiID: wikiID, Name: name, PermissionSet: set}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Get returns a role by ID.
func (s *RoleService) Get(ctx context.Context, id int64) (*data.Role, error) {
	return s.roles.GetByID(ctx, id)
}

// List returns the roles of a wiki.
func (s *RoleService) List(ctx context.Context, wikiID int64) ([]*data.Role, error) {
	return s.roles.ListByWiki(ctx, wikiID)
}

// SetPermissions replaces a role's permission set.
func (s *RoleService) SetPermissions(ctx context.Context, roleID int64, set data.PermissionSet) error {
	return s.roles.UpdatePermissions(ctx, roleID, set)
}

// Assign gives a wiki member a role. The user must already be a member of
// the wiki and not banned.
func (s *RoleService) Assign(ctx context.Context, wikiID, roleID, userID int64) error {
	m, err := s.memberships.Get(ctx, wikiID, userID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	if m.Banned(time.Now()) {
		return ErrBanned
	}
	return s.roles.AddMember(ctx, &data.RoleMembership{WikiID: wikiID, RoleID: roleID, UserID: userID})
}

// Unassign removes a role from a user.
func (s *RoleService) Unassign(ctx context.Context, wikiID, roleID, userID int64) error {
	return s.roles.RemoveMember(ctx, wikiID, roleID, userID)
}

// Members lists the users holding a role.
func (s *RoleService) Members(ctx context.Context, roleID int64) ([]*data.RoleMembership, error) {
	return s.roles.ListMembers(ctx, roleID)
}

// UserRoles lists the roles a user holds in a wiki.
func (s *RoleService) UserRoles(ctx context.Context, wikiID, userID int64) ([]*data.Role, error) {
	return s.roles.ListUserRoles(ctx, wikiID, userID)
}

// Permissions returns the union of the permission sets of a user's roles
// in a wiki.
func (s *RoleService) Permissions(ctx context.Context, wikiID, userID int64) (data.PermissionSet, error) {
	roles, err := s.roles.ListUserRoles(ctx, wikiID, userID)
	if err != nil {
		return 0, err
	}
	var set data.PermissionSet
	for _, role := range roles {
		set |= role.PermissionSet
	}
	return set, nil
}

// Can reports whether a user holds a permission in a wiki through any of
// their roles.
func (s *RoleService) Can(ctx context.Context, wikiID, userID int64, p data.Permission) (bool, error) {
	set, err := s.Permissions(ctx, wikiID, userID)
	if err != nil {
		return false, err
	}
	return set.Has(p), nil
}
