package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RoleRepository handles roles and their membership within wikis.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a role. A duplicate name within the same wiki fails with
// ErrExists; the same name across wikis is fine.
func (r *RoleRepository) Create(ctx context.Context, role *Role) error {
	query := `INSERT INTO roles (wiki_id, name, permission_set)
		VALUES ($1, $2, $3)
		RETURNING role_id`
	err := r.db.QueryRowxContext(ctx, query, role.WikiID, role.Name, role.PermissionSet).
		Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a role.
func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*Role, error) {
	var role Role
	query := `SELECT role_id, wiki_id, name, permission_set FROM roles WHERE role_id = $1`
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

// ListByWiki retrieves the roles of a wiki.
func (r *RoleRepository) ListByWiki(ctx context.Context, wikiID int64) ([]*Role, error) {
	var roles []*Role
	query := `SELECT role_id, wiki_id, name, permission_set FROM roles
		WHERE wiki_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &roles, query, wikiID); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// UpdatePermissions replaces the permission set of a role.
func (r *RoleRepository) UpdatePermissions(ctx context.Context, id int64, set PermissionSet) error {
	query := `UPDATE roles SET permission_set = $1 WHERE role_id = $2`
	result, err := r.db.ExecContext(ctx, query, set, id)
	if err != nil {
		return fmt.Errorf("failed to update role permissions: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}

// AddMember assigns a role to a user within a wiki.
func (r *RoleRepository) AddMember(ctx context.Context, m *RoleMembership) error {
	query := `INSERT INTO role_membership (wiki_id, role_id, user_id)
		VALUES (:wiki_id, :role_id, :user_id)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to add role member: %w", translate(err))
	}
	return nil
}

// RemoveMember removes a role assignment.
func (r *RoleRepository) RemoveMember(ctx context.Context, wikiID, roleID, userID int64) error {
	query := `DELETE FROM role_membership
		WHERE wiki_id = $1 AND role_id = $2 AND user_id = $3`
	result, err := r.db.ExecContext(ctx, query, wikiID, roleID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove role member: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// ListMembers retrieves the role assignments for a role.
func (r *RoleRepository) ListMembers(ctx context.Context, roleID int64) ([]*RoleMembership, error) {
	var members []*RoleMembership
	query := `SELECT wiki_id, role_id, user_id, applied_at FROM role_membership
		WHERE role_id = $1 ORDER BY user_id`
	if err := r.db.SelectContext(ctx, &members, query, roleID); err != nil {
		return nil, fmt.Errorf("failed to list role members: %w", err)
	}
	return members, nil
}

// ListUserRoles retrieves all roles a user holds within a wiki.
func (r *RoleRepository) ListUserRoles(ctx context.Context, wikiID, userID int64) ([]*Role, error) {
	var roles []*Role
	query := `SELECT r.role_id, r.wiki_id, r.name, r.permission_set
		FROM roles r
		JOIN role_membership m ON m.role_id = r.role_id
		WHERE m.wiki_id = $1 AND m.user_id = $2
		ORDER BY r.name`
	if err := r.db.SelectContext(ctx, &roles, query, wikiID, userID); err != nil {
		return nil, fmt.Errorf("failed to list user roles: %w", err)
	}
	return roles, nil
}
