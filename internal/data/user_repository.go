package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UserRepository handles database operations for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `user_id, name, email, is_verified, is_bot, author_page,
	website, about, gender, location, created_at, deleted_at`

// Create inserts a new user and fills in the generated ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (name, email, is_bot)
		VALUES ($1, $2, $3)
		RETURNING user_id, created_at`
	err := r.db.QueryRowxContext(ctx, query, user.Name, user.Email, user.IsBot).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a user by ID, including soft-deleted accounts.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// GetByName retrieves a user by their unique name.
func (r *UserRepository) GetByName(ctx context.Context, name string) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE name = $1`
	if err := r.db.GetContext(ctx, &user, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their unique lower-cased email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UpdateProfile updates the mutable profile fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *User) error {
	query := `UPDATE users SET author_page = :author_page, website = :website,
		about = :about, gender = :gender, location = :location
		WHERE user_id = :user_id AND deleted_at IS NULL`
	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}

// SetVerified marks a user's email address as verified.
func (r *UserRepository) SetVerified(ctx context.Context, id int64) error {
	query := `UPDATE users SET is_verified = true WHERE user_id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// SoftDelete marks the account as deleted without removing the row, so
// revisions and ratings keep valid references.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE users SET deleted_at = now() WHERE user_id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// requireRow converts a zero-row write into the given sentinel error.
func requireRow(result sql.Result, missing error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return missing
	}
	return nil
}
