package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AuthRepository handles credential records, the login-attempt audit log
// and active sessions.
type AuthRepository struct {
	db *sqlx.DB
}

// NewAuthRepository creates a new AuthRepository.
func NewAuthRepository(db *sqlx.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

// SetPassword writes a user's credential record, replacing any existing
// one.
func (r *AuthRepository) SetPassword(ctx context.Context, p *Password) error {
	query := `INSERT INTO passwords (user_id, hash, salt, logn, param_r, param_p)
		VALUES (:user_id, :hash, :salt, :logn, :param_r, :param_p)
		ON CONFLICT (user_id) DO UPDATE SET
			hash = EXCLUDED.hash, salt = EXCLUDED.salt, logn = EXCLUDED.logn,
			param_r = EXCLUDED.param_r, param_p = EXCLUDED.param_p`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to set password: %w", translate(err))
	}
	return nil
}

// GetPassword retrieves a user's credential record.
func (r *AuthRepository) GetPassword(ctx context.Context, userID int64) (*Password, error) {
	var p Password
	query := `SELECT user_id, hash, salt, logn, param_r, param_p
		FROM passwords WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &p, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get password: %w", err)
	}
	return &p, nil
}

// RecordLoginAttempt appends a row to the immutable audit log and fills in
// the generated ID. Every authentication attempt is recorded, successful
// or not.
func (r *AuthRepository) RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error {
	query := `INSERT INTO login_attempts (user_id, username_or_email, remote_address, success)
		VALUES ($1, $2, $3, $4)
		RETURNING login_attempt_id, attempted_at`
	err := r.db.QueryRowxContext(ctx, query,
		attempt.UserID, attempt.UsernameOrEmail, attempt.RemoteAddress, attempt.Success).
		Scan(&attempt.ID, &attempt.AttemptedAt)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", translate(err))
	}
	return nil
}

// ListLoginAttempts retrieves the audit log for a user, newest first.
func (r *AuthRepository) ListLoginAttempts(ctx context.Context, userID int64) ([]*LoginAttempt, error) {
	var attempts []*LoginAttempt
	query := `SELECT login_attempt_id, user_id, username_or_email, remote_address, success, attempted_at
		FROM login_attempts WHERE user_id = $1 ORDER BY login_attempt_id DESC`
	if err := r.db.SelectContext(ctx, &attempts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list login attempts: %w", err)
	}
	return attempts, nil
}

// CreateSession inserts a session row and fills in the generated fields.
// A user can hold only one session; the caller removes any existing one
// first.
func (r *AuthRepository) CreateSession(ctx context.Context, s *Session) error {
	query := `INSERT INTO sessions (user_id, token, ip_address, login_attempt_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING session_id, created_at`
	err := r.db.QueryRowxContext(ctx, query,
		s.UserID, s.Token, s.IPAddress, s.LoginAttemptID, s.ExpiresAt).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", translate(err))
	}
	return nil
}

const sessionColumns = `session_id, user_id, token, ip_address, login_attempt_id, created_at, expires_at`

// GetSessionByUser retrieves a user's active session, if any.
func (r *AuthRepository) GetSessionByUser(ctx context.Context, userID int64) (*Session, error) {
	var s Session
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &s, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// GetSessionByToken retrieves a session by its token.
func (r *AuthRepository) GetSessionByToken(ctx context.Context, token string) (*Session, error) {
	var s Session
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`
	if err := r.db.GetContext(ctx, &s, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}
	return &s, nil
}

// DeleteSessionByUser removes a user's session. Returns true if one was
// present.
func (r *AuthRepository) DeleteSessionByUser(ctx context.Context, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
