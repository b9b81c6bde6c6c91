package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// MembershipRepository handles wiki membership rows, including bans.
type MembershipRepository struct {
	db *sqlx.DB
}

// NewMembershipRepository creates a new MembershipRepository.
func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const membershipColumns = `wiki_id, user_id, applied_at, joined_at, banned_at, banned_until`

// Join records a user joining a wiki.
func (r *MembershipRepository) Join(ctx context.Context, wikiID, userID int64) (*WikiMembership, error) {
	var m WikiMembership
	query := `INSERT INTO wiki_membership (wiki_id, user_id)
		VALUES ($1, $2)
		RETURNING ` + membershipColumns
	if err := r.db.GetContext(ctx, &m, query, wikiID, userID); err != nil {
		return nil, fmt.Errorf("failed to join wiki: %w", translate(err))
	}
	return &m, nil
}

// Get retrieves a membership row.
func (r *MembershipRepository) Get(ctx context.Context, wikiID, userID int64) (*WikiMembership, error) {
	var m WikiMembership
	query := `SELECT ` + membershipColumns + ` FROM wiki_membership
		WHERE wiki_id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &m, query, wikiID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// ListByWiki retrieves the memberships of a wiki.
func (r *MembershipRepository) ListByWiki(ctx context.Context, wikiID int64) ([]*WikiMembership, error) {
	var members []*WikiMembership
	query := `SELECT ` + membershipColumns + ` FROM wiki_membership
		WHERE wiki_id = $1 ORDER BY user_id`
	if err := r.db.SelectContext(ctx, &members, query, wikiID); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// SetBan records a ban window on a membership. A nil until makes the ban
// indefinite.
func (r *MembershipRepository) SetBan(ctx context.Context, wikiID, userID int64, until *time.Time) error {
	query := `UPDATE wiki_membership SET banned_at = now(), banned_until = $1
		WHERE wiki_id = $2 AND user_id = $3`
	result, err := r.db.ExecContext(ctx, query, until, wikiID, userID)
	if err != nil {
		return fmt.Errorf("failed to ban member: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// ClearBan lifts a ban.
func (r *MembershipRepository) ClearBan(ctx context.Context, wikiID, userID int64) error {
	query := `UPDATE wiki_membership SET banned_at = NULL, banned_until = NULL
		WHERE wiki_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, wikiID, userID)
	if err != nil {
		return fmt.Errorf("failed to lift ban: %w", err)
	}
	return requireRow(result, ErrNotFound)
}
