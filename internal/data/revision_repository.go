package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RevisionRepository handles the append-only revision history and its
// tag-change extension records.
type RevisionRepository struct {
	db *sqlx.DB
}

// NewRevisionRepository creates a new RevisionRepository.
func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

const revisionColumns = `revision_id, page_id, user_id, message, git_commit, change_type, created_at`

// Create appends a revision and fills in the generated ID and timestamp.
func (r *RevisionRepository) Create(ctx context.Context, rev *Revision) error {
	query := `INSERT INTO revisions (page_id, user_id, message, git_commit, change_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING revision_id, created_at`
	err := r.db.QueryRowxContext(ctx, query,
		rev.PageID, rev.UserID, rev.Message, rev.GitCommit, rev.ChangeType).
		Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create revision: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a single revision.
func (r *RevisionRepository) GetByID(ctx context.Context, id int64) (*Revision, error) {
	var rev Revision
	query := `SELECT ` + revisionColumns + ` FROM revisions WHERE revision_id = $1`
	if err := r.db.GetContext(ctx, &rev, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get revision: %w", err)
	}
	return &rev, nil
}

// ListByPage retrieves the revision history of a page, newest first.
func (r *RevisionRepository) ListByPage(ctx context.Context, pageID int64) ([]*Revision, error) {
	var revs []*Revision
	query := `SELECT ` + revisionColumns + ` FROM revisions
		WHERE page_id = $1 ORDER BY revision_id DESC`
	if err := r.db.SelectContext(ctx, &revs, query, pageID); err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	return revs, nil
}

// UpdateMessage edits the free-form message of a revision. The rest of a
// revision row is immutable.
func (r *RevisionRepository) UpdateMessage(ctx context.Context, id int64, message string) error {
	query := `UPDATE revisions SET message = $1 WHERE revision_id = $2`
	result, err := r.db.ExecContext(ctx, query, message, id)
	if err != nil {
		return fmt.Errorf("failed to edit revision message: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// LastCommit returns the git commit hash of the newest revision of a page.
func (r *RevisionRepository) LastCommit(ctx context.Context, pageID int64) (string, error) {
	var hash string
	query := `SELECT git_commit FROM revisions
		WHERE page_id = $1 ORDER BY revision_id DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &hash, query, pageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get last commit: %w", err)
	}
	return hash, nil
}

// LastCommitExcluding returns the newest commit hash of a page whose
// change type is not the given one. Restoration uses it to find the last
// content-bearing commit before a deletion.
func (r *RevisionRepository) LastCommitExcluding(ctx context.Context, pageID int64, exclude ChangeType) (string, error) {
	var hash string
	query := `SELECT git_commit FROM revisions
		WHERE page_id = $1 AND change_type <> $2
		ORDER BY revision_id DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &hash, query, pageID, exclude); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get last commit: %w", err)
	}
	return hash, nil
}

// CreateTagHistory appends the tag-change record extending a revision of
// type "tags".
func (r *RevisionRepository) CreateTagHistory(ctx context.Context, th *TagHistory) error {
	query := `INSERT INTO tag_history (revision_id, added_tags, removed_tags)
		VALUES (:revision_id, :added_tags, :removed_tags)`
	if _, err := r.db.NamedExecContext(ctx, query, th); err != nil {
		return fmt.Errorf("failed to create tag history: %w", translate(err))
	}
	return nil
}

// GetTagHistory retrieves the tag-change record of a revision.
func (r *RevisionRepository) GetTagHistory(ctx context.Context, revisionID int64) (*TagHistory, error) {
	var th TagHistory
	query := `SELECT revision_id, added_tags, removed_tags FROM tag_history
		WHERE revision_id = $1`
	if err := r.db.GetContext(ctx, &th, query, revisionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag history: %w", err)
	}
	return &th, nil
}
