package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AuthorRepository handles typed authorship credits between pages and users.
type AuthorRepository struct {
	db *sqlx.DB
}

// NewAuthorRepository creates a new AuthorRepository.
func NewAuthorRepository(db *sqlx.DB) *AuthorRepository {
	return &AuthorRepository{db: db}
}

// Add records an authorship credit. Duplicate (page, user, type) rows fail
// with ErrExists.
func (r *AuthorRepository) Add(ctx context.Context, author *Author) error {
	query := `INSERT INTO authors (page_id, user_id, author_type)
		VALUES (:page_id, :user_id, :author_type)`
	if _, err := r.db.NamedExecContext(ctx, query, author); err != nil {
		return fmt.Errorf("failed to add author: %w", translate(err))
	}
	return nil
}

// Remove deletes an authorship credit.
func (r *AuthorRepository) Remove(ctx context.Context, pageID, userID int64, authorType AuthorType) error {
	query := `DELETE FROM authors WHERE page_id = $1 AND user_id = $2 AND author_type = $3`
	result, err := r.db.ExecContext(ctx, query, pageID, userID, authorType)
	if err != nil {
		return fmt.Errorf("failed to remove author: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// ListByPage retrieves the credits for a page.
func (r *AuthorRepository) ListByPage(ctx context.Context, pageID int64) ([]*Author, error) {
	var authors []*Author
	query := `SELECT page_id, user_id, author_type, created_at FROM authors
		WHERE page_id = $1 ORDER BY author_type, user_id`
	if err := r.db.SelectContext(ctx, &authors, query, pageID); err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	return authors, nil
}

// ListByUser retrieves the credits a user holds across pages.
func (r *AuthorRepository) ListByUser(ctx context.Context, userID int64) ([]*Author, error) {
	var authors []*Author
	query := `SELECT page_id, user_id, author_type, created_at FROM authors
		WHERE user_id = $1 ORDER BY page_id, author_type`
	if err := r.db.SelectContext(ctx, &authors, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	return authors, nil
}
