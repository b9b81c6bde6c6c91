package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PageRepository handles database operations for pages, their locks and
// their parent links. Page content lives in the revision store; these rows
// carry the metadata.
type PageRepository struct {
	db *sqlx.DB
}

// NewPageRepository creates a new PageRepository.
func NewPageRepository(db *sqlx.DB) *PageRepository {
	return &PageRepository{db: db}
}

const pageColumns = `page_id, wiki_id, slug, title, alt_title, tags, created_at, deleted_at`

// Create inserts a new page and fills in the generated ID and timestamp.
// A live page with the same slug makes this fail with ErrExists through
// the partial unique index.
func (r *PageRepository) Create(ctx context.Context, page *Page) error {
	query := `INSERT INTO pages (wiki_id, slug, title, alt_title)
		VALUES ($1, $2, $3, $4)
		RETURNING page_id, created_at`
	err := r.db.QueryRowxContext(ctx, query, page.WikiID, page.Slug, page.Title, page.AltTitle).
		Scan(&page.ID, &page.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create page: %w", translate(err))
	}
	return nil
}

// GetLive retrieves the live (not soft-deleted) page for a slug.
func (r *PageRepository) GetLive(ctx context.Context, wikiID int64, slug string) (*Page, error) {
	var page Page
	query := `SELECT ` + pageColumns + ` FROM pages
		WHERE wiki_id = $1 AND slug = $2 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &page, query, wikiID, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get page by slug: %w", err)
	}
	return &page, nil
}

// GetByID retrieves a page by ID, soft-deleted or not.
func (r *PageRepository) GetByID(ctx context.Context, id int64) (*Page, error) {
	var page Page
	query := `SELECT ` + pageColumns + ` FROM pages WHERE page_id = $1`
	if err := r.db.GetContext(ctx, &page, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get page by id: %w", err)
	}
	return &page, nil
}

// ListLive retrieves all live pages of a wiki ordered by slug.
func (r *PageRepository) ListLive(ctx context.Context, wikiID int64) ([]*Page, error) {
	var pages []*Page
	query := `SELECT ` + pageColumns + ` FROM pages
		WHERE wiki_id = $1 AND deleted_at IS NULL ORDER BY slug`
	if err := r.db.SelectContext(ctx, &pages, query, wikiID); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}

// GetLastDeleted retrieves the most recently created soft-deleted page for
// a slug, the candidate for restoration.
func (r *PageRepository) GetLastDeleted(ctx context.Context, wikiID int64, slug string) (*Page, error) {
	var page Page
	query := `SELECT ` + pageColumns + ` FROM pages
		WHERE wiki_id = $1 AND slug = $2 AND deleted_at IS NOT NULL
		ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &page, query, wikiID, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deleted page: %w", err)
	}
	return &page, nil
}

// UpdateTitles updates the title and alternate title of a page.
func (r *PageRepository) UpdateTitles(ctx context.Context, id int64, title string, altTitle *string) error {
	query := `UPDATE pages SET title = $1, alt_title = $2 WHERE page_id = $3`
	result, err := r.db.ExecContext(ctx, query, title, altTitle, id)
	if err != nil {
		return fmt.Errorf("failed to update page titles: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}

// UpdateSlug renames a page.
func (r *PageRepository) UpdateSlug(ctx context.Context, id int64, slug string) error {
	query := `UPDATE pages SET slug = $1 WHERE page_id = $2`
	result, err := r.db.ExecContext(ctx, query, slug, id)
	if err != nil {
		return fmt.Errorf("failed to rename page: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}

// SetTags replaces the page's tag list.
func (r *PageRepository) SetTags(ctx context.Context, id int64, tags []string) error {
	query := `UPDATE pages SET tags = $1 WHERE page_id = $2`
	result, err := r.db.ExecContext(ctx, query, pq.StringArray(tags), id)
	if err != nil {
		return fmt.Errorf("failed to set page tags: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}

// SoftDelete marks a page as deleted, freeing its slug for reuse.
func (r *PageRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE pages SET deleted_at = now() WHERE page_id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// Restore clears the soft-delete marker and sets the slug the page comes
// back under. Fails with ErrExists if a live page holds that slug.
func (r *PageRepository) Restore(ctx context.Context, id int64, slug string) error {
	query := `UPDATE pages SET deleted_at = NULL, slug = $1
		WHERE page_id = $2 AND deleted_at IS NOT NULL`
	result, err := r.db.ExecContext(ctx, query, slug, id)
	if err != nil {
		return fmt.Errorf("failed to restore page: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}

// --- Page locks ---

// GetLock retrieves the advisory lock on a page, if any.
func (r *PageRepository) GetLock(ctx context.Context, pageID int64) (*PageLock, error) {
	var lock PageLock
	query := `SELECT page_id, user_id, locked_until FROM page_locks WHERE page_id = $1`
	if err := r.db.GetContext(ctx, &lock, query, pageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get page lock: %w", err)
	}
	return &lock, nil
}

// UpsertLock writes the advisory lock, replacing an existing row. The
// service layer decides whether replacing is allowed.
func (r *PageRepository) UpsertLock(ctx context.Context, lock *PageLock) error {
	query := `INSERT INTO page_locks (page_id, user_id, locked_until)
		VALUES (:page_id, :user_id, :locked_until)
		ON CONFLICT (page_id) DO UPDATE
		SET user_id = EXCLUDED.user_id, locked_until = EXCLUDED.locked_until`
	if _, err := r.db.NamedExecContext(ctx, query, lock); err != nil {
		return fmt.Errorf("failed to write page lock: %w", translate(err))
	}
	return nil
}

// DeleteLock removes the advisory lock on a page. Deleting a missing lock
// is not an error.
func (r *PageRepository) DeleteLock(ctx context.Context, pageID int64) error {
	query := `DELETE FROM page_locks WHERE page_id = $1`
	if _, err := r.db.ExecContext(ctx, query, pageID); err != nil {
		return fmt.Errorf("failed to delete page lock: %w", err)
	}
	return nil
}

// --- Parent links ---

// AddParent records a parent link between two pages.
func (r *PageRepository) AddParent(ctx context.Context, parent *PageParent) error {
	query := `INSERT INTO parents (page_id, parent_page_id, parented_by)
		VALUES (:page_id, :parent_page_id, :parented_by)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("failed to add page parent: %w", translate(err))
	}
	return nil
}

// RemoveParent removes a parent link.
func (r *PageRepository) RemoveParent(ctx context.Context, pageID, parentPageID int64) error {
	query := `DELETE FROM parents WHERE page_id = $1 AND parent_page_id = $2`
	result, err := r.db.ExecContext(ctx, query, pageID, parentPageID)
	if err != nil {
		return fmt.Errorf("failed to remove page parent: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// ListParents retrieves the parent links of a page.
func (r *PageRepository) ListParents(ctx context.Context, pageID int64) ([]*PageParent, error) {
	var parents []*PageParent
	query := `SELECT page_id, parent_page_id, parented_by, parented_at
		FROM parents WHERE page_id = $1 ORDER BY parent_page_id`
	if err := r.db.SelectContext(ctx, &parents, query, pageID); err != nil {
		return nil, fmt.Errorf("failed to list page parents: %w", err)
	}
	return parents, nil
}

// ListChildren retrieves the links in which a page is the parent.
func (r *PageRepository) ListChildren(ctx context.Context, parentPageID int64) ([]*PageParent, error) {
	var children []*PageParent
	query := `SELECT page_id, parent_page_id, parented_by, parented_at
		FROM parents WHERE parent_page_id = $1 ORDER BY page_id`
	if err := r.db.SelectContext(ctx, &children, query, parentPageID); err != nil {
		return nil, fmt.Errorf("failed to list page children: %w", err)
	}
	return children, nil
}
