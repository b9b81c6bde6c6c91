package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WikiRepository handles database operations for wikis and their settings.
type WikiRepository struct {
	db *sqlx.DB
}

// NewWikiRepository creates a new WikiRepository.
func NewWikiRepository(db *sqlx.DB) *WikiRepository {
	return &WikiRepository{db: db}
}

// Create inserts a wiki together with its settings row. The two rows are
// written in one transaction so a wiki can never exist without settings.
func (r *WikiRepository) Create(ctx context.Context, wiki *Wiki, settings *WikiSettings) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO wikis (name, slug, domain)
		VALUES ($1, $2, $3)
		RETURNING wiki_id, created_at`
	err = tx.QueryRowxContext(ctx, query, wiki.Name, wiki.Slug, wiki.Domain).
		Scan(&wiki.ID, &wiki.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wiki: %w", translate(err))
	}

	settings.WikiID = wiki.ID
	if settings.PageLockDuration <= 0 {
		// Schema default applies when the caller didn't pick a duration.
		query = `INSERT INTO wiki_settings (wiki_id) VALUES ($1)
			RETURNING page_lock_duration`
		if err := tx.QueryRowxContext(ctx, query, wiki.ID).Scan(&settings.PageLockDuration); err != nil {
			return fmt.Errorf("failed to create wiki settings: %w", translate(err))
		}
	} else {
		query = `INSERT INTO wiki_settings (wiki_id, page_lock_duration) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, query, wiki.ID, settings.PageLockDuration); err != nil {
			return fmt.Errorf("failed to create wiki settings: %w", translate(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wiki creation: %w", err)
	}
	return nil
}

// GetByID retrieves a wiki by its ID.
func (r *WikiRepository) GetByID(ctx context.Context, id int64) (*Wiki, error) {
	var wiki Wiki
	query := `SELECT wiki_id, name, slug, domain, created_at FROM wikis WHERE wiki_id = $1`
	if err := r.db.GetContext(ctx, &wiki, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wiki by id: %w", err)
	}
	return &wiki, nil
}

// GetBySlug retrieves a wiki by its unique slug.
func (r *WikiRepository) GetBySlug(ctx context.Context, slug string) (*Wiki, error) {
	var wiki Wiki
	query := `SELECT wiki_id, name, slug, domain, created_at FROM wikis WHERE slug = $1`
	if err := r.db.GetContext(ctx, &wiki, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wiki by slug: %w", err)
	}
	return &wiki, nil
}

// GetAll retrieves every wiki. Used to warm the wiki service's in-memory
// map at startup.
func (r *WikiRepository) GetAll(ctx context.Context) ([]*Wiki, error) {
	var wikis []*Wiki
	query := `SELECT wiki_id, name, slug, domain, created_at FROM wikis ORDER BY wiki_id`
	if err := r.db.SelectContext(ctx, &wikis, query); err != nil {
		return nil, fmt.Errorf("failed to get wikis: %w", err)
	}
	return wikis, nil
}

// UpdateName renames a wiki. Slugs are immutable once created.
func (r *WikiRepository) UpdateName(ctx context.Context, id int64, name string) error {
	query := `UPDATE wikis SET name = $1 WHERE wiki_id = $2`
	result, err := r.db.ExecContext(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename wiki: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}

// UpdateDomain changes the wiki's associated domain.
func (r *WikiRepository) UpdateDomain(ctx context.Context, id int64, domain string) error {
	query := `UPDATE wikis SET domain = $1 WHERE wiki_id = $2`
	result, err := r.db.ExecContext(ctx, query, domain, id)
	if err != nil {
		return fmt.Errorf("failed to change wiki domain: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}

// GetSettings retrieves the settings row for a wiki.
func (r *WikiRepository) GetSettings(ctx context.Context, wikiID int64) (*WikiSettings, error) {
	var settings WikiSettings
	query := `SELECT wiki_id, page_lock_duration FROM wiki_settings WHERE wiki_id = $1`
	if err := r.db.GetContext(ctx, &settings, query, wikiID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wiki settings: %w", err)
	}
	return &settings, nil
}

// UpdateSettings updates the settings row for a wiki.
func (r *WikiRepository) UpdateSettings(ctx context.Context, settings *WikiSettings) error {
	query := `UPDATE wiki_settings SET page_lock_duration = :page_lock_duration
		WHERE wiki_id = :wiki_id`
	result, err := r.db.NamedExecContext(ctx, query, settings)
	if err != nil {
		return fmt.Errorf("failed to update wiki settings: %w", translate(err))
	}
	return requireRow(result, ErrNotFound)
}
