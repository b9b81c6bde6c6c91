package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// FileRepository handles file attachment records. The bytes themselves are
// stored wherever the URI points; only the metadata lives here.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository creates a new FileRepository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

const fileColumns = `file_id, page_id, name, uri, description, mime_type, created_at`

// Create registers a file attachment. Names and URIs are globally unique.
func (r *FileRepository) Create(ctx context.Context, file *File) error {
	query := `INSERT INTO files (page_id, name, uri, description, mime_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING file_id, created_at`
	err := r.db.QueryRowxContext(ctx, query,
		file.PageID, file.Name, file.URI, file.Description, file.MimeType).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", translate(err))
	}
	return nil
}

// GetByName retrieves a file by its globally unique name.
func (r *FileRepository) GetByName(ctx context.Context, name string) (*File, error) {
	var file File
	query := `SELECT ` + fileColumns + ` FROM files WHERE name = $1`
	if err := r.db.GetContext(ctx, &file, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &file, nil
}

// ListByPage retrieves the files attached to a page.
func (r *FileRepository) ListByPage(ctx context.Context, pageID int64) ([]*File, error) {
	var files []*File
	query := `SELECT ` + fileColumns + ` FROM files WHERE page_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &files, query, pageID); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Delete removes a file attachment record.
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM files WHERE file_id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return requireRow(result, ErrNotFound)
}
