package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// RatingRepository handles current ratings and the append-only rating log.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository creates a new RatingRepository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Set overwrites the user's current rating for a page and appends the
// event to the history, in one transaction.
func (r *RatingRepository) Set(ctx context.Context, rating *Rating) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO ratings (page_id, user_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (page_id, user_id) DO UPDATE SET rating = EXCLUDED.rating`
	if _, err := tx.ExecContext(ctx, query, rating.PageID, rating.UserID, rating.Rating); err != nil {
		return fmt.Errorf("failed to set rating: %w", translate(err))
	}

	query = `INSERT INTO rating_history (page_id, user_id, rating) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, rating.PageID, rating.UserID, rating.Rating); err != nil {
		return fmt.Errorf("failed to append rating history: %w", translate(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating: %w", err)
	}
	return nil
}

// Retract removes the user's current rating and appends a null-rating
// event to the history. Returns ErrNotFound if there was no rating.
func (r *RatingRepository) Retract(ctx context.Context, pageID, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM ratings WHERE page_id = $1 AND user_id = $2`, pageID, userID)
	if err != nil {
		return fmt.Errorf("failed to retract rating: %w", err)
	}
	if err := requireRow(result, ErrNotFound); err != nil {
		return err
	}

	query := `INSERT INTO rating_history (page_id, user_id, rating) VALUES ($1, $2, NULL)`
	if _, err := tx.ExecContext(ctx, query, pageID, userID); err != nil {
		return fmt.Errorf("failed to append rating history: %w", translate(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit retraction: %w", err)
	}
	return nil
}

// Get retrieves the user's current rating for a page.
func (r *RatingRepository) Get(ctx context.Context, pageID, userID int64) (*Rating, error) {
	var rating Rating
	query := `SELECT page_id, user_id, rating FROM ratings
		WHERE page_id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &rating, query, pageID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &rating, nil
}

// PageScore is the aggregate rating of a page.
type PageScore struct {
	PageID int64 `db:"page_id" json:"page_id"`
	Score  int64 `db:"score" json:"score"`
	Votes  int64 `db:"votes" json:"votes"`
}

// Score aggregates the current ratings of a page.
func (r *RatingRepository) Score(ctx context.Context, pageID int64) (*PageScore, error) {
	var score PageScore
	query := `SELECT $1::bigint AS page_id,
		COALESCE(SUM(rating), 0) AS score, COUNT(*) AS votes
		FROM ratings WHERE page_id = $1`
	if err := r.db.GetContext(ctx, &score, query, pageID); err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return &score, nil
}

// History retrieves the rating events for a page, newest first.
func (r *RatingRepository) History(ctx context.Context, pageID int64) ([]*RatingHistory, error) {
	var events []*RatingHistory
	query := `SELECT rating_id, page_id, user_id, rating, created_at
		FROM rating_history WHERE page_id = $1 ORDER BY rating_id DESC`
	if err := r.db.SelectContext(ctx, &events, query, pageID); err != nil {
		return nil, fmt.Errorf("failed to list rating history: %w", err)
	}
	return events, nil
}
