package service

import (
	"context"
	"errors"

	"wellspring/internal/data"
)

// RatingRepository defines the interface for rating rows and their
// history log.
type RatingRepository interface {
	Set(ctx context.Context, rating *data.Rating) error
	Retract(ctx context.Context, pageID, userID int64) error
	Get(ctx context.Context, pageID, userID int64) (*data.Rating, error)
	Score(ctx context.Context, pageID int64) (*data.PageScore, error)
	History(ctx context.Context, pageID int64) ([]*data.RatingHistory, error)
}

// PageLookup is the slice of the page repository the rating service needs
// to resolve slugs.
type PageLookup interface {
	GetLive(ctx context.Context, wikiID int64, slug string) (*data.Page, error)
}

// RatingService manages page ratings. A user holds at most one rating per
// page; every change, retraction included, lands in the history log.
type RatingService struct {
	ratings RatingRepository
	pages   PageLookup
}

// NewRatingService creates a new RatingService.
func NewRatingService(ratings RatingRepository, pages PageLookup) *RatingService {
	return &RatingService{ratings: ratings, pages: pages}
}

func (s *RatingService) page(ctx context.Context, wikiID int64, slug string) (*data.Page, error) {
	page, err := s.pages.GetLive(ctx, wikiID, slug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return page, nil
}

// Rate sets or replaces a user's rating on a page. Only -1 and +1 are
// accepted.
func (s *RatingService) Rate(ctx context.Context, wikiID int64, slug string, userID int64, rating int16) error {
	if rating != -1 && rating != 1 {
		return ErrInvalidRating
	}
	page, err := s.page(ctx, wikiID, slug)
	if err != nil {
		return err
	}
	return s.ratings.Set(ctx, &data.Rating{PageID: page.ID, UserID: userID, Rating: rating})
}

// Retract removes a user's rating, logging the retraction.
func (s *RatingService) Retract(ctx context.Context, wikiID int64, slug string, userID int64) error {
	page, err := s.page(ctx, wikiID, slug)
	if err != nil {
		return err
	}
	if err := s.ratings.Retract(ctx, page.ID, userID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return ErrPageNotFound
		}
		return err
	}
	return nil
}

// Get returns a user's current rating on a page, or nil when they have
// none.
func (s *RatingService) Get(ctx context.Context, wikiID int64, slug string, userID int64) (*data.Rating, error) {
	page, err := s.page(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	rating, err := s.ratings.Get(ctx, page.ID, userID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rating, nil
}

// Score returns a page's aggregate rating.
func (s *RatingService) Score(ctx context.Context, wikiID int64, slug string) (*data.PageScore, error) {
	page, err := s.page(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	return s.ratings.Score(ctx, page.ID)
}

// History returns every rating event on a page, newest first.
func (s *RatingService) History(ctx context.Context, wikiID int64, slug string) ([]*data.RatingHistory, error) {
	page, err := s.page(ctx, wikiID, slug)
	if err != nil {
		return nil, err
	}
	return s.ratings.History(ctx, page.ID)
}
