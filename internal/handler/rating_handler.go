package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wellspring/internal/data"
	"wellspring/internal/logger"
	"wellspring/internal/middleware"
	"wellspring/internal/service"
)

// RatingHandler serves page votes and scores.
type RatingHandler struct {
	ratings *service.RatingService
	wikis   *service.WikiService
	log     logger.Logger
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratings *service.RatingService, wikis *service.WikiService, log logger.Logger) *RatingHandler {
	return &RatingHandler{ratings: ratings, wikis: wikis, log: log}
}

func (h *RatingHandler) wiki(r *http.Request) (*data.Wiki, *middleware.AppError) {
	wiki, err := h.wikis.GetBySlug(r.Context(), chi.URLParam(r, "wiki"))
	if err != nil {
		return nil, fail(err, "failed to resolve wiki")
	}
	return wiki, nil
}

type rateRequest struct {
	Rating int16 `json:"rating"`
}

// rate records the caller's vote on a page.
func (h *RatingHandler) rate(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	var req rateRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	userInfo := middleware.GetUserInfo(r.Context())
	if err := h.ratings.Rate(r.Context(), wiki.ID, chi.URLParam(r, "page"), userInfo.UserID, req.Rating); err != nil {
		return fail(err, "failed to rate page")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// retract removes the caller's vote.
func (h *RatingHandler) retract(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	userInfo := middleware.GetUserInfo(r.Context())
	if err := h.ratings.Retract(r.Context(), wiki.ID, chi.URLParam(r, "page"), userInfo.UserID); err != nil {
		return fail(err, "failed to retract rating")
	}
	return respondJSON(w, http.StatusNoContent, nil)
}

// get returns the caller's current vote, null if none.
func (h *RatingHandler) get(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	userInfo := middleware.GetUserInfo(r.Context())
	rating, err := h.ratings.Get(r.Context(), wiki.ID, chi.URLParam(r, "page"), userInfo.UserID)
	if err != nil {
		return fail(err, "failed to get rating")
	}
	return respondJSON(w, http.StatusOK, rating)
}

// score returns a page's vote aggregate.
func (h *RatingHandler) score(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	score, err := h.ratings.Score(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to get page score")
	}
	return respondJSON(w, http.StatusOK, score)
}

// history returns the full voting record of a page, retractions
// included.
func (h *RatingHandler) history(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	wiki, appErr := h.wiki(r)
	if appErr != nil {
		return appErr
	}
	history, err := h.ratings.History(r.Context(), wiki.ID, chi.URLParam(r, "page"))
	if err != nil {
		return fail(err, "failed to get rating history")
	}
	return respondJSON(w, http.StatusOK, history)
}
