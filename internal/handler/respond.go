// Package handler exposes the services over a JSON HTTP API routed with
// chi. Handlers stay thin: decode, call the service, encode.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"wellspring/internal/data"
	"wellspring/internal/middleware"
	"wellspring/internal/service"
)

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, code int, v interface{}) *middleware.AppError {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			return &middleware.AppError{Err: err, Message: "failed to encode response", Code: http.StatusInternalServerError}
		}
	}
	return nil
}

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v interface{}) *middleware.AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &middleware.AppError{Err: err, Message: "invalid request body", Code: http.StatusBadRequest}
	}
	return nil
}

// fail maps service and data errors onto HTTP status codes. Unrecognized
// errors surface as a 500 with a generic message.
func fail(err error, message string) *middleware.AppError {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, service.ErrWikiNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, data.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrPageExists),
		errors.Is(err, service.ErrWikiExists),
		errors.Is(err, data.ErrExists),
		errors.Is(err, data.ErrReferenced):
		code = http.StatusConflict
	case errors.Is(err, service.ErrPageLocked):
		code = http.StatusLocked
	case errors.Is(err, service.ErrAuthFailed):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrSentinelUser),
		errors.Is(err, service.ErrNotMember),
		errors.Is(err, service.ErrBanned):
		code = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidSlug),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong),
		errors.Is(err, service.ErrPasswordBlacklisted),
		errors.Is(err, data.ErrInvalid):
		code = http.StatusBadRequest
	}
	if code != http.StatusInternalServerError {
		// Client errors carry the precise reason.
		message = err.Error()
	}
	return &middleware.AppError{Err: err, Message: message, Code: code}
}
