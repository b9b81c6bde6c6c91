// Package service holds the business logic between the HTTP handlers and
// the data layer. Services validate input, enforce the rules the schema
// cannot express, and coordinate the database with the per-wiki revision
// stores.
package service

import "errors"

var (
	// ErrWikiNotFound is returned when a wiki does not exist.
	ErrWikiNotFound = errors.New("wiki not found")
	// ErrWikiExists is returned when a wiki slug or domain is taken.
	ErrWikiExists = errors.New("wiki already exists")
	// ErrPageNotFound is returned when no live page holds the slug.
	ErrPageNotFound = errors.New("page not found")
	// ErrPageExists is returned when a live page already holds the slug.
	ErrPageExists = errors.New("page already exists")
	// ErrPageLocked is returned when another user holds the editing lock.
	ErrPageLocked = errors.New("page locked by another user")
	// ErrUserNotFound is returned when a user does not exist or is deleted.
	ErrUserNotFound = errors.New("user not found")
	// ErrSentinelUser is returned on attempts to modify a seed account.
	ErrSentinelUser = errors.New("cannot modify sentinel user")
	// ErrInvalidSlug is returned when a slug is not in normal form.
	ErrInvalidSlug = errors.New("slug not in normal form")
	// ErrInvalidRating is returned for rating values other than -1 and +1.
	ErrInvalidRating = errors.New("rating must be -1 or +1")
	// ErrAuthFailed is the uniform error for any failed login, regardless
	// of whether the account exists.
	ErrAuthFailed = errors.New("invalid username or password")
	// ErrPasswordTooShort rejects passwords under the minimum length.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordTooLong rejects passwords over the scrypt input cap.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrPasswordBlacklisted rejects passwords on the common-password list.
	ErrPasswordBlacklisted = errors.New("password is too common")
	// ErrNotMember is returned when an operation requires wiki membership.
	ErrNotMember = errors.New("user is not a member of this wiki")
	// ErrBanned is returned when the member is currently banned.
	ErrBanned = errors.New("user is banned from this wiki")
)
