package data

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors returned by repositories. Services and the error
// middleware match on these instead of engine-specific error codes.
var (
	ErrNotFound   = errors.New("record not found")
	ErrExists     = errors.New("record already exists")
	ErrReferenced = errors.New("record is referenced by another row")
	ErrInvalid    = errors.New("value rejected by a schema constraint")
)

// PostgreSQL error classes we translate. See the engine's errcodes listing.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps engine-level constraint failures onto the sentinel errors.
// Other errors pass through unchanged.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pgUniqueViolation:
		return ErrExists
	case pgForeignKeyViolation:
		return ErrReferenced
	case pgCheckViolation:
		return ErrInvalid
	}
	return err
}
