// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as handlers
// to distinguish between failure scenarios.  For example, ErrForbidden
// indicates that the current user is not authorized to act on a resource
// owned by someone else, while ErrConflict signals that an operation cannot
// proceed because of dependent records (e.g. deleting a station that is
// still referenced by schedules).
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers should translate this into an HTTP
// 403 response (or 404 where the API contract hides existence).
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as removing a route that still has
// trains assigned.  Handlers should translate this into an HTTP 409.
var ErrConflict = errors.New("conflict")

// IsDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062).  The driver does not export a typed sentinel for this, so
// the code is matched in the error text.
func IsDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
