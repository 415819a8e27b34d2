// Package sentinel holds the storage-level facts every store reports the same
// way, so services can map them to domain errors without knowing the backend.
package sentinel

import "errors"

var (
	// ErrNotFound means no row or map entry matched the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a write lost an optimistic version check or hit a
	// unique constraint.
	ErrConflict = errors.New("conflict")
)
