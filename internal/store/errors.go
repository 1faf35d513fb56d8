package store

import "errors"

// Sentinel errors returned by TaskStore operations. Callers match them
// with errors.Is; the stored detail carries the offending identifiers.
var (
	// ErrTaskNotFound indicates no grouping task exists with the given ID.
	ErrTaskNotFound = errors.New("grouping task not found")

	// ErrVersionConflict indicates a conditional update lost against a
	// concurrent writer and the caller should reload and retry.
	ErrVersionConflict = errors.New("task version conflict")
)
