package taskgraph

import "errors"

// Package errors for the resource pool and graph builder.
var (
	// ErrInvalidHandle is returned when a handle points at a slot that is
	// out of range or currently empty.
	ErrInvalidHandle = errors.New("taskgraph: invalid handle")

	// ErrStaleHandle is returned when a handle's version does not match the
	// slot's current version, meaning the resource it referred to has been
	// deleted (and the slot possibly reused).
	ErrStaleHandle = errors.New("taskgraph: stale handle")

	// ErrConflictingAccess is returned by Compile when a single task
	// declares the same resource more than once with different access modes.
	ErrConflictingAccess = errors.New("taskgraph: conflicting access declarations")
)
