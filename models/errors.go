package models

import "errors"

// Sentinel errors for graph mutations.
var (
	// ErrSelfLink is returned when an edge would connect a node to itself.
	ErrSelfLink = errors.New("cannot link a node to itself")

	// ErrUnknownNode is returned when a mutation references a node that
	// does not exist, usually because it was removed a moment earlier.
	ErrUnknownNode = errors.New("node not found")

	// ErrDuplicateNode is returned when restoring a node whose id is taken.
	ErrDuplicateNode = errors.New("duplicate node ID")
	// ErrInvalidWeight is returned when an edge weight change is not positive.
	ErrInvalidWeight = errors.New("edge weight must be positive")
)
