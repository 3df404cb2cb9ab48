package store

import "errors"

var (
	// ErrNotFound is returned by keyed lookups when no row matches.
	// It is a lookup miss, not a system fault.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCard is returned when a card insert collides with the
	// uniqueness constraint on the card identifier.  The constraint is
	// the source of truth for concurrent registration conflicts.
	ErrDuplicateCard = errors.New("card identifier already registered")

	// ErrDuplicateEmail is returned when an identity insert collides
	// with the uniqueness constraint on the email handle.  Callers may
	// retry with a different handle.
	ErrDuplicateEmail = errors.New("email handle already in use")
)
