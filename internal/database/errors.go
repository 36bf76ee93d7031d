package database

import "errors"

var (
	// ErrNotFound covers missing rows and, deliberately, ownership violations
	// that the service reports as absence.
	ErrNotFound = errors.New("not found")

	// ErrNotAvailable covers unavailable items and owner listings with no items.
	ErrNotAvailable = errors.New("not available")

	// ErrEmailTaken is returned when an email update collides with another user.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotOwner rejects item edits by anyone other than the owner.
	ErrNotOwner = errors.New("not the owner")

	// ErrConcurrentModification signals a lost optimistic-locking race.
	ErrConcurrentModification = errors.New("concurrent modification")
)
