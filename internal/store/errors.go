// Package store - errors.go
// Centralized, comparable error values used across the store logic.
package store

// serr is a lightweight comparable error type.
// Using constants of this type allows errors.Is to work as expected.
type serr string

func (e serr) Error() string { return string(e) }

var (
	ErrNotFound    = serr("match not found")
	ErrRoomInUse   = serr("room already owned by an active match")
	ErrPersistence = serr("store write did not complete")
)
