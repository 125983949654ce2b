// Package orchestrator - errors.go
// Centralized, comparable error values used across the lifecycle logic.
package orchestrator

// oerr is a lightweight comparable error type.
// Using constants of this type allows errors.Is to work as expected.
type oerr string

func (e oerr) Error() string { return string(e) }

var (
	ErrNoParticipants  = oerr("cannot start a match with no participants")
	ErrUnknownMatch    = oerr("unknown match id")
	ErrRoomUnavailable = oerr("voice room provisioning failed")
)
