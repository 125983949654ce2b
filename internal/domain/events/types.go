// Package events - types.go
package events

// MatchStarted is emitted when the orchestrator has provisioned rooms and
// persisted a new active match.
type MatchStarted struct {
	MatchID string
	GuildID string
	RoomIDs []string
}

// MatchEnded is emitted once per match, by whichever path (admin command,
// idle timer, safety timeout, recovery) wins the terminal transition.
type MatchEnded struct {
	MatchID string
	GuildID string
	EndedBy string
}

// RoomEmptied is emitted when a tracked room drops to zero occupants and its
// grace timer is armed.
type RoomEmptied struct {
	RoomID  string
	MatchID string
}

// RoomReoccupied is emitted when someone rejoins a room that was counting
// down to deletion.
type RoomReoccupied struct {
	RoomID  string
	MatchID string
}
