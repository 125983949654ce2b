// Package match holds the persisted record of one coordinated team session.
package match

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Match is the durable record of a scrim session: which rooms it owns, who is
// in it, and whether it is still alive. Records are never deleted, only marked
// ended, so the store doubles as an audit trail.
type Match struct {
	ID           string     `json:"id"`
	GuildID      string     `json:"guild_id"`
	RoomIDs      []string   `json:"room_ids"` // one or two voice rooms
	Participants []string   `json:"participants"`
	Active       bool       `json:"active"`
	StartedAt    time.Time  `json:"started_at"`
	StartedBy    string     `json:"started_by"`
	LastActivity time.Time  `json:"last_activity"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	EndedBy      string     `json:"ended_by,omitempty"`
}

// NewID builds a match id that sorts roughly by creation time and needs no
// central counter: a UTC timestamp plus a short random suffix.
func NewID(now time.Time) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("m%s-%s", now.UTC().Format("20060102-150405"), suffix)
}

// OwnsRoom reports whether roomID is one of the match's rooms.
func (m *Match) OwnsRoom(roomID string) bool {
	for _, r := range m.RoomIDs {
		if r == roomID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can't mutate store-owned state.
func (m *Match) Clone() *Match {
	cp := *m
	cp.RoomIDs = append([]string(nil), m.RoomIDs...)
	cp.Participants = append([]string(nil), m.Participants...)
	if m.EndedAt != nil {
		t := *m.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}
