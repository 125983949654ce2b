// Package teams - split.go
// Deterministic partition of a participant list into one or two rooms.
package teams

// RoomCapacity is the max players a single team room holds.
const RoomCapacity = 5

// Split partitions participants into team A and team B, preserving input
// order. Up to RoomCapacity players fit in a single room, so team B stays
// empty. Beyond that the list is halved, team A taking the extra player when
// the count is odd (first half of the list).
//
// Pure and deterministic: the assignment is always recomputable from the
// persisted participant list, so it never drifts from the record.
func Split(participants []string) (teamA, teamB []string) {
	if len(participants) <= RoomCapacity {
		return append([]string(nil), participants...), nil
	}
	half := (len(participants) + 1) / 2
	teamA = append([]string(nil), participants[:half]...)
	teamB = append([]string(nil), participants[half:]...)
	return teamA, teamB
}
