// Package watcher tracks voice-room occupancy for active matches.
//
// Edge-triggered: each join/leave event advances a tiny per-room state
// machine (Unknown → Occupied → Empty → Occupied|gone) and, on the
// occupied→empty edge, asks the deletion scheduler to arm the room's grace
// timer. Rooms not owned by an active match are ignored entirely, so guild
// voice traffic outside the scrim category costs nothing.
package watcher

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jose-valero/scrim-rooms-bot/internal/domain/events"
	"github.com/jose-valero/scrim-rooms-bot/internal/domain/match"
)

// State of a tracked room's occupancy.
type State int

const (
	StateUnknown State = iota
	StateOccupied
	StateEmpty
)

// Timers is the slice of the deletion scheduler the watcher needs.
type Timers interface {
	Arm(roomID string)
	Cancel(roomID string)
}

// Matches is the slice of the match store the watcher needs.
type Matches interface {
	FindActiveByRoom(roomID string) (*match.Match, bool)
	Touch(matchID string) error
}

type Watcher struct {
	mu      sync.Mutex
	rooms   map[string]State
	timers  Timers
	matches Matches
	log     *logrus.Logger
}

func New(timers Timers, matches Matches, log *logrus.Logger) *Watcher {
	return &Watcher{
		rooms:   make(map[string]State),
		timers:  timers,
		matches: matches,
		log:     log,
	}
}

// Track begins observing the given rooms. Initial state is Unknown until the
// first event or sweep reports real occupancy.
func (w *Watcher) Track(roomIDs ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range roomIDs {
		if _, exists := w.rooms[r]; !exists {
			w.rooms[r] = StateUnknown
		}
	}
}

// Untrack stops observing the given rooms and drops any pending deletion
// timer for them. Called when their match ends or their room is reclaimed.
func (w *Watcher) Untrack(roomIDs ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range roomIDs {
		delete(w.rooms, r)
		w.timers.Cancel(r)
	}
}

// Tracked reports whether roomID is being observed.
func (w *Watcher) Tracked(roomID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.rooms[roomID]
	return ok
}

// StateOf returns the current occupancy state of a tracked room.
func (w *Watcher) StateOf(roomID string) (State, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, ok := w.rooms[roomID]
	return st, ok
}

// HandleJoin processes a participant entering roomID, where occupants is the
// room's member count after the join. A join into an Empty room cancels the
// pending deletion timer. Every join counts as match activity.
func (w *Watcher) HandleJoin(roomID string, occupants int) {
	w.mu.Lock()
	prev, tracked := w.rooms[roomID]
	if !tracked {
		w.mu.Unlock()
		return
	}
	w.rooms[roomID] = StateOccupied
	w.mu.Unlock()

	w.timers.Cancel(roomID)
	m := w.touchOwner(roomID)

	if prev == StateEmpty && m != nil {
		events.Publish(events.RoomReoccupied{RoomID: roomID, MatchID: m.ID})
	}
	w.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"occupants": occupants,
	}).Debug("voice join")
}

// HandleLeave processes a participant leaving roomID, where occupants is the
// member count after the leave. Dropping to zero arms the deletion timer.
// A leave with members remaining is ordinary activity.
func (w *Watcher) HandleLeave(roomID string, occupants int) {
	w.mu.Lock()
	_, tracked := w.rooms[roomID]
	if !tracked {
		w.mu.Unlock()
		return
	}
	if occupants <= 0 {
		w.rooms[roomID] = StateEmpty
	} else {
		w.rooms[roomID] = StateOccupied
	}
	w.mu.Unlock()

	m := w.touchOwner(roomID)

	if occupants <= 0 {
		w.timers.Arm(roomID)
		if m != nil {
			events.Publish(events.RoomEmptied{RoomID: roomID, MatchID: m.ID})
		}
	}
	w.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"occupants": occupants,
	}).Debug("voice leave")
}

// touchOwner advances the owning match's activity timestamp and returns the
// match, or nil when the room has no active owner (stale tracking).
func (w *Watcher) touchOwner(roomID string) *match.Match {
	m, ok := w.matches.FindActiveByRoom(roomID)
	if !ok {
		w.log.WithField("room_id", roomID).Warn("tracked room has no active match")
		return nil
	}
	if err := w.matches.Touch(m.ID); err != nil {
		w.log.WithError(err).WithFields(logrus.Fields{
			"match_id": m.ID,
			"room_id":  roomID,
		}).Error("touch failed")
	}
	return m
}
