// Package orchestrator composes the match lifecycle: start, watch, reclaim,
// end, and reconcile after a restart.
//
// It keeps persisted match records, live voice-room membership, and pending
// deletion timers consistent under concurrent, partially-failing events.
// Rooms are provisioned before anything is persisted; the store's terminal
// transition decides which of several racing enders acts; timer expiry
// re-checks live occupancy before deleting anything.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/scrim-rooms-bot/internal/domain/events"
	"github.com/jose-valero/scrim-rooms-bot/internal/domain/match"
	"github.com/jose-valero/scrim-rooms-bot/internal/scheduler"
	"github.com/jose-valero/scrim-rooms-bot/internal/store"
	"github.com/jose-valero/scrim-rooms-bot/internal/teams"
	"github.com/jose-valero/scrim-rooms-bot/internal/watcher"
)

// Actors recorded in EndedBy when the system, not a human, ends a match.
const (
	EndedByIdle     = "system-idle"
	EndedByTimeout  = "system-timeout"
	EndedByRecovery = "system-recovery"
)

// Platform is the narrow slice of the chat platform the orchestrator
// consumes. All calls are fallible and rate-limited by the platform.
type Platform interface {
	EnsureCategory(guildID, name string) (string, error)
	// EnsureVoiceRoom reports whether it created the room or found an
	// existing one, so callers rolling back a failed start know which
	// rooms are theirs to reclaim.
	EnsureVoiceRoom(guildID, categoryID, name string, capacity int) (id string, created bool, err error)
	DeleteRoom(roomID string) error
	MoveParticipant(guildID, userID, roomID string) error
	RoomExists(roomID string) (bool, error)
	RoomOccupancy(roomID string) (int, error)
	RoomMembers(roomID string) ([]string, error)
}

// Options tune the lifecycle. Zero values fall back to the defaults below.
type Options struct {
	CategoryName string        // category that holds all scrim rooms
	RoomCapacity int           // user limit per team room
	Grace        time.Duration // how long an empty room survives
	SweepEvery   time.Duration // safety-net rescan interval
	MatchTimeout time.Duration // hard cap on match lifetime

	// Optional: move occupants back to this room before deleting team rooms.
	WaitingRoomID       string
	ReturnToWaitingRoom bool
}

func (o *Options) fillDefaults() {
	if o.CategoryName == "" {
		o.CategoryName = "SCRIMS"
	}
	if o.RoomCapacity <= 0 {
		o.RoomCapacity = teams.RoomCapacity
	}
	if o.Grace <= 0 {
		o.Grace = 60 * time.Second
	}
	if o.SweepEvery <= 0 {
		o.SweepEvery = 20 * time.Second
	}
	if o.MatchTimeout <= 0 {
		o.MatchTimeout = 2 * time.Hour
	}
}

type Orchestrator struct {
	platform Platform
	store    *store.Store
	timers   *scheduler.Scheduler
	watch    *watcher.Watcher
	opts     Options
	log      *logrus.Logger
}

func New(p Platform, st *store.Store, opts Options, log *logrus.Logger) *Orchestrator {
	opts.fillDefaults()
	o := &Orchestrator{
		platform: p,
		store:    st,
		opts:     opts,
		log:      log,
	}
	o.timers = scheduler.New(opts.Grace, o.handleRoomExpiry, log)
	o.watch = watcher.New(o.timers, st, log)
	return o
}

// Watcher exposes the occupancy watcher so the voice adapter can feed it.
func (o *Orchestrator) Watcher() *watcher.Watcher { return o.watch }

// Shutdown drops all pending deletion timers. Rooms left behind are picked up
// by reconciliation on the next start.
func (o *Orchestrator) Shutdown() { o.timers.Shutdown() }

// StartMatch provisions one or two team rooms, persists the match, and moves
// the participants in. Nothing is persisted until the rooms exist, so a
// provisioning failure leaves no partial state behind. Individual move
// failures are logged and skipped: a participant who can't be moved is not a
// reason to abort the whole match.
func (o *Orchestrator) StartMatch(guildID string, participants []string, startedBy string) (*match.Match, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	teamA, teamB := teams.Split(participants)

	categoryID, err := o.platform.EnsureCategory(guildID, o.opts.CategoryName)
	if err != nil {
		return nil, fmt.Errorf("%w: category: %v", ErrRoomUnavailable, err)
	}

	tag := uuid.NewString()[:4]
	roomA, createdA, err := o.platform.EnsureVoiceRoom(guildID, categoryID, "scrim-"+tag+"-a", o.opts.RoomCapacity)
	if err != nil {
		return nil, fmt.Errorf("%w: team room a: %v", ErrRoomUnavailable, err)
	}
	roomIDs := []string{roomA}
	var created []string
	if createdA {
		created = append(created, roomA)
	}

	var roomB string
	if len(teamB) > 0 {
		var createdB bool
		roomB, createdB, err = o.platform.EnsureVoiceRoom(guildID, categoryID, "scrim-"+tag+"-b", o.opts.RoomCapacity)
		if err != nil {
			o.rollbackRooms(created, "second room failed")
			return nil, fmt.Errorf("%w: team room b: %v", ErrRoomUnavailable, err)
		}
		roomIDs = append(roomIDs, roomB)
		if createdB {
			created = append(created, roomB)
		}
	}

	m, err := o.store.Create(guildID, roomIDs, participants, startedBy)
	if err != nil {
		// reclaim only what this call created; a room that already existed
		// (a name collision with another match's live room) is not ours
		o.rollbackRooms(created, "persist failed")
		return nil, err
	}

	o.moveTeam(guildID, teamA, roomA, m.ID)
	if roomB != "" {
		o.moveTeam(guildID, teamB, roomB, m.ID)
	}

	o.watch.Track(roomIDs...)

	o.log.WithFields(logrus.Fields{
		"match_id":     m.ID,
		"guild_id":     guildID,
		"rooms":        len(roomIDs),
		"participants": len(participants),
		"started_by":   startedBy,
	}).Info("match started")

	events.Publish(events.MatchStarted{MatchID: m.ID, GuildID: guildID, RoomIDs: roomIDs})
	return m, nil
}

// EndMatch marks the match ended and reclaims its rooms. Idempotent: the
// idle-timeout path and an explicit admin end may race here, and only the
// caller that wins the store's terminal transition deletes rooms; the loser
// returns nil having done nothing.
func (o *Orchestrator) EndMatch(matchID, endedBy string) error {
	m, ok := o.store.FindByID(matchID)
	if !ok {
		return ErrUnknownMatch
	}

	ended, err := o.store.MarkEnded(matchID, endedBy)
	if err != nil {
		return err
	}
	if !ended {
		return nil
	}

	for _, r := range m.RoomIDs {
		o.timers.Cancel(r)
	}

	if o.opts.ReturnToWaitingRoom && o.opts.WaitingRoomID != "" {
		o.returnOccupants(m)
	}

	for _, r := range m.RoomIDs {
		if exists, err := o.platform.RoomExists(r); err == nil && !exists {
			continue // already reclaimed, e.g. by the expiry path or manually
		}
		o.deleteRoom(r, "end of match")
	}
	o.watch.Untrack(m.RoomIDs...)

	o.log.WithFields(logrus.Fields{
		"match_id": matchID,
		"guild_id": m.GuildID,
		"ended_by": endedBy,
	}).Info("match ended")

	events.Publish(events.MatchEnded{MatchID: matchID, GuildID: m.GuildID, EndedBy: endedBy})
	return nil
}

// ReconcileOnStartup aligns persisted state with live guild state: an active
// match referencing a room that no longer exists is ended as system-recovery,
// and surviving matches resume tracking (empty rooms re-enter their grace
// countdown rather than living forever because the leave event is long gone).
func (o *Orchestrator) ReconcileOnStartup() {
	for _, m := range o.store.Active() {
		if o.anyRoomMissing(m) {
			if err := o.EndMatch(m.ID, EndedByRecovery); err != nil {
				o.log.WithError(err).WithField("match_id", m.ID).Error("recovery end failed")
			}
			continue
		}

		o.watch.Track(m.RoomIDs...)
		for _, r := range m.RoomIDs {
			n, err := o.platform.RoomOccupancy(r)
			if err != nil {
				o.log.WithError(err).WithField("room_id", r).Warn("reconcile: occupancy check failed")
				continue
			}
			if n == 0 {
				// arm directly, same stance as the sweep: observing an empty
				// room across a restart is not match activity
				o.timers.Arm(r)
			} else {
				o.watch.HandleJoin(r, n)
			}
		}
	}
}

// handleRoomExpiry runs when a room's grace timer fires. Live occupancy is
// re-checked first: a join the watcher missed must win over a stale timer.
func (o *Orchestrator) handleRoomExpiry(roomID string) {
	m, ok := o.store.FindActiveByRoom(roomID)
	if !ok {
		o.watch.Untrack(roomID)
		return
	}

	n, err := o.platform.RoomOccupancy(roomID)
	if err != nil {
		o.log.WithError(err).WithField("room_id", roomID).Warn("expiry: occupancy check failed, deferring to sweep")
		return
	}
	if n > 0 {
		// missed join during the grace window; drop the timer and heal state
		o.watch.HandleJoin(roomID, n)
		return
	}

	if o.anySiblingOccupied(m, roomID) {
		// keep the match alive on the occupied sibling; reclaim just this
		// room, and take it off the record so the sweep doesn't read the
		// deliberate deletion as drift and recovery-end the match
		o.deleteRoom(roomID, "grace period expired")
		o.watch.Untrack(roomID)
		if err := o.store.RemoveRoom(m.ID, roomID); err != nil {
			o.log.WithError(err).WithFields(logrus.Fields{
				"match_id": m.ID,
				"room_id":  roomID,
			}).Error("could not drop reclaimed room from record")
		}
		return
	}

	if err := o.EndMatch(m.ID, EndedByIdle); err != nil {
		o.log.WithError(err).WithField("match_id", m.ID).Error("idle end failed")
	}
}

func (o *Orchestrator) anySiblingOccupied(m *match.Match, roomID string) bool {
	for _, r := range m.RoomIDs {
		if r == roomID {
			continue
		}
		exists, err := o.platform.RoomExists(r)
		if err != nil || !exists {
			continue
		}
		if n, err := o.platform.RoomOccupancy(r); err == nil && n > 0 {
			return true
		}
	}
	return false
}

func (o *Orchestrator) anyRoomMissing(m *match.Match) bool {
	for _, r := range m.RoomIDs {
		exists, err := o.platform.RoomExists(r)
		if err != nil {
			// transient lookup failure is not evidence the room is gone
			o.log.WithError(err).WithField("room_id", r).Warn("room existence check failed")
			continue
		}
		if !exists {
			return true
		}
	}
	return false
}

func (o *Orchestrator) moveTeam(guildID string, team []string, roomID, matchID string) {
	for _, userID := range team {
		if err := o.platform.MoveParticipant(guildID, userID, roomID); err != nil {
			o.log.WithError(err).WithFields(logrus.Fields{
				"match_id": matchID,
				"room_id":  roomID,
				"user_id":  userID,
			}).Warn("could not move participant")
		}
	}
}

// returnOccupants moves whoever is still in the match's rooms back to the
// shared waiting room. Best-effort: a failed move never blocks teardown.
func (o *Orchestrator) returnOccupants(m *match.Match) {
	for _, r := range m.RoomIDs {
		members, err := o.platform.RoomMembers(r)
		if err != nil {
			continue
		}
		for _, userID := range members {
			if err := o.platform.MoveParticipant(m.GuildID, userID, o.opts.WaitingRoomID); err != nil {
				o.log.WithError(err).WithFields(logrus.Fields{
					"match_id": m.ID,
					"user_id":  userID,
				}).Warn("could not return participant to waiting room")
			}
		}
	}
}

func (o *Orchestrator) rollbackRooms(created []string, why string) {
	for _, r := range created {
		o.deleteRoom(r, "rollback after "+why)
	}
}

// deleteRoom tolerates rooms that are already gone; anything else is logged
// and left for the next reconciliation rather than treated as fatal.
func (o *Orchestrator) deleteRoom(roomID, reason string) {
	if err := o.platform.DeleteRoom(roomID); err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"reason":  reason,
		}).Warn("room deletion deferred")
	}
}
