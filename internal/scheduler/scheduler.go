// Package scheduler arms and cancels per-room deletion timers.
//
// One timer per room id, ever: Arm on an already-armed room is a no-op, so
// the edge-triggered watcher and the periodic safety sweep can both request
// deletion without stacking timers. Cancellation wins over a concurrently
// firing timer because expiry re-checks the armed flag under the mutex before
// running the callback.
package scheduler

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ExpireFunc runs when a room's grace period elapses without cancellation.
// It is invoked outside the scheduler mutex; re-arming or cancelling from
// inside the callback is allowed.
type ExpireFunc func(roomID string)

type pending struct {
	timer *time.Timer
	armed bool
}

type Scheduler struct {
	mu     sync.Mutex
	grace  time.Duration
	timers map[string]*pending
	expire ExpireFunc
	log    *logrus.Logger
}

func New(grace time.Duration, expire ExpireFunc, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		grace:  grace,
		timers: make(map[string]*pending),
		expire: expire,
		log:    log,
	}
}

// Arm schedules deletion of roomID after the grace duration. No-op if a timer
// is already pending for that room.
func (s *Scheduler) Arm(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.timers[roomID]; exists {
		return
	}
	p := &pending{armed: true}
	p.timer = time.AfterFunc(s.grace, func() { s.fire(roomID, p) })
	s.timers[roomID] = p
	s.log.WithField("room_id", roomID).Debug("deletion timer armed")
}

// Cancel clears any pending timer for roomID. Safe when none exists, and
// effective even if the timer has already fired but not yet run its callback.
func (s *Scheduler) Cancel(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.timers[roomID]
	if !exists {
		return
	}
	p.armed = false
	p.timer.Stop()
	delete(s.timers, roomID)
	s.log.WithField("room_id", roomID).Debug("deletion timer cancelled")
}

// Armed reports whether a timer is currently pending for roomID.
func (s *Scheduler) Armed(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.timers[roomID]
	return exists
}

// Shutdown cancels every pending timer. Used on process exit.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.timers {
		p.armed = false
		p.timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) fire(roomID string, p *pending) {
	s.mu.Lock()
	cur, exists := s.timers[roomID]
	if !exists || cur != p || !p.armed {
		// cancelled, or replaced by a newer timer, in the same tick we fired
		s.mu.Unlock()
		return
	}
	delete(s.timers, roomID)
	s.mu.Unlock()

	s.expire(roomID)
}
