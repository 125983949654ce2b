// Package store is the durable source of truth for match records.
//
// Backing is a single JSON file rewritten atomically (temp file + rename) on
// every mutation, so a crash can lose at most the mutation that failed, and
// that mutation reports ErrPersistence to its caller instead of silently
// succeeding in memory only.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jose-valero/scrim-rooms-bot/internal/domain/match"
)

type Store struct {
	mu      sync.Mutex
	path    string
	matches map[string]*match.Match
	log     *logrus.Logger
}

// Open loads the match file at path, creating parent directories as needed.
// A missing file is an empty store, not an error.
func Open(path string, log *logrus.Logger) (*Store, error) {
	s := &Store{
		path:    path,
		matches: make(map[string]*match.Match),
		log:     log,
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.matches); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", path, err)
	}
	return s, nil
}

// Create persists a new active match owning roomIDs. It refuses to create a
// record whose rooms are already owned by another active match.
func (s *Store) Create(guildID string, roomIDs, participants []string, startedBy string) (*match.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range roomIDs {
		if m := s.activeByRoomLocked(r); m != nil {
			return nil, ErrRoomInUse
		}
	}

	now := time.Now()
	m := &match.Match{
		ID:           match.NewID(now),
		GuildID:      guildID,
		RoomIDs:      append([]string(nil), roomIDs...),
		Participants: append([]string(nil), participants...),
		Active:       true,
		StartedAt:    now,
		StartedBy:    startedBy,
		LastActivity: now,
	}
	s.matches[m.ID] = m

	if err := s.flushLocked(); err != nil {
		delete(s.matches, m.ID) // do not hand out a record that isn't on disk
		return nil, err
	}
	return m.Clone(), nil
}

// MarkEnded flips a match to its terminal state. The bool reports whether this
// call performed the transition: a second MarkEnded on the same match is a
// no-op returning false, which is how the timeout path and an explicit end
// command converge without double-acting.
func (s *Store) MarkEnded(matchID, endedBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return false, ErrNotFound
	}
	if !m.Active {
		return false, nil
	}

	prev := *m
	now := time.Now()
	m.Active = false
	m.EndedAt = &now
	m.EndedBy = endedBy

	if err := s.flushLocked(); err != nil {
		*m = prev
		return false, err
	}
	return true, nil
}

// RemoveRoom drops roomID from an active match's room list, for when the
// orchestrator reclaims one room of a multi-room match while the rest stay
// alive. The persisted record must stop claiming the reclaimed room, or a
// later consistency pass would read its absence as drift. No-op when the
// match is ended or the room is not listed.
func (s *Store) RemoveRoom(matchID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return ErrNotFound
	}
	if !m.Active {
		return nil
	}
	idx := -1
	for i, r := range m.RoomIDs {
		if r == roomID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	prev := m.RoomIDs
	next := append([]string(nil), prev[:idx]...)
	m.RoomIDs = append(next, prev[idx+1:]...)

	if err := s.flushLocked(); err != nil {
		m.RoomIDs = prev
		return err
	}
	return nil
}

// Touch advances LastActivity. Monotonic: an older timestamp never overwrites
// a newer one. Touching an ended match is a no-op.
func (s *Store) Touch(matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return ErrNotFound
	}
	if !m.Active {
		return nil
	}
	now := time.Now()
	if !now.After(m.LastActivity) {
		return nil
	}

	prev := m.LastActivity
	m.LastActivity = now
	if err := s.flushLocked(); err != nil {
		m.LastActivity = prev
		return err
	}
	return nil
}

// FindActiveByRoom returns the active match owning roomID, if any.
func (s *Store) FindActiveByRoom(roomID string) (*match.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.activeByRoomLocked(roomID); m != nil {
		return m.Clone(), true
	}
	return nil, false
}

// FindByID returns the match with the given id, active or ended.
func (s *Store) FindByID(matchID string) (*match.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Active returns a snapshot of all active matches, oldest first.
func (s *Store) Active() []*match.Match {
	s.mu.Lock()
	out := make([]*match.Match, 0, len(s.matches))
	for _, m := range s.matches {
		if m.Active {
			out = append(out, m.Clone())
		}
	}
	s.mu.Unlock()

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartedAt.Before(out[j-1].StartedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (s *Store) activeByRoomLocked(roomID string) *match.Match {
	for _, m := range s.matches {
		if m.Active && m.OwnsRoom(roomID) {
			return m
		}
	}
	return nil
}

// flushLocked rewrites the whole file through a temp file + rename so readers
// never observe a torn write. Caller must hold the mutex.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.matches, "", "  ")
	if err != nil {
		s.log.WithError(err).Error("store: marshal failed")
		return ErrPersistence
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.WithError(err).Error("store: mkdir failed")
		return ErrPersistence
	}

	tmp, err := os.CreateTemp(dir, ".matches-*.json")
	if err != nil {
		s.log.WithError(err).Error("store: temp file failed")
		return ErrPersistence
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.log.WithError(err).Error("store: write failed")
		return ErrPersistence
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.log.WithError(err).Error("store: fsync failed")
		return ErrPersistence
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.log.WithError(err).Error("store: close failed")
		return ErrPersistence
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		s.log.WithError(err).Error("store: rename failed")
		return ErrPersistence
	}
	return nil
}
