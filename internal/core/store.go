package core

// store.go keeps sessions in memory, one slot per browser session.
//
// Sessions never share state: each slot has its own mutex, so actions on one
// session run one at a time while other sessions proceed independently.
// Idle sessions expire after the configured TTL and are removed by Sweep,
// which StartSweeper runs periodically until its context is cancelled.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// DefaultMaxSessions caps the number of open sessions.
const DefaultMaxSessions = 100

// SessionStore holds sessions in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionSlot

	ttl time.Duration
	max int
	now func() time.Time
}

type sessionSlot struct {
	mu      sync.Mutex
	session Session
}

// NewSessionStore creates a store. Non-positive ttl or max fall back to the
// defaults.
func NewSessionStore(ttl time.Duration, max int) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &SessionStore{
		sessions: make(map[string]*sessionSlot),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// Create opens a new empty session.
// Returns ErrTooManySessions if the store is full after expiring idle ones.
func (st *SessionStore) Create() (Session, error) {
	if st.Len() >= st.max {
		st.Sweep()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.max {
		return Session{}, ErrTooManySessions
	}

	s := NewSession(uuid.New().String(), st.now())
	st.sessions[s.ID] = &sessionSlot{session: s}
	return s, nil
}

// Get returns a snapshot of the session.
func (st *SessionStore) Get(id string) (Session, error) {
	slot, ok := st.slot(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.session, nil
}

// Update applies fn to the session and stores the result, even when fn
// returns an error: reducers return the reset state alongside the error.
func (st *SessionStore) Update(id string, fn func(Session) (Session, error)) (Session, error) {
	slot, ok := st.slot(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	next, err := fn(slot.session)
	next.ID = slot.session.ID
	next.UpdatedAt = st.now()
	slot.session = next
	return next, err
}

// Delete removes a session.
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns how many
// were removed. Sessions busy with an action are not idle and are skipped
// without waiting, so a long load never stalls other sessions.
func (st *SessionStore) Sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.RLock()
	slots := make(map[string]*sessionSlot, len(st.sessions))
	for id, slot := range st.sessions {
		slots[id] = slot
	}
	st.mu.RUnlock()

	var idle []string
	for id, slot := range slots {
		if slot.idleSince(cutoff) {
			idle = append(idle, id)
		}
	}
	if len(idle) == 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for _, id := range idle {
		slot, ok := st.sessions[id]
		if !ok || slot != slots[id] || !slot.idleSince(cutoff) {
			continue
		}
		delete(st.sessions, id)
		removed++
	}
	return removed
}

// idleSince reports whether the slot was last updated before cutoff.
// A slot whose lock is held is in use and never idle.
func (s *sessionSlot) idleSince(cutoff time.Time) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	return s.session.UpdatedAt.Before(cutoff)
}

// StartSweeper expires idle sessions every interval until ctx is cancelled.
// onSweep, if non-nil, is called after each pass with the open session count.
func (st *SessionStore) StartSweeper(ctx context.Context, interval time.Duration, onSweep func(open int)) {
	slog.Info("session sweeper started", "interval", interval, "ttl", st.ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if removed := st.Sweep(); removed > 0 {
				slog.Info("expired idle sessions", "removed", removed)
			}
			if onSweep != nil {
				onSweep(st.Len())
			}
		}
	}
}

func (st *SessionStore) slot(id string) (*sessionSlot, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	slot, ok := st.sessions[id]
	return slot, ok
}
