package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parentpass/adminchat/backend/internal/model/chat"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrConflict = errors.New("session modified concurrently")
)

// DefaultTTL matches the documented "sessions expire after 4 hours" guarantee.
// The lifetime is absolute from creation, not sliding.
const DefaultTTL = 4 * time.Hour

// Store is the concurrency-safe home of all conversation state. Reads of
// distinct sessions never block each other; writes are serialized by an
// optimistic version check at Commit time.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore bootstraps an in-memory store with the given absolute TTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]chat.Session),
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create provisions an empty session with a fresh unguessable identifier.
func (s *Store) Create(_ context.Context) (chat.Session, error) {
	now := s.now()
	session := chat.Session{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		LastAccessedAt: now,
		Messages:       make([]chat.Turn, 0, 16),
		Version:        1,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

// Get returns a copy of the current state. Reads are passive: they do not
// extend the session lifetime. Expired sessions behave as if absent.
func (s *Store) Get(_ context.Context, id string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return chat.Session{}, ErrNotFound
	}
	return session.Clone(), nil
}

// Delete removes a session immediately. Deleting an already-absent id
// reports ErrNotFound.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		delete(s.sessions, id)
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Commit atomically replaces stored state. The caller's snapshot must carry
// the version it was read at; a mismatch means another actor committed in
// between and yields ErrConflict. Two concurrent commits against the same
// prior version never both succeed.
func (s *Store) Commit(_ context.Context, updated chat.Session) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[updated.ID]
	if !ok || s.expired(current) {
		return chat.Session{}, ErrNotFound
	}
	if current.Version != updated.Version {
		return chat.Session{}, ErrConflict
	}

	committed := updated.Clone()
	committed.CreatedAt = current.CreatedAt
	committed.Version = current.Version + 1
	committed.LastAccessedAt = s.now()
	s.sessions[updated.ID] = committed

	return committed.Clone(), nil
}

// StartJanitor sweeps expired sessions until ctx is done. Expiry is already
// enforced lazily on access; the sweep only reclaims memory.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if reaped := s.reap(); reaped > 0 {
					log.Printf("[session] reaped %d expired sessions", reaped)
				}
			}
		}
	}()
}

func (s *Store) reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	reaped := 0
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			reaped++
		}
	}
	return reaped
}

func (s *Store) expired(session chat.Session) bool {
	return s.now().Sub(session.CreatedAt) >= s.ttl
}
