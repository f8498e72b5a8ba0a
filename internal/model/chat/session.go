package chat

import "time"

// Session captures a bounded-lifetime admin conversation.
//
// Messages are append-only; compaction may truncate a prefix while folding it
// into Summary. Version is bumped by the store on every committed mutation and
// guards against lost updates.
type Session struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	Messages       []Turn    `json:"messages"`
	Summary        string    `json:"summary,omitempty"`
	Version        uint64    `json:"-"`
}

// Clone returns a deep copy so callers can mutate freely before commit.
func (s Session) Clone() Session {
	copied := s
	copied.Messages = append([]Turn(nil), s.Messages...)
	return copied
}

// Append adds a turn to the in-memory copy.
func (s *Session) Append(turn Turn) {
	s.Messages = append(s.Messages, turn)
}
