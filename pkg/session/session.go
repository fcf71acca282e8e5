package session

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const logPrefix = "session:session"

// Session is the state owned by one logical request. It is not safe for
// concurrent use; a request is handled by a single goroutine.
type Session struct {
	ID     string
	ledger Ledger
}

// New creates a session with the given ID, or a fresh UUID when id is empty.
func New(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id}
}

// Ledger returns the session's Direct call ledger.
func (s *Session) Ledger() *Ledger {
	return &s.ledger
}

// Discard drops any ledger entries still queued and returns how many were
// dropped. Callers use it at the end of a request so no routing state
// outlives the request that produced it.
func (s *Session) Discard() int {
	n := s.ledger.Len()
	if n > 0 {
		slog.Warn(fmt.Sprintf("%s - session %s discarded %d unconsumed ledger entries", logPrefix, s.ID, n))
		s.ledger = Ledger{}
	}
	return n
}
