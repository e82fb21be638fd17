package presence

import (
	"sync"
	"time"
)

// Session is one live connection of a user. The outbound channel is the
// only path events take to the transport layer; pushes never block the
// publisher.
type Session struct {
	ID          string
	UserID      string
	ConnectedAt time.Time

	mu       sync.Mutex
	closed   bool
	outbound chan []byte
}

func newSession(id, userID string, bufferSize int) *Session {
	return &Session{
		ID:          id,
		UserID:      userID,
		ConnectedAt: time.Now(),
		outbound:    make(chan []byte, bufferSize),
	}
}

// Push hands data to the session without blocking. It returns false when
// the session is closed or its buffer is full; the caller treats that as a
// dead session and evicts it.
func (s *Session) Push(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.outbound <- data:
		return true
	default:
		return false
	}
}

// Outbound is the channel the transport write loop drains. It is closed
// when the session is disconnected.
func (s *Session) Outbound() <-chan []byte {
	return s.outbound
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.outbound)
}
