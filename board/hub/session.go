// board/hub/session.go
package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Session is one viewer connection as seen by the hub. The transport drains
// Send and watches Done; the hub only ever enqueues.
type Session struct {
	ID   string
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewSession creates a session whose queue holds up to buffer frames.
func NewSession(buffer int) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	return &Session{
		ID:   uuid.NewString(),
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Send is the queue of encoded frames waiting to be written.
func (s *Session) Send() <-chan []byte { return s.send }

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close marks the session closed. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

// enqueue drops the frame when the session is closed or its queue is full.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}
