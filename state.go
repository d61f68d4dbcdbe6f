package serial

import (
	"sync"

	"go.uber.org/atomic"
)

// session is one open connection: the handle plus the read loop serving it
type session struct {
	name   string
	baud   int
	handle Handle

	stop     chan struct{} // closed to ask the read loop to exit
	done     chan struct{} // closed by the read loop on exit
	stopOnce sync.Once
}

func newSession(name string, baud int, h Handle) *session {
	return &session{
		name:   name,
		baud:   baud,
		handle: h,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *session) signalStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *session) stopping() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// connState owns the hardware handle. It is mutated only by command handlers
// and by the read loop's error path; writes and teardown hold mu, reads do not.
type connState struct {
	mu   sync.Mutex
	cur  *session
	open atomic.Bool
}

func (c *connState) isOpen() bool {
	return c.open.Load()
}

// install makes s the active session
func (c *connState) install(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = s
	c.open.Store(true)
}

// active returns the current session, or nil when closed
func (c *connState) active() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// release detaches s if it is still the active session: the open flag drops
// first, then the read loop is told to stop, then the handle is closed.
// It reports false when s was already released.
func (c *connState) release(s *session) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s == nil || c.cur != s {
		return false, nil
	}
	c.cur = nil
	c.open.Store(false)

	s.signalStop()
	return true, s.handle.Close()
}

// write sends all of data on the active session while holding the state lock
func (c *connState) write(data []byte) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.cur
	if s == nil {
		return nil, ErrNotOpen
	}

	for len(data) > 0 {
		n, err := s.handle.Write(data)
		if err != nil {
			return s, err
		}
		if n == 0 {
			return s, ErrPortClosed
		}
		data = data[n:]
	}
	return s, nil
}
