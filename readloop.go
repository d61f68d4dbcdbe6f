package serial

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultReadChunkSize is the largest single read the loop issues
const DefaultReadChunkSize = 256

// readLoop forwards every non-empty read on s as a Received event until the
// session is stopped or a read fails. A read error closes the connection;
// it is not retried.
func (m *Manager) readLoop(s *session) {
	defer close(s.done)

	log := m.log.With(zap.String("port", s.name))
	log.Debug("Read loop started")

	buf := make([]byte, m.chunkSize)
	for {
		if s.stopping() {
			log.Debug("Read loop stopped")
			return
		}

		n, err := s.handle.Read(buf)

		// Close interrupts a blocked read; its error is not a line failure
		if s.stopping() {
			log.Debug("Read loop stopped")
			return
		}

		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			m.notifier.publish(Event{Kind: EventReceived, Data: data, Port: s.name})
		}

		if err != nil {
			log.Warn("Read failed, closing connection", zap.Error(err))
			m.teardown(s, fmt.Errorf("%w: read %s: %w", ErrIOFailure, s.name, err), false)
			return
		}
	}
}
