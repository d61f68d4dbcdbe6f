package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultCloseTimeout bounds how long teardown waits for the read loop
const DefaultCloseTimeout = 2 * time.Second

// Manager owns a single serial connection. Open, Close and Send are queued
// and executed one at a time on a worker goroutine; none of them block the
// caller. Data and lifecycle events reach the registered Observer through a
// single delivery goroutine.
type Manager struct {
	driver  Driver
	catalog PortCatalog
	log     *zap.Logger

	chunkSize    int
	closeTimeout time.Duration
	executor     Executor

	state    connState
	commands *commandQueue
	notifier *notifier

	shutdown     atomic.Bool
	shutdownOnce sync.Once
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager) error

// WithLogger sets the logger; the default discards everything
func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) error {
		if log == nil {
			return ErrInvalidConfig
		}
		m.log = log
		return nil
	}
}

// WithReadChunkSize sets the largest single read issued by the read loop
func WithReadChunkSize(size int) ManagerOption {
	return func(m *Manager) error {
		if size <= 0 {
			return ErrInvalidConfig
		}
		m.chunkSize = size
		return nil
	}
}

// WithCloseTimeout bounds the wait for the read loop during teardown
func WithCloseTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) error {
		if timeout <= 0 {
			return ErrInvalidConfig
		}
		m.closeTimeout = timeout
		return nil
	}
}

// WithExecutor sets the context observer callbacks run on, for example a
// UI event loop. Callbacks are handed to the executor one at a time.
func WithExecutor(execute Executor) ManagerOption {
	return func(m *Manager) error {
		if execute == nil {
			return ErrInvalidConfig
		}
		m.executor = execute
		return nil
	}
}

// NewManager creates a closed Manager that opens ports through driver
func NewManager(driver Driver, opts ...ManagerOption) (*Manager, error) {
	if driver == nil {
		return nil, fmt.Errorf("%w: nil driver", ErrInvalidConfig)
	}

	m := &Manager{
		driver:       driver,
		catalog:      NewPortCatalog(driver),
		log:          zap.NewNop(),
		chunkSize:    DefaultReadChunkSize,
		closeTimeout: DefaultCloseTimeout,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	m.notifier = newNotifier(m.executor, m.log)
	m.commands = newCommandQueue(m.execute)
	return m, nil
}

// ListPorts returns the ports the driver can see
func (m *Manager) ListPorts() ([]string, error) {
	return m.catalog.List()
}

// IsOpen reports whether a connection is currently open. It never blocks.
func (m *Manager) IsOpen() bool {
	return m.state.isOpen()
}

// Port returns the name and baud rate of the open connection
func (m *Manager) Port() (string, int, bool) {
	s := m.state.active()
	if s == nil {
		return "", 0, false
	}
	return s.name, s.baud, true
}

// Open asks for name to be opened at baud. It is a no-op when a connection
// is already open or name is empty. The outcome is reported through IsOpen
// and, for a StateObserver, OnOpened or OnOpenFailed.
func (m *Manager) Open(name string, baud int) {
	if name == "" {
		m.log.Debug("Ignoring open with empty port name")
		return
	}
	if m.IsOpen() {
		m.log.Debug("Ignoring open", zap.String("port", name), zap.Error(ErrAlreadyOpen))
		return
	}
	m.submit(command{kind: commandOpen, name: name, baud: baud})
}

// Close asks for the open connection to be closed. It is a no-op when closed.
func (m *Manager) Close() {
	if !m.IsOpen() {
		m.log.Debug("Ignoring close", zap.Error(ErrNotOpen))
		return
	}
	m.submit(command{kind: commandClose})
}

// Send queues text for transmission. It is ignored when closed.
func (m *Manager) Send(text string) {
	m.SendBytes([]byte(text))
}

// SendBytes queues a raw payload for transmission. It is ignored when closed.
func (m *Manager) SendBytes(data []byte) {
	if !m.IsOpen() {
		m.log.Debug("Ignoring send", zap.Int("bytes", len(data)), zap.Error(ErrNotOpen))
		return
	}
	if len(data) == 0 {
		return
	}
	payload := make([]byte, len(data))
	copy(payload, data)
	m.submit(command{kind: commandSend, data: payload})
}

// RegisterObserver makes o the sole observer, replacing any previous one.
// A nil or non-comparable observer is refused and the slot is left as it was.
func (m *Manager) RegisterObserver(o Observer) {
	if err := m.notifier.register(o); err != nil {
		m.log.Error("Refusing observer", zap.Error(err))
	}
}

// UnregisterObserver removes o if, and only if, it is the registered observer
func (m *Manager) UnregisterObserver(o Observer) {
	m.notifier.unregister(o)
}

// Shutdown stops the worker after its in-flight command, closes any open
// connection and stops event delivery. Later calls on the Manager are no-ops.
// It must not be called from an observer callback.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.shutdownOnce.Do(func() {
			m.shutdown.Store(true)
			m.commands.stop()

			if s := m.state.active(); s != nil {
				m.teardown(s, nil, true)
			}
			m.notifier.stop()
			m.log.Info("Connection manager stopped")
		})
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) submit(cmd command) {
	if m.shutdown.Load() || !m.commands.submit(cmd) {
		m.log.Debug("Dropping command", zap.Stringer("command", cmd.kind), zap.Error(ErrManagerClosed))
	}
}

// execute runs on the command worker
func (m *Manager) execute(cmd command) {
	switch cmd.kind {
	case commandOpen:
		m.doOpen(cmd.name, cmd.baud)
	case commandClose:
		m.doClose()
	case commandSend:
		m.doSend(cmd.data)
	}
}

func (m *Manager) doOpen(name string, baud int) {
	log := m.log.With(zap.String("port", name), zap.Int("baud", baud))

	if m.IsOpen() {
		log.Debug("Dropping open, connection already open")
		return
	}

	h, err := m.driver.Open(name, baud)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPortUnavailable, err)
		log.Error("Failed to open serial port", zap.Error(err))
		m.notifier.publish(Event{Kind: EventOpenFailed, Port: name, Baud: baud, Err: err})
		return
	}

	s := newSession(name, baud, h)
	m.state.install(s)

	log.Info("Serial port opened")
	m.notifier.publish(Event{Kind: EventOpened, Port: name, Baud: baud})

	go m.readLoop(s)
}

func (m *Manager) doClose() {
	s := m.state.active()
	if s == nil {
		m.log.Debug("Dropping close, connection not open")
		return
	}
	m.teardown(s, nil, true)
}

func (m *Manager) doSend(data []byte) {
	s, err := m.state.write(data)
	if errors.Is(err, ErrNotOpen) {
		m.log.Debug("Dropping send, connection not open", zap.Int("bytes", len(data)))
		return
	}
	if err != nil {
		m.log.Error("Write failed, closing connection",
			zap.String("port", s.name), zap.Int("bytes", len(data)), zap.Error(err))
		m.teardown(s, fmt.Errorf("%w: write %s: %w", ErrIOFailure, s.name, err), true)
		return
	}

	m.log.Debug("Data sent", zap.String("port", s.name), zap.Int("bytes", len(data)))
	m.notifier.publish(Event{Kind: EventSent, Data: data, Port: s.name})
}

// teardown closes s: the open flag drops, the read loop is signalled, the
// handle is released and, when wait is set, the read loop is given at most
// closeTimeout to exit. cause is nil for a requested close.
func (m *Manager) teardown(s *session, cause error, wait bool) {
	log := m.log.With(zap.String("port", s.name))

	released, err := m.state.release(s)
	if !released {
		return
	}
	if err != nil {
		log.Warn("Error closing serial port", zap.Error(err))
	}

	if wait {
		timer := time.NewTimer(m.closeTimeout)
		defer timer.Stop()

		select {
		case <-s.done:
		case <-timer.C:
			log.Warn("Read loop did not stop in time", zap.Duration("timeout", m.closeTimeout))
		}
	}

	log.Info("Serial port closed", zap.NamedError("cause", cause))
	m.notifier.publish(Event{Kind: EventClosed, Port: s.name, Err: cause})
}
