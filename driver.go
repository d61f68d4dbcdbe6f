package serial

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Handle is an open, live reference to a port. Read must return (0, nil)
// when its read timeout expires without data, and an error once the line
// has been hung up.
type Handle interface {
	io.Reader
	io.Writer
	io.Closer
}

// Driver is the platform capability the connection manager depends on
type Driver interface {
	ListPorts() ([]string, error)
	Open(name string, baud int) (Handle, error)
}

// DefaultReadTimeout bounds every blocking read issued by a driver
const DefaultReadTimeout = 100 * time.Millisecond

// NativeDriver opens ports with the termios implementation in this package
type NativeDriver struct {
	// ReadTimeout is rounded up to a multiple of 100ms; zero selects DefaultReadTimeout
	ReadTimeout time.Duration
	// Options are applied before the baud rate passed to Open
	Options []Option
}

var _ Driver = NativeDriver{}

// ListPorts scans /dev for serial devices
func (d NativeDriver) ListPorts() ([]string, error) {
	return ListPorts()
}

// Open opens the named port, discarding input that arrived before the open
func (d NativeDriver) Open(name string, baud int) (Handle, error) {
	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	// WithReadTimeout accepts whole tenths of a second
	if rem := timeout % (100 * time.Millisecond); rem != 0 {
		timeout += 100*time.Millisecond - rem
	}

	opts := append([]Option{}, d.Options...)
	opts = append(opts, WithReadTimeout(timeout), WithBaudRate(baud))

	p, err := Open(name, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.FlushInput(); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to flush input: %w", err)
	}
	return &nativeHandle{Port: p}, nil
}

// nativeHandle drains pending output before releasing the descriptor
type nativeHandle struct {
	Port
}

func (h *nativeHandle) Close() error {
	return closeDrained(h.Port.Drain, h.Port.FlushOutput, h.Port.Close)
}

// closeDrainTimeout bounds how long Close waits for queued output to be sent
const closeDrainTimeout = time.Second

// closeDrained gives queued output closeDrainTimeout to leave the port, then
// closes it. A drain failure other than the timeout does not fail the close.
func closeDrained(drain, flush, closePort func() error) error {
	drainErr := drainWithin(closeDrainTimeout, drain, flush)
	if err := closePort(); err != nil {
		return err
	}
	if errors.Is(drainErr, ErrDrainTimeout) {
		return drainErr
	}
	return nil
}

// drainWithin runs drain and, when it has not returned after timeout,
// discards the output still queued with flush. tcdrain has no timeout of
// its own, and flushing the output queue releases it.
func drainWithin(timeout time.Duration, drain, flush func() error) error {
	done := make(chan error, 1)
	go func() { done <- drain() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
	}

	if err := flush(); err != nil {
		return fmt.Errorf("%w: flush: %v", ErrDrainTimeout, err)
	}
	return ErrDrainTimeout
}

// NewDriver returns the driver registered under name
func NewDriver(name string, readTimeout time.Duration) (Driver, error) {
	switch strings.ToLower(name) {
	case "", "native":
		return NativeDriver{ReadTimeout: readTimeout}, nil
	case "bugst":
		return BugstDriver{ReadTimeout: readTimeout}, nil
	case "tarm":
		return TarmDriver{ReadTimeout: readTimeout}, nil
	default:
		return nil, fmt.Errorf("%w: %q (valid: native, bugst, tarm)", ErrUnknownDriver, name)
	}
}
