package serial

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tarm "github.com/tarm/serial"
)

// TarmDriver opens ports through github.com/tarm/serial
type TarmDriver struct {
	ReadTimeout time.Duration
}

var _ Driver = TarmDriver{}

// ListPorts scans /dev; tarm/serial has no enumerator of its own
func (d TarmDriver) ListPorts() ([]string, error) {
	return ListPorts()
}

// Open opens the named port at baud with 8N1 framing
func (d TarmDriver) Open(name string, baud int) (Handle, error) {
	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	p, err := tarm.OpenPort(&tarm.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
		case errors.Is(err, os.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, name)
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}

	if err := p.Flush(); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to flush input: %w", err)
	}

	return &tarmHandle{port: p, timeout: tarmVTIME(timeout)}, nil
}

// tarmVTIME is the timeout tarm programs into VTIME for timeout:
// whole tenths of a second, between 0.1s and 25.5s
func tarmVTIME(timeout time.Duration) time.Duration {
	timeout = timeout.Truncate(100 * time.Millisecond)
	if timeout < 100*time.Millisecond {
		return 100 * time.Millisecond
	}
	if timeout > maxReadTimeout {
		return maxReadTimeout
	}
	return timeout
}

type tarmHandle struct {
	port    *tarm.Port
	timeout time.Duration
}

// Read reports an expired VTIME timeout as an empty read. tarm surfaces both
// a timeout and a hung up line as io.EOF; only the timeout takes the full
// VTIME to come back.
func (h *tarmHandle) Read(buf []byte) (int, error) {
	start := time.Now()
	n, err := h.port.Read(buf)
	if n == 0 && errors.Is(err, io.EOF) {
		if !timedOut(time.Since(start), h.timeout) {
			return 0, fmt.Errorf("%w: hangup", ErrPortClosed)
		}
		return 0, nil
	}
	return n, err
}

// timedOut reports whether an empty read that took elapsed can be the VTIME
// timeout expiring. The tty timer has tick granularity, so allow half of it.
func timedOut(elapsed, timeout time.Duration) bool {
	return elapsed >= timeout/2
}

func (h *tarmHandle) Write(data []byte) (int, error) {
	return h.port.Write(data)
}

func (h *tarmHandle) Close() error {
	return h.port.Close()
}
