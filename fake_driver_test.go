package serial

import (
	"errors"
	"sync"
	"time"
)

// fakeDriver is a Driver that records every call and hands out fakeHandles
type fakeDriver struct {
	mu      sync.Mutex
	ports   []string
	listErr error
	openErr error

	// maxWrite caps the bytes accepted per Write call; zero means unlimited
	maxWrite int
	// stuck makes Read ignore Close until the test releases it
	stuck chan struct{}

	opens   []string
	handles []*fakeHandle
}

func (d *fakeDriver) ListPorts() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listErr != nil {
		return nil, d.listErr
	}
	return append([]string(nil), d.ports...), nil
}

func (d *fakeDriver) Open(name string, baud int) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.opens = append(d.opens, name)
	if d.openErr != nil {
		return nil, d.openErr
	}

	h := newFakeHandle(name, baud, d.maxWrite, d.stuck)
	d.handles = append(d.handles, h)
	return h, nil
}

func (d *fakeDriver) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opens)
}

func (d *fakeDriver) handle(i int) *fakeHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.handles) {
		return nil
	}
	return d.handles[i]
}

var errFakeClosed = errors.New("fake handle closed")

// fakeHandle serves reads from chunks fed by the test and records writes
type fakeHandle struct {
	name     string
	baud     int
	maxWrite int
	stuck    chan struct{}

	incoming chan []byte
	readErr  chan error
	closedCh chan struct{}

	mu       sync.Mutex
	pending  []byte
	written  []byte
	writes   []string
	writeErr error
	reads    int
	closes   int
}

func newFakeHandle(name string, baud, maxWrite int, stuck chan struct{}) *fakeHandle {
	return &fakeHandle{
		name:     name,
		baud:     baud,
		maxWrite: maxWrite,
		stuck:    stuck,
		incoming: make(chan []byte, 64),
		readErr:  make(chan error, 1),
		closedCh: make(chan struct{}),
	}
}

// feed makes data available to the next read
func (h *fakeHandle) feed(data string) {
	h.incoming <- []byte(data)
}

// failRead makes the next idle read return err
func (h *fakeHandle) failRead(err error) {
	h.readErr <- err
}

func (h *fakeHandle) failWrites(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writeErr = err
}

func (h *fakeHandle) Read(p []byte) (int, error) {
	h.mu.Lock()
	h.reads++
	if h.closes > 0 && h.stuck == nil {
		h.mu.Unlock()
		return 0, errFakeClosed
	}
	if len(h.pending) > 0 {
		n := copy(p, h.pending)
		h.pending = h.pending[n:]
		h.mu.Unlock()
		return n, nil
	}
	h.mu.Unlock()

	if h.stuck != nil {
		<-h.stuck
		return 0, nil
	}

	select {
	case chunk := <-h.incoming:
		n := copy(p, chunk)
		if n < len(chunk) {
			h.mu.Lock()
			h.pending = append(h.pending, chunk[n:]...)
			h.mu.Unlock()
		}
		return n, nil
	case err := <-h.readErr:
		return 0, err
	case <-h.closedCh:
		return 0, errFakeClosed
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (h *fakeHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closes > 0 {
		return 0, errFakeClosed
	}
	if h.writeErr != nil {
		return 0, h.writeErr
	}

	n := len(p)
	if h.maxWrite > 0 && n > h.maxWrite {
		n = h.maxWrite
	}
	h.written = append(h.written, p[:n]...)
	h.writes = append(h.writes, string(p[:n]))
	return n, nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closes++
	if h.closes == 1 {
		close(h.closedCh)
	}
	return nil
}

func (h *fakeHandle) writtenString() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return string(h.written)
}

func (h *fakeHandle) writeCalls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.writes...)
}

func (h *fakeHandle) readCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reads
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

// recorder is a StateObserver that keeps everything it is told
type recorder struct {
	mu         sync.Mutex
	sent       []string
	received   []string
	kinds      []EventKind
	opened     []string
	openFailed []error
	closed     []error

	inFlight int
	overlap  bool
	delay    time.Duration
}

func (r *recorder) enter() {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > 1 {
		r.overlap = true
	}
	delay := r.delay
	r.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
}

func (r *recorder) leave(record func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	record()
}

func (r *recorder) OnDataSent(text string) {
	r.enter()
	r.leave(func() {
		r.sent = append(r.sent, text)
		r.kinds = append(r.kinds, EventSent)
	})
}

func (r *recorder) OnDataReceived(text string) {
	r.enter()
	r.leave(func() {
		r.received = append(r.received, text)
		r.kinds = append(r.kinds, EventReceived)
	})
}

func (r *recorder) OnOpened(port string, baud int) {
	r.enter()
	r.leave(func() {
		r.opened = append(r.opened, port)
		r.kinds = append(r.kinds, EventOpened)
	})
}

func (r *recorder) OnOpenFailed(port string, err error) {
	r.enter()
	r.leave(func() {
		r.openFailed = append(r.openFailed, err)
		r.kinds = append(r.kinds, EventOpenFailed)
	})
}

func (r *recorder) OnClosed(err error) {
	r.enter()
	r.leave(func() {
		r.closed = append(r.closed, err)
		r.kinds = append(r.kinds, EventClosed)
	})
}

func (r *recorder) sentData() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func (r *recorder) receivedData() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.received...)
}

func (r *recorder) eventKinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventKind(nil), r.kinds...)
}

func (r *recorder) closedErrors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.closed...)
}

func (r *recorder) openFailures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.openFailed...)
}

func (r *recorder) sawOverlap() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlap
}

// dataObserver implements only the data callbacks
type dataObserver struct {
	mu       sync.Mutex
	received []string
}

func (o *dataObserver) OnDataSent(string) {}

func (o *dataObserver) OnDataReceived(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received = append(o.received, text)
}

func (o *dataObserver) receivedData() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.received...)
}
