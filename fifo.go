package serial

import "sync"

// fifo is an unbounded multi-producer, single-consumer queue.
// push never blocks; the consumer waits on ready() and then pops until empty.
type fifo[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{}
}

func newFIFO[T any]() *fifo[T] {
	return &fifo[T]{ready: make(chan struct{}, 1)}
}

// push appends v and wakes the consumer. It reports false once the queue is closed.
func (f *fifo[T]) push(v T) bool {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false
	}
	f.items = append(f.items, v)
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
		// Consumer already has a pending wakeup
	}
	return true
}

// pop removes the oldest item without blocking
func (f *fifo[T]) pop() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var zero T
	if len(f.items) == 0 {
		return zero, false
	}
	v := f.items[0]
	f.items[0] = zero
	f.items = f.items[1:]
	return v, true
}

// close rejects further pushes and discards anything still queued
func (f *fifo[T]) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.items = nil
}

func (f *fifo[T]) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
