package serial

import "sync"

type commandKind int

const (
	commandOpen commandKind = iota + 1
	commandClose
	commandSend
)

func (k commandKind) String() string {
	switch k {
	case commandOpen:
		return "open"
	case commandClose:
		return "close"
	case commandSend:
		return "send"
	default:
		return "unknown"
	}
}

// command is a single request for the worker; it is executed exactly once
type command struct {
	kind commandKind
	name string
	baud int
	data []byte
}

// commandQueue runs commands one at a time, in submission order, on a
// dedicated worker goroutine
type commandQueue struct {
	pending  *fifo[command]
	handle   func(command)
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newCommandQueue(handle func(command)) *commandQueue {
	q := &commandQueue{
		pending: newFIFO[command](),
		handle:  handle,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// submit enqueues cmd without blocking. It reports false after stop.
func (q *commandQueue) submit(cmd command) bool {
	return q.pending.push(cmd)
}

func (q *commandQueue) run() {
	defer close(q.done)

	for {
		select {
		case <-q.quit:
			return
		case <-q.pending.ready:
		}

		for {
			select {
			case <-q.quit:
				return
			default:
			}

			cmd, ok := q.pending.pop()
			if !ok {
				break
			}
			q.handle(cmd)
		}
	}
}

// stop lets the worker finish the in-flight command, drops the rest and
// waits for the worker to exit
func (q *commandQueue) stop() {
	q.stopOnce.Do(func() {
		q.pending.close()
		close(q.quit)
	})
	<-q.done
}
