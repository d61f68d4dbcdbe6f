package serial

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Observer receives the data flowing through a connection.
// Implementations must be comparable (typically a pointer) so that
// UnregisterObserver can identify them; others are refused.
type Observer interface {
	OnDataSent(text string)
	OnDataReceived(text string)
}

// StateObserver is implemented by observers that also want lifecycle events
type StateObserver interface {
	Observer
	OnOpened(port string, baud int)
	OnOpenFailed(port string, err error)
	OnClosed(err error)
}

// EventKind identifies an Event
type EventKind int

const (
	EventSent EventKind = iota + 1
	EventReceived
	EventOpened
	EventOpenFailed
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventSent:
		return "sent"
	case EventReceived:
		return "received"
	case EventOpened:
		return "opened"
	case EventOpenFailed:
		return "open-failed"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is produced by the command worker or the read loop and consumed by the notifier
type Event struct {
	Kind EventKind
	Data []byte
	Port string
	Baud int
	Err  error // OpenFailed reason, or the I/O error that closed the connection
}

// Executor runs fn on the consumer's execution context
type Executor func(fn func())

func inlineExecutor(fn func()) { fn() }

// notifier redispatches events from producer goroutines onto a single
// delivery goroutine
type notifier struct {
	mu       sync.RWMutex
	observer Observer

	events   *fifo[Event]
	execute  Executor
	log      *zap.Logger
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newNotifier(execute Executor, log *zap.Logger) *notifier {
	if execute == nil {
		execute = inlineExecutor
	}
	n := &notifier{
		events:  newFIFO[Event](),
		execute: execute,
		log:     log,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// register fills the slot with o. Observers that cannot be compared with ==
// are refused, since unregister could not identify them.
func (n *notifier) register(o Observer) error {
	if o == nil {
		return fmt.Errorf("%w: nil observer", ErrInvalidObserver)
	}
	if !isComparable(o) {
		return fmt.Errorf("%w: %T is not comparable", ErrInvalidObserver, o)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.observer = o
	return nil
}

// unregister clears the slot only if o is the registered observer
func (n *notifier) unregister(o Observer) {
	if o == nil || !isComparable(o) {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.observer == o {
		n.observer = nil
	}
}

func isComparable(o Observer) bool {
	return reflect.TypeOf(o).Comparable()
}

func (n *notifier) current() Observer {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.observer
}

// publish queues ev for delivery. Events are dropped when nobody is listening.
func (n *notifier) publish(ev Event) {
	if n.current() == nil {
		n.log.Debug("Dropping event, no observer registered", zap.Stringer("event", ev.Kind))
		return
	}
	n.events.push(ev)
}

func (n *notifier) run() {
	defer close(n.done)

	for {
		select {
		case <-n.quit:
			return
		case <-n.events.ready:
		}

		for {
			select {
			case <-n.quit:
				return
			default:
			}

			ev, ok := n.events.pop()
			if !ok {
				break
			}
			n.deliver(ev)
		}
	}
}

func (n *notifier) deliver(ev Event) {
	// The observer may have been replaced or removed since publish
	obs := n.current()
	if obs == nil {
		return
	}

	n.execute(func() {
		switch ev.Kind {
		case EventSent:
			obs.OnDataSent(string(ev.Data))
		case EventReceived:
			obs.OnDataReceived(string(ev.Data))
		case EventOpened:
			if so, ok := obs.(StateObserver); ok {
				so.OnOpened(ev.Port, ev.Baud)
			}
		case EventOpenFailed:
			if so, ok := obs.(StateObserver); ok {
				so.OnOpenFailed(ev.Port, ev.Err)
			}
		case EventClosed:
			if so, ok := obs.(StateObserver); ok {
				so.OnClosed(ev.Err)
			}
		}
	})
}

// stop discards undelivered events and waits for an in-progress delivery
func (n *notifier) stop() {
	n.stopOnce.Do(func() {
		n.events.close()
		close(n.quit)
	})
	<-n.done
}
