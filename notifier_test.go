package serial

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		EventSent:       "sent",
		EventReceived:   "received",
		EventOpened:     "opened",
		EventOpenFailed: "open-failed",
		EventClosed:     "closed",
		EventKind(0):    "unknown",
	}
	for kind, want := range tests {
		require.Equal(t, want, kind.String())
	}
}

func TestNotifierDeliversInOrder(t *testing.T) {
	n := newNotifier(nil, zap.NewNop())
	defer n.stop()

	obs := &recorder{}
	require.NoError(t, n.register(obs))

	cause := errors.New("gone")
	n.publish(Event{Kind: EventOpened, Port: "/dev/ttyS0", Baud: 9600})
	n.publish(Event{Kind: EventSent, Data: []byte("a")})
	n.publish(Event{Kind: EventReceived, Data: []byte("b")})
	n.publish(Event{Kind: EventClosed, Err: cause})

	require.Eventually(t, func() bool { return len(obs.eventKinds()) == 4 }, time.Second, time.Millisecond)
	require.Equal(t, []EventKind{EventOpened, EventSent, EventReceived, EventClosed}, obs.eventKinds())
	require.Equal(t, []string{"a"}, obs.sentData())
	require.Equal(t, []string{"b"}, obs.receivedData())
	require.Equal(t, []error{cause}, obs.closedErrors())
}

func TestNotifierUnregister(t *testing.T) {
	n := newNotifier(nil, zap.NewNop())
	defer n.stop()

	current := &recorder{}
	stale := &recorder{}

	require.NoError(t, n.register(current))
	n.unregister(stale)
	require.Equal(t, Observer(current), n.current())

	n.unregister(current)
	require.Nil(t, n.current())

	// Dropped: nobody is registered
	n.publish(Event{Kind: EventReceived, Data: []byte("x")})
	require.Equal(t, 0, n.events.len())
}

func TestNotifierExecutor(t *testing.T) {
	ran := make(chan struct{}, 1)
	n := newNotifier(func(fn func()) {
		fn()
		ran <- struct{}{}
	}, zap.NewNop())
	defer n.stop()

	obs := &recorder{}
	require.NoError(t, n.register(obs))
	n.publish(Event{Kind: EventSent, Data: []byte("hi")})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("executor not used")
	}
	require.Equal(t, []string{"hi"}, obs.sentData())
}

func TestNotifierStop(t *testing.T) {
	n := newNotifier(nil, zap.NewNop())
	require.NoError(t, n.register(&recorder{}))

	n.stop()
	n.stop()

	n.publish(Event{Kind: EventSent})
	require.Equal(t, 0, n.events.len())
}

// sliceObserver is a value observer that cannot be compared with ==
type sliceObserver struct {
	seen []string
}

func (sliceObserver) OnDataSent(string)     {}
func (sliceObserver) OnDataReceived(string) {}

func TestNotifierRefusesInvalidObservers(t *testing.T) {
	n := newNotifier(nil, zap.NewNop())
	defer n.stop()

	current := &recorder{}
	require.NoError(t, n.register(current))

	require.ErrorIs(t, n.register(sliceObserver{}), ErrInvalidObserver)
	require.ErrorIs(t, n.register(nil), ErrInvalidObserver)
	require.Equal(t, Observer(current), n.current())

	require.NotPanics(t, func() { n.unregister(sliceObserver{seen: []string{"x"}}) })
	require.NotPanics(t, func() { n.unregister(nil) })
	require.Equal(t, Observer(current), n.current())
}
