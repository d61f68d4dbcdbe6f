package serial

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommandKindString(t *testing.T) {
	tests := map[commandKind]string{
		commandOpen:    "open",
		commandClose:   "close",
		commandSend:    "send",
		commandKind(0): "unknown",
	}
	for kind, want := range tests {
		require.Equal(t, want, kind.String())
	}
}

func TestCommandQueueOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)
	q := newCommandQueue(func(cmd command) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, cmd.baud)
	})
	defer q.stop()

	var want []int
	for i := 0; i < 100; i++ {
		want = append(want, i)
		require.True(t, q.submit(command{kind: commandOpen, baud: i}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == len(want)
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, want, seen)
}

func TestCommandQueueSubmitNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	q := newCommandQueue(func(command) { <-release })

	// The worker is stuck on the first command; submits must still return
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			q.submit(command{kind: commandSend})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submit blocked")
	}

	close(release)
	q.stop()
}

func TestCommandQueueStop(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	var (
		mu    sync.Mutex
		count int
	)
	q := newCommandQueue(func(command) {
		mu.Lock()
		count++
		first := count == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
	})

	for i := 0; i < 10; i++ {
		q.submit(command{kind: commandSend})
	}
	<-started

	stopped := make(chan struct{})
	go func() {
		q.stop()
		close(stopped)
	}()

	// stop waits for the in-flight command
	select {
	case <-stopped:
		t.Fatal("stop returned before the in-flight command finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-stopped

	// The rest of the queue was discarded
	mu.Lock()
	require.Equal(t, 1, count)
	mu.Unlock()

	require.False(t, q.submit(command{kind: commandSend}))

	// Idempotent
	q.stop()
}
