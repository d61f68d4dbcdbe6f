package serial

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFIFOOrder(t *testing.T) {
	f := newFIFO[int]()

	for i := 0; i < 5; i++ {
		require.True(t, f.push(i))
	}
	require.Equal(t, 5, f.len())

	for i := 0; i < 5; i++ {
		v, ok := f.pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}

	_, ok := f.pop()
	require.False(t, ok)
}

func TestFIFOReadySignal(t *testing.T) {
	f := newFIFO[string]()

	f.push("a")
	f.push("b")

	// Several pushes coalesce into one pending wakeup
	<-f.ready
	select {
	case <-f.ready:
		t.Fatal("expected a single pending wakeup")
	default:
	}
	require.Equal(t, 2, f.len())
}

func TestFIFOClose(t *testing.T) {
	f := newFIFO[int]()
	f.push(1)
	f.close()

	require.False(t, f.push(2))
	require.Equal(t, 0, f.len())
	_, ok := f.pop()
	require.False(t, ok)
}

func TestFIFOConcurrentProducers(t *testing.T) {
	f := newFIFO[int]()

	const producers, perProducer = 10, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				f.push(i)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, producers*perProducer, f.len())
}
