package ssq

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueDequeue(t *testing.T) {
	q := New[string]()
	require.True(t, q.IsEmpty())

	_, ok := q.Enqueue("x")
	require.True(t, ok)
	require.False(t, q.IsEmpty())

	v, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, "x", v)
	require.True(t, q.IsEmpty())

	_, ok = q.Dequeue()
	require.False(t, ok, "value must be dequeued exactly once")
}

func TestEnqueueFullRejects(t *testing.T) {
	q := New[int]()
	_, ok := q.Enqueue(1)
	require.True(t, ok)

	rejected, ok := q.Enqueue(2)
	require.False(t, ok)
	require.Equal(t, 2, rejected)

	v, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, 1, v, "rejected enqueue must not overwrite")
	require.True(t, q.IsEmpty())
}

func TestDequeueEmpty(t *testing.T) {
	q := New[*int]()
	v, ok := q.Dequeue()
	require.False(t, ok)
	require.Nil(t, v)
}

func TestSplitOnce(t *testing.T) {
	q := New[int]()
	p, c := q.Split()
	require.True(t, p.Ready())
	require.False(t, c.Ready())

	_, ok := p.Enqueue(5)
	require.True(t, ok)
	assert.False(t, p.Ready())
	assert.True(t, c.Ready())

	v, ok := c.Dequeue()
	require.True(t, ok)
	require.Equal(t, 5, v)

	require.Panics(t, func() { q.Split() })
}

func TestSingleProducerSingleConsumer(t *testing.T) {
	const N = 100_000

	p, c := New[int]().Split()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= N; i++ {
			v := i
			for {
				var ok bool
				if v, ok = p.Enqueue(v); ok {
					break
				}
				runtime.Gosched()
			}
		}
	}()

	for want := 1; want <= N; {
		v, ok := c.Dequeue()
		if !ok {
			runtime.Gosched()
			continue
		}
		if v != want {
			t.Fatalf("Dequeue() = %d, want %d", v, want)
		}
		want++
	}
	wg.Wait()
	require.False(t, c.Ready())
}

func TestProducerSwap(t *testing.T) {
	p, c := New[string]().Split()

	old, replaced := p.Swap("a")
	require.False(t, replaced)
	require.Empty(t, old)

	old, replaced = p.Swap("b")
	require.True(t, replaced)
	require.Equal(t, "a", old)

	_, ok := p.Enqueue("c")
	require.False(t, ok, "swap keeps a single value queued")

	v, ok := c.Dequeue()
	require.True(t, ok)
	require.Equal(t, "b", v)
	_, ok = c.Dequeue()
	require.False(t, ok)
}

func TestSwapRacingDequeue(t *testing.T) {
	const N = 5_000

	p, c := New[int]().Split()
	done := make(chan struct{})
	result := make(chan []int, 1)
	go func() {
		var taken []int
		for len(taken) < N {
			if v, ok := c.Dequeue(); ok {
				taken = append(taken, v)
			} else {
				runtime.Gosched()
			}
		}
		close(done)
		result <- taken
	}()
	for i := 1; ; i++ {
		select {
		case <-done:
		default:
			p.Swap(i)
			continue
		}
		break
	}
	taken := <-result
	for n := 1; n < len(taken); n++ {
		require.Greater(t, taken[n], taken[n-1], "values come out in order, none twice")
	}
}
