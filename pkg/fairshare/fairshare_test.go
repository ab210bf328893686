package fairshare

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/mcuasync/pkg/async"
)

type recordingWaker struct {
	name  string
	woken *[]string
}

func (w recordingWaker) Wake() { *w.woken = append(*w.woken, w.name) }

func TestGrantOrderScenario(t *testing.T) {
	var woken []string
	fs := New(0)
	a, b, c := fs.Access(), fs.Access(), fs.Access()

	ga, ok := a.Poll(recordingWaker{"A", &woken})
	require.True(t, ok, "A is granted immediately")
	require.EqualValues(t, 0, ga.Ticket())

	_, ok = b.Poll(recordingWaker{"B", &woken})
	require.False(t, ok)
	_, ok = c.Poll(recordingWaker{"C", &woken})
	require.False(t, ok)
	tb, _ := b.Ticket()
	tc, _ := c.Ticket()
	require.EqualValues(t, 1, tb)
	require.EqualValues(t, 2, tc)

	*ga.Value()++
	ga.Release()
	require.Equal(t, []string{"B"}, woken)
	require.EqualValues(t, 1, fs.Stats().Serving)

	_, ok = c.Poll(recordingWaker{"C", &woken})
	require.False(t, ok, "C must wait for B")
	gb, ok := b.Poll(recordingWaker{"B", &woken})
	require.True(t, ok)
	require.Equal(t, 1, *gb.Value())

	_, ok = c.Poll(recordingWaker{"C", &woken})
	require.False(t, ok, "C remains suspended until B releases")
	*gb.Value()++
	gb.Release()
	require.Equal(t, []string{"B", "C"}, woken)

	gc, ok := c.Poll(recordingWaker{"C", &woken})
	require.True(t, ok)
	require.Equal(t, 2, *gc.Value())
	gc.Release()

	st := fs.Stats()
	require.False(t, st.Busy())
	require.EqualValues(t, 3, st.Next)
}

func TestGrantOrderIndependentOfPollOrder(t *testing.T) {
	const N = 8
	fs := New("", WithCapacity(N))
	futures := make([]*AccessFuture[string], N)
	for i := range futures {
		futures[i] = fs.Access()
	}
	guard, ok := futures[0].Poll(async.NoopWaker)
	require.True(t, ok)
	for _, f := range futures[1:] {
		_, ok := f.Poll(async.NoopWaker)
		require.False(t, ok)
	}

	for want := 1; want < N; want++ {
		guard.Release()
		guard = nil
		// Poll the pending ones back to front: only the next in line wins.
		for i := N - 1; i >= want; i-- {
			g, ok := futures[i].Poll(async.NoopWaker)
			if i == want {
				require.True(t, ok, "request %d must be granted", i)
				guard = g
			} else {
				require.False(t, ok, "request %d granted out of order", i)
			}
		}
		require.NotNil(t, guard)
		require.EqualValues(t, want, guard.Ticket())
	}
	guard.Release()
	require.False(t, fs.Stats().Busy())
}

func TestTicketWraparoundKeepsOrder(t *testing.T) {
	fs := New(0)
	fs.mgmt.idxIn, fs.mgmt.idxOut = 0xfffe, 0xfffe

	futures := make([]*AccessFuture[int], 4)
	for i := range futures {
		futures[i] = fs.Access()
	}
	guard, ok := futures[0].Poll(async.NoopWaker)
	require.True(t, ok)
	for _, f := range futures[1:] {
		_, ok := f.Poll(async.NoopWaker)
		require.False(t, ok)
	}
	tickets := make([]Ticket, len(futures))
	for i, f := range futures {
		tickets[i], _ = f.Ticket()
	}
	require.Equal(t, []Ticket{0xfffe, 0xffff, 0, 1}, tickets)

	for i := 1; i < len(futures); i++ {
		guard.Release()
		for j := len(futures) - 1; j > i; j-- {
			_, ok := futures[j].Poll(async.NoopWaker)
			require.False(t, ok)
		}
		guard, ok = futures[i].Poll(async.NoopWaker)
		require.True(t, ok)
		require.Equal(t, tickets[i], guard.Ticket())
	}
	guard.Release()
	require.EqualValues(t, 2, fs.Stats().Serving)
}

func TestTicketFullCycle(t *testing.T) {
	fs := New(0)
	first, ok := fs.TryLock()
	require.True(t, ok)
	firstTicket := first.Ticket()
	first.Release()

	// Keep one request waiting behind every owner across a full cycle.
	guard, ok := fs.TryLock()
	require.True(t, ok)
	for i := 2; i < 1<<16; i++ {
		next := fs.Access()
		_, ok := next.Poll(async.NoopWaker)
		require.False(t, ok)
		guard.Release()
		guard, ok = next.Poll(async.NoopWaker)
		if !ok {
			t.Fatalf("access %d not granted after release", i)
		}
	}
	guard.Release()

	again, ok := fs.TryLock()
	require.True(t, ok)
	assert.Equal(t, firstTicket, again.Ticket(), "ticket values repeat after 2^16 accesses")
	again.Release()
}

func TestCancelQueuedRequest(t *testing.T) {
	var woken []string
	fs := New(0)
	guard, ok := fs.TryLock()
	require.True(t, ok)

	b, c := fs.Access(), fs.Access()
	b.Poll(recordingWaker{"B", &woken})
	c.Poll(recordingWaker{"C", &woken})
	b.Cancel()
	require.Equal(t, 1, fs.Stats().Waiting)

	guard.Release()
	require.Equal(t, []string{"C"}, woken)
	gc, ok := c.Poll(async.NoopWaker)
	require.True(t, ok)
	gc.Release()
	require.Panics(t, func() { b.Poll(async.NoopWaker) })
}

func TestCancelAfterHandoverPassesOn(t *testing.T) {
	var woken []string
	fs := New(0)
	guard, _ := fs.TryLock()
	b, c := fs.Access(), fs.Access()
	b.Poll(recordingWaker{"B", &woken})
	c.Poll(recordingWaker{"C", &woken})

	guard.Release()
	require.Equal(t, []string{"B"}, woken)
	// B was handed access but gives up before taking it.
	b.Cancel()
	require.Equal(t, []string{"B", "C"}, woken)
	gc, ok := c.Poll(async.NoopWaker)
	require.True(t, ok)
	gc.Release()
	require.False(t, fs.Stats().Busy())
}

func TestCancelAfterGrantIsNoop(t *testing.T) {
	fs := New(0)
	f := fs.Access()
	g, ok := f.Poll(async.NoopWaker)
	require.True(t, ok)
	f.Cancel()
	require.True(t, fs.Stats().Busy())
	g.Release()
	require.False(t, fs.Stats().Busy())
}

func TestTryLock(t *testing.T) {
	fs := New(0)
	g, ok := fs.TryLock()
	require.True(t, ok)
	_, ok = fs.TryLock()
	require.False(t, ok)
	f := fs.Access()
	f.Poll(async.NoopWaker)
	g.Release()
	_, ok = fs.TryLock()
	require.False(t, ok, "a waiting request has priority")
	g, ok = f.Poll(async.NoopWaker)
	require.True(t, ok)
	g.Release()
	g.Release()
	_, ok = fs.TryLock()
	require.True(t, ok, "double release must not skip a ticket")
}

func TestCapacityOverflowPanics(t *testing.T) {
	fs := New(0, WithCapacity(2))
	g, _ := fs.TryLock()
	fs.Access().Poll(async.NoopWaker)
	fs.Access().Poll(async.NoopWaker)
	require.PanicsWithValue(t, ErrCapacity, func() {
		fs.Access().Poll(async.NoopWaker)
	})
	g.Release()
}

func TestCapacityOutOfRange(t *testing.T) {
	for _, n := range []int{-1, 0, MaxCapacity + 1, 1 << 16} {
		require.ErrorIs(t, CheckCapacity(n), ErrInvalidCapacity, "capacity %d", n)
		require.Panics(t, func() { WithCapacity(n) }, "capacity %d", n)
	}
	require.NoError(t, CheckCapacity(1))
	require.NoError(t, CheckCapacity(MaxCapacity))
}

func TestMaxCapacityKeepsTicketsDistinct(t *testing.T) {
	fs := New(0, WithCapacity(MaxCapacity))
	g, ok := fs.TryLock()
	require.True(t, ok)
	futs := make([]*AccessFuture[int], MaxCapacity)
	for n := range futs {
		futs[n] = fs.Access()
		_, done := futs[n].Poll(async.NoopWaker)
		require.False(t, done)
	}
	require.PanicsWithValue(t, ErrCapacity, func() {
		fs.Access().Poll(async.NoopWaker)
	})
	st := fs.Stats()
	require.NotEqual(t, st.Next, st.Serving)
	require.Equal(t, MaxCapacity, st.Waiting)

	g.Release()
	for n, f := range futs[:3] {
		next, done := f.Poll(async.NoopWaker)
		require.True(t, done, "waiter %d", n)
		next.Release()
	}
}

func TestValueAfterReleasePanics(t *testing.T) {
	fs := New(1)
	g, _ := fs.TryLock()
	g.Release()
	require.PanicsWithValue(t, ErrReleased, func() { g.Value() })
}

func TestLockConcurrent(t *testing.T) {
	const workers = 8
	const rounds = 200
	fs := New(0, WithCapacity(workers))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted []Ticket
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				g, err := fs.Lock(context.Background())
				if err != nil {
					t.Error(err)
					return
				}
				*g.Value()++
				mu.Lock()
				granted = append(granted, g.Ticket())
				mu.Unlock()
				g.Release()
			}
		}()
	}
	wg.Wait()

	g, ok := fs.TryLock()
	require.True(t, ok)
	require.Equal(t, workers*rounds, *g.Value())
	g.Release()
	require.Len(t, granted, workers*rounds)
	for i, ticket := range granted {
		require.Equal(t, Ticket(i), ticket, "grants must follow ticket order")
	}
}

func TestLockTimeoutWithdraws(t *testing.T) {
	fs := New(0)
	g, _ := fs.TryLock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := fs.Lock(ctx)
	require.Equal(t, context.DeadlineExceeded, err)
	require.Equal(t, 0, fs.Stats().Waiting)
	g.Release()
	require.False(t, fs.Stats().Busy())
}
