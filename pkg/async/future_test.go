package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countdown struct {
	left     int
	waker    Waker
	canceled bool
}

func (c *countdown) Poll(w Waker) (int, bool) {
	if c.left == 0 {
		return 42, true
	}
	c.waker = w
	return 0, false
}

func (c *countdown) Cancel() {
	c.canceled = true
}

func TestBlockPollsUntilReady(t *testing.T) {
	polls := 0
	f := FutureFunc[string](func(w Waker) (string, bool) {
		polls++
		if polls < 3 {
			w.Wake()
			return "", false
		}
		return "done", true
	})
	require.Equal(t, "done", Block[string](f))
	require.Equal(t, 3, polls)
}

func TestReady(t *testing.T) {
	v, ok := Ready(7).Poll(NoopWaker)
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestAwaitCancelsPendingFuture(t *testing.T) {
	c := &countdown{left: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := Await[int](ctx, c)
	require.Equal(t, context.DeadlineExceeded, err)
	require.True(t, c.canceled)
}

func TestAwaitWakesFromOtherGoroutine(t *testing.T) {
	registered := make(chan Waker, 1)
	var fired atomic.Bool
	f := FutureFunc[int](func(w Waker) (int, bool) {
		if fired.Load() {
			return 42, true
		}
		select {
		case registered <- w:
		default:
		}
		return 0, false
	})
	resultCh := make(chan int, 1)
	go func() {
		v, err := Await[int](context.Background(), f)
		if err == nil {
			resultCh <- v
		}
	}()
	w := <-registered
	fired.Store(true)
	w.Wake()
	select {
	case v := <-resultCh:
		require.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("await not resumed")
	}
}

func TestChanWakerCoalesces(t *testing.T) {
	w := newChanWaker()
	w.Wake()
	w.Wake()
	require.Len(t, w, 1)
}
