package framework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcherServesByPriority(t *testing.T) {
	var order []string
	d := NewDispatcher()
	d.Bind(1, PrLvLow, HandlerFunc(func() { order = append(order, "low") }))
	d.Bind(2, PrLvTop, HandlerFunc(func() { order = append(order, "top") }))
	d.Bind(3, PrLvNormal, HandlerFunc(func() { order = append(order, "normal") }))

	d.Pend(1)
	d.Pend(3)
	d.Pend(2)
	require.Equal(t, 3, d.Drain())
	require.Equal(t, []string{"top", "normal", "low"}, order)
}

func TestDispatcherCoalescesPend(t *testing.T) {
	count := 0
	d := NewDispatcher()
	d.Bind(0, PrLvTask, HandlerFunc(func() { count++ }))
	d.Pend(0)
	d.Pend(0)
	require.True(t, d.IsPending(0))
	require.Equal(t, 1, d.Drain())
	require.Equal(t, 1, count)
	require.False(t, d.IsPending(0))
}

func TestDispatcherRependFromHandler(t *testing.T) {
	count := 0
	d := NewDispatcher()
	d.Bind(5, PrLvTask, HandlerFunc(func() {
		count++
		if count < 3 {
			d.Pend(5)
		}
	}))
	d.Pend(5)
	require.Equal(t, 3, d.Drain())
}

func TestDispatcherBindTwicePanics(t *testing.T) {
	d := NewDispatcher()
	d.Bind(1, PrLvTask, HandlerFunc(func() {}))
	require.Panics(t, func() { d.Bind(1, PrLvTask, HandlerFunc(func() {})) })
	require.Panics(t, func() { d.Bind(MaxVectors, PrLvTask, HandlerFunc(func() {})) })
	require.Panics(t, func() { d.Bind(2, PriorityLevels, HandlerFunc(func() {})) })
}

func TestDispatcherVectorOutOfRangePanics(t *testing.T) {
	d := NewDispatcher()
	require.PanicsWithValue(t, "vector 64 out of range", func() { d.Pend(MaxVectors) })
	require.PanicsWithValue(t, "vector 200 out of range", func() { d.Pend(200) })
	require.PanicsWithValue(t, "vector 64 out of range", func() { d.IsPending(MaxVectors) })
	require.PanicsWithValue(t, "vector 64 out of range", func() {
		d.Bind(MaxVectors, PrLvTask, HandlerFunc(func() {}))
	})
	require.Equal(t, 0, d.Drain())
}

func TestDispatcherRun(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	d := NewDispatcher()
	d.Bind(7, PrLvTask, HandlerFunc(wg.Done))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()
	d.Pender(7)()
	wg.Wait()
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestTaskPriority(t *testing.T) {
	require.Equal(t, PrLvIdle-1, TaskPriority(1))
	require.Equal(t, PrLvIdle-4, TaskPriority(4))
	require.Less(t, TaskPriority(4), TaskPriority(1))
	require.Equal(t, PrLvPeripheral+1, TaskPriority(100))
	require.Equal(t, PrLvIdle, TaskPriority(-3))
}

func TestRunnerAggregatesErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return errA }),
		NamedRun("b", RunFunc(func(context.Context) error { return errB })),
		RunFunc(func(context.Context) error { return context.Canceled }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}
