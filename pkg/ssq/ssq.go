// Package ssq provides a lock-free single-slot queue used to hand a value
// from one execution context to another, e.g. from a task to an interrupt
// handler.
package ssq

import (
	"runtime"
	"sync/atomic"
)

const (
	slotEmpty uint32 = iota
	slotFull
	// slotBusy is held by whichever side is moving the value in or out.
	slotBusy
)

// SingleSlotQueue holds at most one value. It is safe for exactly one
// producer and one consumer running concurrently, never more.
//
// A side claims the slot by moving state to slotBusy, touches the value,
// then publishes slotFull or slotEmpty, so a consumer observing a full slot
// also observes the value.
type SingleSlotQueue[T any] struct {
	state atomic.Uint32
	split atomic.Bool
	slot  T
}

// New creates an empty queue.
func New[T any]() *SingleSlotQueue[T] {
	return &SingleSlotQueue[T]{}
}

// IsEmpty reports whether the slot is empty.
func (q *SingleSlotQueue[T]) IsEmpty() bool {
	return q.state.Load() != slotFull
}

// Enqueue stores v if the slot is empty and returns ok == true.
// If the slot is full, v is handed back unchanged with ok == false and the
// queue is untouched.
func (q *SingleSlotQueue[T]) Enqueue(v T) (rejected T, ok bool) {
	for {
		if q.state.CompareAndSwap(slotEmpty, slotBusy) {
			q.slot = v
			q.state.Store(slotFull)
			return rejected, true
		}
		if q.state.Load() == slotFull {
			return v, false
		}
		// The consumer is taking the value out.
		runtime.Gosched()
	}
}

// Dequeue takes the value out of the slot, if any. It never waits: a value
// still being stored counts as not there yet.
func (q *SingleSlotQueue[T]) Dequeue() (v T, ok bool) {
	if !q.state.CompareAndSwap(slotFull, slotBusy) {
		return v, false
	}
	v = q.slot
	var zero T
	q.slot = zero
	q.state.Store(slotEmpty)
	return v, true
}

// swap stores v whether or not the slot is full and returns the value it
// replaced.
func (q *SingleSlotQueue[T]) swap(v T) (old T, replaced bool) {
	for {
		if q.state.CompareAndSwap(slotFull, slotBusy) {
			old, q.slot = q.slot, v
			q.state.Store(slotFull)
			return old, true
		}
		if q.state.CompareAndSwap(slotEmpty, slotBusy) {
			q.slot = v
			q.state.Store(slotFull)
			return old, false
		}
		runtime.Gosched()
	}
}

// Split hands out the producer and the consumer ends. It may only be
// called once per queue.
func (q *SingleSlotQueue[T]) Split() (*Producer[T], *Consumer[T]) {
	if !q.split.CompareAndSwap(false, true) {
		panic("ssq: queue already split")
	}
	return &Producer[T]{q: q}, &Consumer[T]{q: q}
}

// Producer is the enqueueing end of a split queue.
type Producer[T any] struct {
	q *SingleSlotQueue[T]
}

// Enqueue is SingleSlotQueue.Enqueue.
func (p *Producer[T]) Enqueue(v T) (T, bool) {
	return p.q.Enqueue(v)
}

// Swap makes v the queued value. A value still queued is replaced and
// returned, otherwise v is simply enqueued. It lets the producer refresh
// what it handed over earlier without ever holding two values.
func (p *Producer[T]) Swap(v T) (old T, replaced bool) {
	return p.q.swap(v)
}

// Ready reports whether the slot can accept a value.
func (p *Producer[T]) Ready() bool {
	return p.q.IsEmpty()
}

// Consumer is the dequeueing end of a split queue.
type Consumer[T any] struct {
	q *SingleSlotQueue[T]
}

// Dequeue is SingleSlotQueue.Dequeue.
func (c *Consumer[T]) Dequeue() (T, bool) {
	return c.q.Dequeue()
}

// Ready reports whether a value is waiting.
func (c *Consumer[T]) Ready() bool {
	return !c.q.IsEmpty()
}
