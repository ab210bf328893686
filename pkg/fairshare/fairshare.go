// Package fairshare provides FairShare, an asynchronous exclusive access
// primitive granting a shared value to its requesters in arrival order.
//
// Each request takes a ticket. The request holding ticket idxOut owns the
// value; releasing it moves idxOut to the ticket at the head of the wait
// list and wakes that request. Tickets wrap around, so only equality of
// live tickets is ever tested.
package fairshare

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/async"
)

// Ticket marks the arrival order of a request.
type Ticket uint16

// DefaultCapacity is the default maximum number of waiting requests.
const DefaultCapacity = 10

// MaxCapacity keeps the tickets of the owner and every waiter distinct, so
// the next ticket never catches up with the one being served.
const MaxCapacity = 1<<16 - 2

type waiter struct {
	ticket Ticket
	waker  async.Waker
}

// management is only touched with FairShare.lock held.
type management struct {
	// idxIn is the next ticket to hand out.
	idxIn Ticket
	// idxOut is the ticket currently allowed to own the value.
	idxOut   Ticket
	waiters  list.List
	capacity int
}

func (m *management) enqueue(w async.Waker) (Ticket, *list.Element) {
	if m.waiters.Len() >= m.capacity {
		panic(ErrCapacity)
	}
	current := m.idxIn
	m.idxIn++
	glog.V(2).Infof("fairshare: enqueueing waker at ticket %d", current)
	return current, m.waiters.PushBack(&waiter{ticket: current, waker: w})
}

func (m *management) tryDirectAccess() (Ticket, bool) {
	if m.waiters.Len() == 0 && m.idxIn == m.idxOut {
		current := m.idxIn
		m.idxIn++
		glog.V(2).Infof("fairshare: direct access granted at ticket %d", current)
		return current, true
	}
	return 0, false
}

// advance hands ownership to the head of the wait list and returns its
// waker, or frees the value when nobody waits.
func (m *management) advance() async.Waker {
	if head := m.waiters.Front(); head != nil {
		w := head.Value.(*waiter)
		m.idxOut = w.ticket
		glog.V(2).Infof("fairshare: passing access to ticket %d", w.ticket)
		return w.waker
	}
	m.idxOut = m.idxIn
	glog.V(2).Info("fairshare: access returned with empty queue")
	return nil
}

// FairShare guards a value of type T. Create it once and share the pointer.
type FairShare[T any] struct {
	value T

	// lock stands in for the interrupt-free critical section.
	lock sync.Mutex
	mgmt management
}

// Option configures a FairShare.
type Option func(*management)

// WithCapacity sets the maximum number of simultaneously waiting requests.
// Exceeding it panics. n must be within 1 and MaxCapacity.
func WithCapacity(n int) Option {
	if err := CheckCapacity(n); err != nil {
		panic(err)
	}
	return func(m *management) {
		m.capacity = n
	}
}

// CheckCapacity returns ErrInvalidCapacity unless n is usable as a wait
// list capacity.
func CheckCapacity(n int) error {
	if n < 1 || n > MaxCapacity {
		return fmt.Errorf("%w: %d, must be within 1 and %d", ErrInvalidCapacity, n, MaxCapacity)
	}
	return nil
}

// New creates a FairShare guarding val.
func New[T any](val T, opts ...Option) *FairShare[T] {
	fs := &FairShare[T]{value: val}
	fs.mgmt.capacity = DefaultCapacity
	for _, opt := range opts {
		opt(&fs.mgmt)
	}
	return fs
}

// Access requests exclusive access. Poll the returned future, or use Lock.
func (fs *FairShare[T]) Access() *AccessFuture[T] {
	return &AccessFuture[T]{fs: fs}
}

// Lock waits for exclusive access on the calling goroutine. If ctx is done
// first the request is withdrawn and ctx.Err() returned.
func (fs *FairShare[T]) Lock(ctx context.Context) (*Guard[T], error) {
	return async.Await[*Guard[T]](ctx, fs.Access())
}

// TryLock grants access only if nobody owns or waits for the value.
func (fs *FairShare[T]) TryLock() (*Guard[T], bool) {
	fs.lock.Lock()
	ticket, ok := fs.mgmt.tryDirectAccess()
	fs.lock.Unlock()
	if !ok {
		return nil, false
	}
	return &Guard[T]{fs: fs, ticket: ticket}, true
}

// Stats is a snapshot of the queue state.
type Stats struct {
	// Next is the ticket the next request will take.
	Next Ticket
	// Serving is the ticket allowed to own the value.
	Serving Ticket
	// Waiting is the number of queued requests.
	Waiting int
}

// Busy reports whether the value is owned or about to be.
func (s Stats) Busy() bool {
	return s.Waiting > 0 || s.Next != s.Serving
}

// Stats returns a snapshot of the queue state.
func (fs *FairShare[T]) Stats() Stats {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return Stats{
		Next:    fs.mgmt.idxIn,
		Serving: fs.mgmt.idxOut,
		Waiting: fs.mgmt.waiters.Len(),
	}
}

// release is called by the owning guard. The waker runs after the
// critical section to keep it short.
func (fs *FairShare[T]) release() {
	fs.lock.Lock()
	w := fs.mgmt.advance()
	fs.lock.Unlock()
	if w != nil {
		w.Wake()
	}
}
