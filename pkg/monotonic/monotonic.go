// Package monotonic provides the time base used by application tasks:
// the current instant and delays which suspend a task instead of blocking.
package monotonic

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/robotalks/mcuasync/pkg/async"
)

// Monotonic wraps a clock.
type Monotonic struct {
	clock clock.Clock
}

// New creates a Monotonic on c, the wall clock if c is nil.
func New(c clock.Clock) *Monotonic {
	if c == nil {
		c = clock.New()
	}
	return &Monotonic{clock: c}
}

// Clock returns the underlying clock.
func (m *Monotonic) Clock() clock.Clock {
	return m.clock
}

// Now returns the current instant.
func (m *Monotonic) Now() time.Time {
	return m.clock.Now()
}

// Delay returns a future completing d after its first poll.
func (m *Monotonic) Delay(d time.Duration) *DelayFuture {
	return &DelayFuture{clock: m.clock, d: d}
}

// Sleep suspends the calling goroutine for d or until ctx is done.
func (m *Monotonic) Sleep(ctx context.Context, d time.Duration) error {
	_, err := async.Await[struct{}](ctx, m.Delay(d))
	return err
}

// DelayFuture is a pending delay.
type DelayFuture struct {
	clock clock.Clock
	d     time.Duration

	lock    sync.Mutex
	timer   *clock.Timer
	expired bool
	waker   async.Waker
}

// Poll implements async.Future.
func (f *DelayFuture) Poll(w async.Waker) (struct{}, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.expired {
		return struct{}{}, true
	}
	f.waker = w
	if f.timer == nil {
		if f.d <= 0 {
			f.expired = true
			return struct{}{}, true
		}
		f.timer = f.clock.AfterFunc(f.d, f.fire)
	}
	return struct{}{}, false
}

// Cancel implements async.Canceler.
func (f *DelayFuture) Cancel() {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.waker = nil
}

func (f *DelayFuture) fire() {
	f.lock.Lock()
	f.expired = true
	w := f.waker
	f.lock.Unlock()
	if w != nil {
		w.Wake()
	}
}
