package fairshare

import (
	"container/list"

	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/async"
)

type accessState uint8

const (
	accessNew accessState = iota
	accessQueued
	accessGranted
	accessCanceled
)

// AccessFuture is a request for exclusive access.
type AccessFuture[T any] struct {
	fs     *FairShare[T]
	state  accessState
	ticket Ticket
	elem   *list.Element
}

// Ticket returns the ticket taken by the request and whether one was
// taken yet.
func (f *AccessFuture[T]) Ticket() (Ticket, bool) {
	f.fs.lock.Lock()
	defer f.fs.lock.Unlock()
	return f.ticket, f.state != accessNew
}

// Poll implements async.Future.
func (f *AccessFuture[T]) Poll(w async.Waker) (*Guard[T], bool) {
	fs := f.fs
	fs.lock.Lock()
	defer fs.lock.Unlock()
	m := &fs.mgmt
	switch f.state {
	case accessNew:
		if ticket, ok := m.tryDirectAccess(); ok {
			f.ticket, f.state = ticket, accessGranted
			return &Guard[T]{fs: fs, ticket: ticket}, true
		}
		f.ticket, f.elem = m.enqueue(w)
		f.state = accessQueued
		glog.V(2).Infof("fairshare: %d: waiting for exclusive access", f.ticket)
	case accessQueued:
		if m.idxOut == f.ticket {
			if m.waiters.Front() != f.elem {
				panic(ErrOrder)
			}
			m.waiters.Remove(f.elem)
			f.elem, f.state = nil, accessGranted
			glog.V(2).Infof("fairshare: %d: exclusive access granted", f.ticket)
			return &Guard[T]{fs: fs, ticket: f.ticket}, true
		}
		f.elem.Value.(*waiter).waker = w
		glog.V(2).Infof("fairshare: %d: still waiting for exclusive access", f.ticket)
	default:
		panic(ErrPolledAfterCompletion)
	}
	return nil, false
}

// Cancel withdraws a request which has not produced a guard yet. If access
// was already passed to it, access moves on to the next request. Cancel
// after the guard was handed out does nothing.
func (f *AccessFuture[T]) Cancel() {
	fs := f.fs
	fs.lock.Lock()
	var next async.Waker
	switch f.state {
	case accessNew:
		f.state = accessCanceled
	case accessQueued:
		fs.mgmt.waiters.Remove(f.elem)
		f.elem, f.state = nil, accessCanceled
		glog.V(2).Infof("fairshare: %d: request withdrawn", f.ticket)
		if fs.mgmt.idxOut == f.ticket {
			next = fs.mgmt.advance()
		}
	}
	fs.lock.Unlock()
	if next != nil {
		next.Wake()
	}
}

// Guard is the exclusive access to the value, until released.
type Guard[T any] struct {
	fs       *FairShare[T]
	ticket   Ticket
	released bool
}

// Value gives access to the guarded value. The pointer must not be used
// after Release.
func (g *Guard[T]) Value() *T {
	if g.released {
		panic(ErrReleased)
	}
	return &g.fs.value
}

// Ticket returns the ticket the access was granted for.
func (g *Guard[T]) Ticket() Ticket {
	return g.ticket
}

// Release gives up the access and resumes the next request in line.
// Calling it again does nothing; use it with defer to release at the end
// of a scope.
func (g *Guard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	glog.V(2).Infof("fairshare: %d: returning exclusive access", g.ticket)
	g.fs.release()
}
