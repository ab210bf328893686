package framework

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Dispatcher emulates an interrupt controller on a single core: vectors are
// bound to handlers at a priority level, pended from any goroutine, and
// served one at a time, most urgent level first.
type Dispatcher struct {
	vectors [MaxVectors]binding
	levels  [PriorityLevels]vectorList

	pending [MaxVectors]bool
	lock    sync.Mutex

	wakeUpCh chan struct{}
}

type binding struct {
	handler  Handler
	priority int
}

type vectorList struct {
	vectors []Vector
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{wakeUpCh: make(chan struct{}, 1)}
}

// Bind attaches a handler to the vector at the priority level.
// Binding a vector twice is a configuration bug.
func (d *Dispatcher) Bind(vec Vector, priorityLevel int, h Handler) *Dispatcher {
	checkVector(vec)
	if priorityLevel < 0 || priorityLevel >= PriorityLevels {
		panic(fmt.Sprintf("priority level %d out of range", priorityLevel))
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.vectors[vec].handler != nil {
		panic(fmt.Sprintf("vector %d already bound", vec))
	}
	d.vectors[vec] = binding{handler: h, priority: priorityLevel}
	lst := &d.levels[priorityLevel]
	lst.vectors = append(lst.vectors, vec)
	return d
}

// Pend marks the vector pending. A vector pended again before it is served
// fires only once.
func (d *Dispatcher) Pend(vec Vector) {
	checkVector(vec)
	d.lock.Lock()
	d.pending[vec] = true
	d.lock.Unlock()
	select {
	case d.wakeUpCh <- struct{}{}:
	default:
	}
}

func checkVector(vec Vector) {
	if int(vec) >= MaxVectors {
		panic(fmt.Sprintf("vector %d out of range", vec))
	}
}

// Pender returns a func pending the vector, handy as a wake action.
func (d *Dispatcher) Pender(vec Vector) func() {
	return func() { d.Pend(vec) }
}

// IsPending reports whether the vector waits to be served.
func (d *Dispatcher) IsPending(vec Vector) bool {
	checkVector(vec)
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.pending[vec]
}

// Run serves pending vectors until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		for d.ServeOne() {
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wakeUpCh:
		}
	}
}

// ServeOne runs the handler of the most urgent pending vector and reports
// whether one was found. It must not be called concurrently with Run.
func (d *Dispatcher) ServeOne() bool {
	h, vec, ok := d.takeNext()
	if !ok {
		return false
	}
	glog.V(4).Infof("dispatch vector %d", vec)
	h.OnInterrupt()
	return true
}

// Drain serves pending vectors until none is left, returning the count.
func (d *Dispatcher) Drain() int {
	n := 0
	for d.ServeOne() {
		n++
	}
	return n
}

func (d *Dispatcher) takeNext() (Handler, Vector, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	for i := range d.levels {
		for _, vec := range d.levels[i].vectors {
			if d.pending[vec] {
				d.pending[vec] = false
				return d.vectors[vec].handler, vec, true
			}
		}
	}
	return nil, 0, false
}
