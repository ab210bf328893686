package async

// Waker is the resume handle of a suspended operation.
type Waker interface {
	Wake()
}

// WakeFunc is the func form of Waker.
type WakeFunc func()

// Wake implements Waker.
func (f WakeFunc) Wake() {
	f()
}

type noopWaker struct{}

func (noopWaker) Wake() {}

// NoopWaker is a Waker which does nothing, useful when polling manually.
var NoopWaker Waker = noopWaker{}

// chanWaker wakes a blocked goroutine. Wakes are coalesced.
type chanWaker chan struct{}

func newChanWaker() chanWaker {
	return make(chanWaker, 1)
}

func (w chanWaker) Wake() {
	select {
	case w <- struct{}{}:
	default:
	}
}
