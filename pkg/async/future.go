package async

import "context"

// Future is a suspendable unit of work producing a T.
type Future[T any] interface {
	// Poll advances the operation. It returns the result and true when
	// complete, otherwise it registers w to be woken and returns false.
	Poll(w Waker) (T, bool)
}

// FutureFunc is the func form of Future.
type FutureFunc[T any] func(Waker) (T, bool)

// Poll implements Future.
func (f FutureFunc[T]) Poll(w Waker) (T, bool) {
	return f(w)
}

// Canceler is implemented by futures which support being abandoned
// while pending.
type Canceler interface {
	Cancel()
}

// Ready returns a future which completes immediately with v.
func Ready[T any](v T) Future[T] {
	return FutureFunc[T](func(Waker) (T, bool) { return v, true })
}

// Block drives f on the calling goroutine until it completes.
func Block[T any](f Future[T]) T {
	w := newChanWaker()
	for {
		if v, ok := f.Poll(w); ok {
			return v
		}
		<-w
	}
}

// Await is like Block but gives up when ctx is done. A pending future
// implementing Canceler is canceled before returning.
func Await[T any](ctx context.Context, f Future[T]) (T, error) {
	w := newChanWaker()
	for {
		if v, ok := f.Poll(w); ok {
			return v, nil
		}
		select {
		case <-w:
		case <-ctx.Done():
			if c, ok := f.(Canceler); ok {
				c.Cancel()
			}
			var zero T
			return zero, ctx.Err()
		}
	}
}
