package fairshare

import "errors"

var (
	// ErrCapacity indicates more simultaneous requests than the wait list
	// was sized for.
	ErrCapacity = errors.New("fairshare: more requests than space in the wait list")
	// ErrInvalidCapacity indicates a wait list size out of range.
	ErrInvalidCapacity = errors.New("fairshare: invalid capacity")
	// ErrOrder indicates access was passed to a request which is not at
	// the head of the wait list.
	ErrOrder = errors.New("fairshare: access granted out of order")
	// ErrPolledAfterCompletion indicates an access request was polled after
	// it produced a guard or was canceled.
	ErrPolledAfterCompletion = errors.New("fairshare: access polled after completion")
	// ErrReleased indicates the value was accessed through a released guard.
	ErrReleased = errors.New("fairshare: guard already released")
)
