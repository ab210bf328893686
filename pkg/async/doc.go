// Package async provides the resume-handle and poll contract shared by the
// interrupt-driven primitives in this module.
package async

// An operation is modelled as a Future which is polled repeatedly by
// whatever drives it (an executor bound to a software interrupt, or a
// goroutine via Block/Await). When a poll cannot complete, the future keeps
// the Waker it was polled with and arranges for Wake to be called once
// progress is possible. Wake means "poll me again", nothing more: a future
// must tolerate being polled without anything having changed.
