// Package spi drives SPI DMA transfers asynchronously.
//
// A Storage is split once into a Handle, used by the task side to start
// transfers, and a Backend, called from the peripheral's END interrupt.
// They share a single-slot queue holding the waker of the transfer in
// progress: the Handle enqueues before enabling the interrupt, the Backend
// disables the interrupt and dequeues. An interrupt therefore never fires
// without a waker to find, and a queued waker is never left behind by a
// fired interrupt. Polling a transfer again before it ends replaces the
// queued waker.
package spi
