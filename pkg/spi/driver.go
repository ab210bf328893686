package spi

import (
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/async"
	"github.com/robotalks/mcuasync/pkg/ssq"
)

type stateTag uint8

const (
	// stateIntermediate is only ever set while moving between the two
	// real states.
	stateIntermediate stateTag = iota
	stateIdle
	stateTransfer
)

// spiOrTransfer owns either the idle master or the transfer, never both.
type spiOrTransfer struct {
	tag      stateTag
	master   Master
	transfer Transfer
}

func (s *spiOrTransfer) take() spiOrTransfer {
	st := *s
	*s = spiOrTransfer{tag: stateIntermediate}
	return st
}

// Storage holds the waker queue shared by a Handle and its Backend.
// Create one per peripheral at start-up.
type Storage struct {
	wakers ssq.SingleSlotQueue[async.Waker]
}

// NewStorage creates a Storage.
func NewStorage() *Storage {
	return &Storage{}
}

// Split consumes the storage and the idle master and gives the task side
// Handle and the interrupt side Backend.
func (s *Storage) Split(m Master) (*Handle, *Backend) {
	producer, consumer := s.wakers.Split()
	regs := m.Registers()
	return &Handle{
			wakers: producer,
			regs:   regs,
			state:  spiOrTransfer{tag: stateIdle, master: m},
		}, &Backend{
			waiting: consumer,
			regs:    regs,
		}
}

// Backend handles the END interrupt of the peripheral.
type Backend struct {
	waiting *ssq.Consumer[async.Waker]
	regs    Registers

	spurious atomic.Uint64
}

// OnInterrupt must be called from the peripheral interrupt. The pending
// flag is left for the transfer future to clear.
func (b *Backend) OnInterrupt() {
	b.regs.DisableEndInterrupt()
	if w, ok := b.waiting.Dequeue(); ok {
		glog.V(2).Info("spi: interrupt, waking transfer")
		w.Wake()
		return
	}
	b.spurious.Add(1)
	glog.V(2).Info("spi: spurious interrupt")
}

// Spurious returns the number of interrupts which found no waker.
func (b *Backend) Spurious() uint64 {
	return b.spurious.Load()
}

// Handle is used by a single task to run transfers on the peripheral.
type Handle struct {
	wakers *ssq.Producer[async.Waker]
	regs   Registers
	state  spiOrTransfer
}

// Idle reports whether no transfer is in progress.
func (h *Handle) Idle() bool {
	return h.state.tag == stateIdle
}

// Transfer returns a future performing a full duplex transfer over buf in
// place and completing with buf. A started transfer cannot be abandoned:
// the future must be polled to completion.
func (h *Handle) Transfer(buf []byte) *TransferFuture {
	glog.V(2).Infof("spi: creating transfer of %d bytes", len(buf))
	return &TransferFuture{h: h, buf: buf}
}

// TransferBlocking runs Transfer on the calling goroutine.
func (h *Handle) TransferBlocking(buf []byte) []byte {
	return async.Block[[]byte](h.Transfer(buf))
}

// setWaker queues w for the Backend, replacing a waker left over from an
// earlier poll.
func (h *Handle) setWaker(w async.Waker) {
	if _, replaced := h.wakers.Swap(w); replaced {
		glog.V(2).Info("spi: replaced pending waker")
	}
}

// TransferFuture is a transfer in the making.
type TransferFuture struct {
	h       *Handle
	buf     []byte
	started bool
	done    bool
}

// Poll implements async.Future. The buffer is handed back by the poll
// observing completion only; later polls return nil.
func (f *TransferFuture) Poll(w async.Waker) ([]byte, bool) {
	if f.done {
		return nil, true
	}
	h := f.h
	st := h.state.take()
	switch {
	case st.tag == stateIntermediate:
		panic(ErrIntermediateState)
	case !f.started && st.tag == stateTransfer:
		h.state = st
		panic(ErrBusy)
	case !f.started:
		h.regs.ResetEnd()
		// Queue the waker before the interrupt can fire.
		h.setWaker(w)
		h.regs.EnableEndInterrupt()
		h.state = spiOrTransfer{tag: stateTransfer, transfer: st.master.DMATransfer(f.buf)}
		f.buf = nil
		f.started = true
		glog.V(2).Info("spi: transfer started")
	case st.tag != stateTransfer:
		h.state = st
		panic(ErrIntermediateState)
	case st.transfer.IsDone():
		buf, m := st.transfer.Wait()
		h.state = spiOrTransfer{tag: stateIdle, master: m}
		f.done = true
		glog.V(2).Info("spi: transfer done")
		return buf, true
	default:
		// Not done: woken by a shared interrupt, or polled again early.
		h.state = st
		h.setWaker(w)
		h.regs.EnableEndInterrupt()
		glog.V(2).Info("spi: transfer not done")
	}
	return nil, false
}
