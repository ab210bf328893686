package sh

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/mcuasync/pkg/async"
	"github.com/robotalks/mcuasync/pkg/board"
	"github.com/robotalks/mcuasync/pkg/fairshare"
	"github.com/robotalks/mcuasync/pkg/telemetry"
)

// Errors
var (
	ErrHolderExists = errors.New("name already holds or waits for access")
	ErrNoHolder     = errors.New("name neither holds nor waits for access")
	ErrNotGranted   = errors.New("access not granted yet")
)

// Session tracks the accesses taken from the shell, each under a name.
// The shell is the only user of the board's SPI handle.
type Session struct {
	Board *board.Board
	// OnGranted is called from a background goroutine when a queued
	// access is granted.
	OnGranted func(name string, ticket fairshare.Ticket)

	lock    sync.Mutex
	holders map[string]*holder
}

type holder struct {
	name     string
	ticket   fairshare.Ticket
	guard    *fairshare.Guard[uint32]
	cancel   context.CancelFunc
	canceled bool
	doneCh   chan struct{}
}

// HolderStatus describes a named access.
type HolderStatus struct {
	Name    string `json:"name"`
	Ticket  uint16 `json:"ticket"`
	Granted bool   `json:"granted"`
}

// Status is a snapshot of the board.
type Status struct {
	Next      uint16         `json:"next"`
	Serving   uint16         `json:"serving"`
	Waiting   int            `json:"waiting"`
	Busy      bool           `json:"busy"`
	Holders   []HolderStatus `json:"holders"`
	SPIIdle   bool           `json:"spi_idle"`
	Transfers uint64         `json:"transfers"`
	Spurious  uint64         `json:"spurious"`
}

// NewSession creates a Session.
func NewSession(b *board.Board) *Session {
	return &Session{Board: b, holders: make(map[string]*holder)}
}

// Access requests access under name. It returns the ticket and whether the
// access was granted right away, otherwise it is granted in background.
func (s *Session) Access(name string) (fairshare.Ticket, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, exists := s.holders[name]; exists {
		return 0, false, ErrHolderExists
	}
	f := s.Board.Share.Access()
	guard, granted := f.Poll(async.NoopWaker)
	ticket, _ := f.Ticket()
	s.Board.Emit(&telemetry.AccessRequested{Task: name, Ticket: uint32(ticket), Queued: !granted})
	h := &holder{name: name, ticket: ticket, doneCh: make(chan struct{})}
	s.holders[name] = h
	if granted {
		h.guard = guard
		close(h.doneCh)
		s.emitGranted(h)
		return ticket, true, nil
	}
	var ctx context.Context
	ctx, h.cancel = context.WithCancel(context.Background())
	go s.await(ctx, h, f)
	return ticket, false, nil
}

func (s *Session) await(ctx context.Context, h *holder, f *fairshare.AccessFuture[uint32]) {
	defer close(h.doneCh)
	guard, err := async.Await[*fairshare.Guard[uint32]](ctx, f)
	if err != nil {
		glog.V(2).Infof("sh: %s: access withdrawn: %v", h.name, err)
		return
	}
	s.lock.Lock()
	if h.canceled {
		s.lock.Unlock()
		guard.Release()
		return
	}
	h.guard = guard
	s.emitGranted(h)
	s.lock.Unlock()
	if fn := s.OnGranted; fn != nil {
		fn(h.name, h.ticket)
	}
}

func (s *Session) emitGranted(h *holder) {
	s.Board.Emit(&telemetry.AccessGranted{Task: h.name, Ticket: uint32(h.ticket), Value: *h.guard.Value()})
}

// Release gives up the access held by name, or withdraws the pending
// request.
func (s *Session) Release(name string) error {
	s.lock.Lock()
	h, exists := s.holders[name]
	if !exists {
		s.lock.Unlock()
		return ErrNoHolder
	}
	delete(s.holders, name)
	if h.guard != nil {
		s.Board.Emit(&telemetry.AccessReleased{Task: name, Ticket: uint32(h.ticket), Value: *h.guard.Value()})
		h.guard.Release()
		s.lock.Unlock()
		return nil
	}
	h.canceled = true
	s.lock.Unlock()
	h.cancel()
	<-h.doneCh
	return nil
}

// Value reads the shared value through the access held by name, and sets
// it first if val is not nil.
func (s *Session) Value(name string, val *uint32) (uint32, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	h, exists := s.holders[name]
	if !exists {
		return 0, ErrNoHolder
	}
	if h.guard == nil {
		return 0, ErrNotGranted
	}
	if val != nil {
		*h.guard.Value() = *val
	}
	return *h.guard.Value(), nil
}

// Wait blocks until the access of name is granted or withdrawn.
func (s *Session) Wait(ctx context.Context, name string) error {
	s.lock.Lock()
	h, exists := s.holders[name]
	s.lock.Unlock()
	if !exists {
		return ErrNoHolder
	}
	select {
	case <-h.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Transfer runs a DMA transfer and waits for the received bytes.
func (s *Session) Transfer(buf []byte) []byte {
	b := s.Board
	start := b.Mono.Now()
	b.Emit(&telemetry.TransferStarted{Task: "sh", Length: uint32(len(buf))})
	out := b.SPI.TransferBlocking(buf)
	b.Emit(&telemetry.TransferCompleted{
		Task:     "sh",
		Length:   uint32(len(out)),
		Data:     out,
		Duration: int64(b.Mono.Now().Sub(start)),
	})
	return out
}

// Status takes a snapshot.
func (s *Session) Status() Status {
	b := s.Board
	stats := b.Share.Stats()
	st := Status{
		Next:      uint16(stats.Next),
		Serving:   uint16(stats.Serving),
		Waiting:   stats.Waiting,
		Busy:      stats.Busy(),
		Holders:   []HolderStatus{},
		SPIIdle:   b.SPI.Idle(),
		Transfers: b.SPIM.Transfers(),
		Spurious:  b.Backend.Spurious(),
	}
	s.lock.Lock()
	for _, h := range s.holders {
		st.Holders = append(st.Holders, HolderStatus{Name: h.name, Ticket: uint16(h.ticket), Granted: h.guard != nil})
	}
	s.lock.Unlock()
	sort.Slice(st.Holders, func(i, j int) bool { return st.Holders[i].Name < st.Holders[j].Name })
	return st
}

// Close withdraws or releases all accesses.
func (s *Session) Close() {
	s.lock.Lock()
	names := make([]string, 0, len(s.holders))
	for name := range s.holders {
		names = append(names, name)
	}
	s.lock.Unlock()
	for _, name := range names {
		s.Release(name)
	}
}
