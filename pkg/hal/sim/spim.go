// Package sim simulates the board peripherals the drivers run on.
package sim

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/valyala/fastrand"

	fx "github.com/robotalks/mcuasync/pkg/framework"
	"github.com/robotalks/mcuasync/pkg/spi"
)

// SPIMConfig configures a simulated SPI master.
type SPIMConfig struct {
	Clock clock.Clock
	// Latency is the duration of every DMA transfer, plus up to Jitter.
	Latency time.Duration
	Jitter  time.Duration
	// Dispatcher and Vector deliver the END interrupt.
	Dispatcher *fx.Dispatcher
	Vector     fx.Vector
	// Loopback leaves the transmitted bytes in the buffer, otherwise the
	// peer answers with the bitwise complement.
	Loopback bool
	// SpuriousRate is the probability for a transfer to raise an extra
	// interrupt halfway, as a shared interrupt line would.
	SpuriousRate float64
}

// SPIM is a simulated SPI master with EasyDMA style transfers.
type SPIM struct {
	conf SPIMConfig
	regs registers

	transfers atomic.Uint64
	spurious  atomic.Uint64
}

// NewSPIM creates a SPIM.
func NewSPIM(conf SPIMConfig) *SPIM {
	if conf.Clock == nil {
		conf.Clock = clock.New()
	}
	s := &SPIM{conf: conf}
	s.regs.spim = s
	return s
}

// Registers implements spi.Master.
func (s *SPIM) Registers() spi.Registers {
	return &s.regs
}

// Transfers returns the number of transfers started.
func (s *SPIM) Transfers() uint64 {
	return s.transfers.Load()
}

// SpuriousRaised returns the number of injected spurious interrupts.
func (s *SPIM) SpuriousRaised() uint64 {
	return s.spurious.Load()
}

// DMATransfer implements spi.Master.
func (s *SPIM) DMATransfer(buf []byte) spi.Transfer {
	s.transfers.Add(1)
	t := &transfer{spim: s, buf: buf, doneCh: make(chan struct{})}
	delay := s.conf.Latency + jitter(s.conf.Jitter)
	glog.V(2).Infof("sim: SPIM transfer of %d bytes, done in %s", len(buf), delay)
	if roll(s.conf.SpuriousRate) {
		s.spurious.Add(1)
		s.conf.Clock.AfterFunc(delay/2, s.raiseSpurious)
	}
	s.conf.Clock.AfterFunc(delay, t.complete)
	return t
}

func (s *SPIM) pend() {
	if d := s.conf.Dispatcher; d != nil {
		d.Pend(s.conf.Vector)
	}
}

func (s *SPIM) raiseSpurious() {
	glog.V(2).Info("sim: SPIM raising spurious interrupt")
	s.pend()
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	if max > math.MaxUint32 {
		max = math.MaxUint32
	}
	return time.Duration(fastrand.Uint32n(uint32(max) + 1))
}

func roll(rate float64) bool {
	if rate <= 0 {
		return false
	}
	const scale = 1 << 20
	return fastrand.Uint32n(scale) < uint32(rate*scale)
}

type registers struct {
	spim *SPIM

	lock       sync.Mutex
	end        bool
	intEnabled bool
}

// ResetEnd implements spi.Registers.
func (r *registers) ResetEnd() {
	r.lock.Lock()
	r.end = false
	r.lock.Unlock()
}

// EnableEndInterrupt implements spi.Registers. Enabling while END is set
// raises the interrupt, as the hardware does.
func (r *registers) EnableEndInterrupt() {
	r.lock.Lock()
	r.intEnabled = true
	fire := r.end
	r.lock.Unlock()
	if fire {
		r.spim.pend()
	}
}

// DisableEndInterrupt implements spi.Registers.
func (r *registers) DisableEndInterrupt() {
	r.lock.Lock()
	r.intEnabled = false
	r.lock.Unlock()
}

func (r *registers) raiseEnd() {
	r.lock.Lock()
	r.end = true
	fire := r.intEnabled
	r.lock.Unlock()
	if fire {
		r.spim.pend()
	}
}

type transfer struct {
	spim   *SPIM
	buf    []byte
	done   atomic.Bool
	doneCh chan struct{}
}

func (t *transfer) complete() {
	if !t.spim.conf.Loopback {
		for i := range t.buf {
			t.buf[i] = ^t.buf[i]
		}
	}
	t.done.Store(true)
	close(t.doneCh)
	t.spim.regs.raiseEnd()
}

// IsDone implements spi.Transfer.
func (t *transfer) IsDone() bool {
	return t.done.Load()
}

// Wait implements spi.Transfer.
func (t *transfer) Wait() ([]byte, spi.Master) {
	<-t.doneCh
	return t.buf, t.spim
}
