package telemetry

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// Discard is a PacketWriter dropping everything.
var Discard PacketWriter = discard{}

type discard struct{}

func (discard) WritePacket([]byte) error { return nil }

// Publisher stamps events and writes them out. It is safe for concurrent
// use.
type Publisher struct {
	Board  string
	Writer PacketWriter
	Clock  clock.Clock

	seq       atomic.Uint32
	writeLock sync.Mutex
}

// NewPublisher creates a Publisher.
func NewPublisher(board string, w PacketWriter) *Publisher {
	if w == nil {
		w = Discard
	}
	return &Publisher{Board: board, Writer: w, Clock: clock.New()}
}

// Publish encodes and writes the event.
func (p *Publisher) Publish(ev Event) error {
	env, err := Wrap(ev)
	if err != nil {
		return err
	}
	env.Board = p.Board
	env.Sequence = p.seq.Add(1)
	env.TimeUs = p.Clock.Now().UnixMicro()
	pkt, err := env.Encode()
	if err != nil {
		return err
	}
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	return p.Writer.WritePacket(pkt)
}

// Emit publishes and only logs failures, for use where an event must not
// disturb the caller.
func (p *Publisher) Emit(ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ev); err != nil {
		glog.Warningf("telemetry: publish %T: %v", ev, err)
	}
}

// Close closes the writer if it is an io.Closer.
func (p *Publisher) Close() error {
	if closer, ok := p.Writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
