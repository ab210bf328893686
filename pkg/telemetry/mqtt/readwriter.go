package mqtt

import (
	"context"
	"io"
)

// Writer publishes packets to a single topic.
type Writer struct {
	Client *Client
	Topic  string
}

// NewWriter creates a Writer publishing to the events topic of board.
func NewWriter(c *Client, board string) *Writer {
	return &Writer{Client: c, Topic: EventsTopic(board)}
}

// WritePacket implements telemetry.PacketWriter.
func (w *Writer) WritePacket(pkt []byte) error {
	token := w.Client.Pub(w.Topic, pkt)
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (w *Writer) Close() error {
	return w.Client.Close()
}

// Reader receives packets from a topic pattern.
type Reader struct {
	packetCh chan []byte
	done     chan struct{}
}

// NewReader subscribes pattern, "+/events" receives from all boards.
func NewReader(ctx context.Context, c *Client, pattern string) (*Reader, error) {
	r := &Reader{packetCh: make(chan []byte, 16), done: make(chan struct{})}
	token := c.Sub(pattern, r.handleMsg)
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		close(r.done)
	}()
	return r, nil
}

// ReadPacket implements telemetry.PacketReader.
func (r *Reader) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-r.packetCh:
		return pkt, nil
	case <-r.done:
		return nil, io.EOF
	}
}

func (r *Reader) handleMsg(_ string, payload []byte) {
	select {
	case r.packetCh <- payload:
	case <-r.done:
	}
}
