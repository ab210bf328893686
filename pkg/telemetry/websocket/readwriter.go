package websocket

import (
	"golang.org/x/net/websocket"

	"github.com/pkg/errors"
)

// ReadWriter sends each packet as one binary websocket message.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a ws:// or wss:// URL.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return New(conn), nil
}

// ReadPacket implements telemetry.PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements telemetry.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Handler accepts websocket connections and passes each to fn.
func Handler(fn func(*ReadWriter)) websocket.Handler {
	return func(conn *websocket.Conn) {
		fn(New(conn))
	}
}
