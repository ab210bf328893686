package stream

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// MaxPacketSize bounds the length prefix accepted by ReadPacket.
const MaxPacketSize = 1 << 20

// Writer writes packets each prefixed by a 4-byte little-endian length.
type Writer struct {
	io.Writer
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w}
}

// WritePacket implements telemetry.PacketWriter.
func (p *Writer) WritePacket(pkt []byte) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(pkt)))
	if _, err := p.Write(hdr[:]); err != nil {
		return err
	}
	_, err := p.Write(pkt)
	return err
}

// Close closes the underlying writer if it is an io.Closer.
func (p *Writer) Close() error {
	if c, ok := p.Writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Reader reads packets written by Writer.
type Reader struct {
	io.Reader
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r}
}

// ReadPacket implements telemetry.PacketReader.
func (p *Reader) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, errors.Errorf("packet too large: %d", size)
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p, pkt); err != nil {
		return nil, errors.Wrap(err, "truncated packet")
	}
	return pkt, nil
}
