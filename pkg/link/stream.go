package link

import (
	"encoding/binary"
	"io"
)

// Stream implements PacketReadWriter over a byte stream.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type Stream struct {
	io.ReadWriter
}

// NewStream creates a Stream with io.ReadWriter.
func NewStream(s io.ReadWriter) *Stream {
	return &Stream{s}
}

// ReadPacket implements PacketReader.
func (p *Stream) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrPacketSize
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.ReadWriter, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *Stream) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return ErrPacketSize
	}
	b := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(b, uint32(len(pkt)))
	copy(b[4:], pkt)
	_, err := p.Write(b)
	return err
}

// Close implements io.Closer.
func (p *Stream) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
