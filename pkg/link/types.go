// Package link provides the packet transports connecting two controllers.
package link

import (
	"errors"
	"io"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// PacketConn is a PacketReadWriter which must be closed.
type PacketConn interface {
	PacketReadWriter
	io.Closer
}

var (
	// ErrClosed indicates the link is closed.
	ErrClosed = errors.New("link closed")
	// ErrPacketSize indicates a packet exceeds MaxPacketSize.
	ErrPacketSize = errors.New("packet too large")
)

// MaxPacketSize is the largest packet accepted from a stream.
const MaxPacketSize = 1 << 16
