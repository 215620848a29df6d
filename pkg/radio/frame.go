package radio

import (
	"fmt"
	"time"

	"github.com/robotalks/tickprog/pkg/periph"
)

// Frame codes.
const (
	CodeConnect    byte = 0x01
	CodeAccept     byte = 0x02
	CodeReject     byte = 0x03
	CodeData       byte = 0x04
	CodeAck        byte = 0x05
	CodeDisconnect byte = 0x06
)

// MaxDataSize is the max size of the frame data.
const MaxDataSize = 0x7f

// Seq is the frame sequence number which pairs a reply with its request.
type Seq byte

// NewSeq creates a random sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Frame is the unit exchanged between two radios. The first data byte is
// always the channel.
type Frame struct {
	Seq  Seq
	Code byte
	Data []byte
}

// NewFrame creates a frame on a channel.
func NewFrame(seq Seq, code byte, channel int, data ...byte) *Frame {
	return &Frame{Seq: seq, Code: code, Data: append([]byte{byte(channel)}, data...)}
}

// Channel returns the channel of the frame.
func (f *Frame) Channel() int {
	if len(f.Data) == 0 {
		return 0
	}
	return int(f.Data[0])
}

// Payload returns the data after the channel.
func (f *Frame) Payload() []byte {
	if len(f.Data) < 1 {
		return nil
	}
	return f.Data[1:]
}

// Address parses the initiator address of a connect frame.
func (f *Frame) Address() (addr periph.Address, ok bool) {
	if p := f.Payload(); len(p) == periph.AddressSize {
		copy(addr[:], p)
		return addr, true
	}
	return addr, false
}

// Bytes returns encoded bytes for sending. Short data length is packed
// into the code byte.
func (f *Frame) Bytes() []byte {
	b := make([]byte, len(f.Data)+3)
	b[0], b[1] = byte(f.Seq), (f.Code & 0x8f)
	if l := byte(len(f.Data)); l >= 7 {
		b[1] |= 0x70
		b[2] = l
		copy(b[3:], f.Data)
	} else {
		b = b[:l+2]
		b[1] |= (l << 4) & 0x70
		copy(b[2:], f.Data)
	}
	return b
}

// ParseFrame decodes a received packet.
func ParseFrame(b []byte) (*Frame, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("frame too short: %d", len(b))
	}
	f := &Frame{Seq: Seq(b[0]), Code: b[1] & 0x8f}
	if !f.Seq.IsValid() {
		return nil, fmt.Errorf("invalid frame seq %d", b[0])
	}
	data := b[2:]
	l := int((b[1] >> 4) & 7)
	if l == 7 {
		if len(data) < 1 || data[0] > MaxDataSize {
			return nil, fmt.Errorf("invalid frame length")
		}
		l, data = int(data[0]), data[1:]
	}
	if len(data) != l {
		return nil, fmt.Errorf("frame length mismatch: %d/%d", len(data), l)
	}
	if l > 0 {
		f.Data = append([]byte(nil), data...)
	}
	return f, nil
}
