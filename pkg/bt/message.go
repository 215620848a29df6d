package bt

import "encoding/binary"

// MessageSize is the size of a Message on the wire.
const MessageSize = 3

// Message is exchanged between Sender and Receiver: byte 0 is the 1-based
// motor (request) or counter (reply) number, bytes 1-2 the value.
// Both ends are the same hardware, the value is little-endian.
type Message struct {
	ID    byte
	Value int16
}

// Bytes encodes the message.
func (m Message) Bytes() []byte {
	b := make([]byte, MessageSize)
	b[0] = m.ID
	binary.LittleEndian.PutUint16(b[1:], uint16(m.Value))
	return b
}

// DecodeMessage decodes a received payload.
func DecodeMessage(b []byte) (m Message, err error) {
	if len(b) != MessageSize {
		return m, ErrMessageSize
	}
	m.ID = b[0]
	m.Value = int16(binary.LittleEndian.Uint16(b[1:]))
	return m, nil
}

// ValidID checks the id addresses one of n entities.
func (m Message) ValidID(n int) error {
	if m.ID < 1 || int(m.ID) > n {
		return &InvalidIDError{ID: m.ID}
	}
	return nil
}
