package device

import (
	"encoding/binary"
	"io"
)

// DecodeEvent decodes an event as reported by the kernel.
func DecodeEvent(buf []byte) (ev Event, err error) {
	if len(buf) < EventSize {
		return ev, io.ErrUnexpectedEOF
	}
	ev.Time = binary.LittleEndian.Uint32(buf)
	ev.Value = int16(binary.LittleEndian.Uint16(buf[4:]))
	ev.Type = EventType(buf[6])
	ev.Number = buf[7]
	return ev, nil
}

// ReadEvent reads one event from r.
func ReadEvent(r io.Reader) (Event, error) {
	var buf [EventSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Event{}, err
	}
	return DecodeEvent(buf[:])
}
