package link

import (
	"io"
	"sync"
)

// Pipe is one end of an in-memory link.
type Pipe struct {
	rx   <-chan []byte
	tx   chan<- []byte
	done chan struct{}
	once *sync.Once
}

// NewPipe creates both ends of an in-memory link. Each direction buffers
// up to buffer packets.
func NewPipe(buffer int) (*Pipe, *Pipe) {
	a, b := make(chan []byte, buffer), make(chan []byte, buffer)
	done, once := make(chan struct{}), &sync.Once{}
	return &Pipe{rx: a, tx: b, done: done, once: once},
		&Pipe{rx: b, tx: a, done: done, once: once}
}

// ReadPacket implements PacketReader.
func (p *Pipe) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.rx:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *Pipe) WritePacket(pkt []byte) error {
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.tx <- cp:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

// Close closes both ends.
func (p *Pipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

var (
	namedPipes = make(map[string]*Pipe)
	namedLock  sync.Mutex
)

// NamedPipe returns one end of the in-memory link named name: the first
// caller gets one end, the second caller the other.
func NamedPipe(name string) *Pipe {
	namedLock.Lock()
	defer namedLock.Unlock()
	if p, ok := namedPipes[name]; ok {
		delete(namedPipes, name)
		return p
	}
	a, b := NewPipe(16)
	namedPipes[name] = b
	return a
}
