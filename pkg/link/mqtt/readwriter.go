package mqtt

import (
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/periph"
)

// ReadWriter implements link.PacketReadWriter between two addresses:
// packets for a node are published to <address>/rx.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	sub      *Subscription
	lock     sync.Mutex
	closed   bool
}

// RxTopic returns the topic a node receives packets from.
func RxTopic(addr periph.Address) string {
	return addr.String() + "/rx"
}

// NewReadWriter creates the ReadWriter from local to peer.
func NewReadWriter(q *Queue, local, peer periph.Address) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		SubTopic: RxTopic(local),
		PubTopic: RxTopic(peer),
		packetCh: make(chan []byte, 16),
	}
}

// Start subscribes the receiving topic.
func (p *ReadWriter) Start() error {
	p.sub = p.Queue.Sub(p.SubTopic, p.handleMsg)
	p.sub.Token.Wait()
	return p.sub.Token.Error()
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var err error
	if p.sub != nil {
		err = p.sub.Close()
	}
	close(p.packetCh)
	return err
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return
	}
	select {
	case p.packetCh <- payload:
	default:
		glog.Warningf("mqtt: drop packet on %s", p.SubTopic)
	}
}
