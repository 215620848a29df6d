package radio

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/link"
	"github.com/robotalks/tickprog/pkg/periph"
)

const (
	// NumChannels is the number of channels, numbered from 1.
	NumChannels = 8
	// MaxMessageSize is the largest message which can be sent.
	MaxMessageSize = MaxDataSize - 1
	// DefaultTimeout limits the wait for a reply from the peer.
	DefaultTimeout = 500 * time.Millisecond
)

type chanState int

const (
	chanIdle chanState = iota
	chanListening
	chanConnecting
	chanConnected
)

type channel struct {
	state   chanState
	peer    periph.Address
	seq     Seq
	session periph.Callback
	receive periph.Callback
	timer   *time.Timer
}

type pendingSend struct {
	channel int
	cb      periph.Callback
	timer   *time.Timer
}

// Stats counts the frames through a Radio.
type Stats struct {
	Sent     uint64
	Received uint64
	Invalid  uint64
}

// Radio implements periph.Bluetooth over a link.
type Radio struct {
	Local   periph.Address
	Link    link.PacketConn
	Poster  fx.Poster
	Timeout time.Duration

	lock     sync.Mutex
	seq      Seq
	channels [NumChannels + 1]channel
	sends    map[Seq]*pendingSend
	off      bool
	stats    Stats
}

// New creates a Radio.
func New(local periph.Address, conn link.PacketConn, poster fx.Poster) *Radio {
	return &Radio{
		Local:   local,
		Link:    conn,
		Poster:  poster,
		Timeout: DefaultTimeout,
		seq:     NewSeq(),
		sends:   make(map[Seq]*pendingSend),
	}
}

// AddToLoop implements framework.LoopAdder.
func (r *Radio) AddToLoop(loop *fx.Loop) {
	if r.Poster == nil {
		r.Poster = loop
	}
	loop.AddRunnable(r)
}

// Stats returns the frame counters.
func (r *Radio) Stats() Stats {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.stats
}

func validChannel(ch int) bool {
	return ch > 0 && ch <= NumChannels
}

func (r *Radio) post(cb periph.Callback, n periph.Notification) {
	if cb != nil {
		r.Poster.Post(func() { cb(n) })
	}
}

func (r *Radio) status(cb periph.Callback, status periph.Status) {
	r.post(cb, periph.Notification{Status: status})
}

func (r *Radio) nextSeq() Seq {
	r.seq = r.seq.Next()
	return r.seq
}

func (r *Radio) write(f *Frame) error {
	r.lock.Lock()
	r.stats.Sent++
	r.lock.Unlock()
	glog.V(2).Infof("radio %s: TX seq=%d code=%d len=%d", r.Local, f.Seq, f.Code, len(f.Data))
	return r.Link.WritePacket(f.Bytes())
}

func (r *Radio) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

// Connect implements periph.Bluetooth.
func (r *Radio) Connect(ch int, peer periph.Address, cb periph.Callback) {
	if !validChannel(ch) {
		r.status(cb, periph.BtWrongChannel)
		return
	}
	r.lock.Lock()
	c := &r.channels[ch]
	status := periph.BtSuccess
	switch {
	case r.off:
		status = periph.BtSwitchedOff
	case c.state == chanConnected:
		status = periph.BtConExist
	case c.state == chanConnecting:
		status = periph.BtConSetup
	case c.state == chanListening:
		status = periph.BtListenActive
	}
	if status != periph.BtSuccess {
		r.lock.Unlock()
		r.status(cb, status)
		return
	}
	seq := r.nextSeq()
	*c = channel{state: chanConnecting, peer: peer, seq: seq, session: cb}
	c.timer = time.AfterFunc(r.timeout(), func() { r.finishConnect(ch, seq, periph.BtConTimeout) })
	r.lock.Unlock()

	if err := r.write(NewFrame(seq, CodeConnect, ch, r.Local[:]...)); err != nil {
		glog.Warningf("radio %s: connect: %v", r.Local, err)
		r.finishConnect(ch, seq, periph.BtConTimeout)
	}
}

func (r *Radio) finishConnect(ch int, seq Seq, status periph.Status) {
	r.lock.Lock()
	defer r.lock.Unlock()
	c := &r.channels[ch]
	if c.state != chanConnecting || c.seq != seq {
		return
	}
	c.timer.Stop()
	cb := c.session
	if status == periph.BtSuccess {
		c.state = chanConnected
		glog.Infof("radio %s: connected to %s on channel %d", r.Local, c.peer, ch)
	} else {
		*c = channel{}
	}
	r.status(cb, status)
}

// Listen implements periph.Bluetooth.
func (r *Radio) Listen(ch int, peer periph.Address, cb periph.Callback) {
	if !validChannel(ch) {
		r.status(cb, periph.BtWrongChannel)
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	c := &r.channels[ch]
	switch {
	case r.off:
		r.status(cb, periph.BtSwitchedOff)
	case c.state == chanConnected:
		r.status(cb, periph.BtConExist)
	case c.state == chanConnecting:
		r.status(cb, periph.BtConSetup)
	case c.state == chanListening:
		r.status(cb, periph.BtListenActive)
	default:
		*c = channel{state: chanListening, peer: peer, session: cb}
		r.status(cb, periph.BtSuccess)
	}
}

// StartReceive implements periph.Bluetooth.
func (r *Radio) StartReceive(ch int, cb periph.Callback) {
	if !validChannel(ch) {
		r.status(cb, periph.BtWrongChannel)
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	c := &r.channels[ch]
	switch {
	case c.state != chanConnected:
		r.status(cb, periph.BtNotConnected)
	case c.receive != nil:
		r.status(cb, periph.BtReceiveActive)
	default:
		c.receive = cb
		r.status(cb, periph.BtSuccess)
	}
}

// Send implements periph.Bluetooth.
func (r *Radio) Send(ch int, msg []byte, cb periph.Callback) {
	if !validChannel(ch) {
		r.status(cb, periph.BtWrongChannel)
		return
	}
	if len(msg) == 0 || len(msg) > MaxMessageSize {
		r.status(cb, periph.BtMsgSize)
		return
	}
	r.lock.Lock()
	if r.channels[ch].state != chanConnected {
		r.lock.Unlock()
		r.status(cb, periph.BtNotConnected)
		return
	}
	seq := r.nextSeq()
	s := &pendingSend{channel: ch, cb: cb}
	s.timer = time.AfterFunc(r.timeout(), func() { r.finishSend(seq, periph.BtConTimeout) })
	r.sends[seq] = s
	r.lock.Unlock()

	if err := r.write(NewFrame(seq, CodeData, ch, msg...)); err != nil {
		glog.Warningf("radio %s: send: %v", r.Local, err)
		r.finishSend(seq, periph.BtNotConnected)
	}
}

func (r *Radio) finishSend(seq Seq, status periph.Status) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	s, ok := r.sends[seq]
	if !ok {
		return false
	}
	delete(r.sends, seq)
	s.timer.Stop()
	r.status(s.cb, status)
	return true
}

// Disconnect releases a connected channel and notifies the peer.
func (r *Radio) Disconnect(ch int) error {
	if !validChannel(ch) {
		return &periph.StatusError{Status: periph.BtWrongChannel}
	}
	r.lock.Lock()
	c := &r.channels[ch]
	if c.state != chanConnected {
		r.lock.Unlock()
		return &periph.StatusError{Status: periph.BtNotConnected}
	}
	*c = channel{}
	r.failSends(ch)
	r.lock.Unlock()
	return r.write(NewFrame(r.lockedSeq(), CodeDisconnect, ch))
}

func (r *Radio) lockedSeq() Seq {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.nextSeq()
}

// failSends must be called with lock held.
func (r *Radio) failSends(ch int) {
	for seq, s := range r.sends {
		if ch == 0 || s.channel == ch {
			delete(r.sends, seq)
			s.timer.Stop()
			r.status(s.cb, periph.BtNotConnected)
		}
	}
}

// Run implements framework.Runnable. It receives frames until the link
// is closed. All sessions are then reported as disconnected.
func (r *Radio) Run(ctx context.Context) error {
	err := fx.RunWithContextCloser(ctx, r.Link, func() error {
		for {
			pkt, err := r.Link.ReadPacket()
			if err != nil {
				return err
			}
			f, err := ParseFrame(pkt)
			if err != nil {
				glog.Warningf("radio %s: %v", r.Local, err)
				r.lock.Lock()
				r.stats.Invalid++
				r.lock.Unlock()
				continue
			}
			r.handle(f)
		}
	})
	r.switchOff()
	return err
}

func (r *Radio) switchOff() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.off = true
	for ch := 1; ch <= NumChannels; ch++ {
		c := &r.channels[ch]
		switch c.state {
		case chanConnected:
			r.status(c.session, periph.BtDisconIndication)
		case chanConnecting:
			c.timer.Stop()
			r.status(c.session, periph.BtConTimeout)
		}
		*c = channel{}
	}
	r.failSends(0)
	glog.Infof("radio %s: switched off", r.Local)
}

func (r *Radio) handle(f *Frame) {
	glog.V(2).Infof("radio %s: RX seq=%d code=%d len=%d", r.Local, f.Seq, f.Code, len(f.Data))
	r.lock.Lock()
	r.stats.Received++
	r.lock.Unlock()
	ch := f.Channel()
	if !validChannel(ch) {
		glog.Warningf("radio %s: frame on invalid channel %d", r.Local, ch)
		return
	}
	var reply *Frame
	switch f.Code {
	case CodeConnect:
		reply = r.handleConnect(ch, f)
	case CodeAccept:
		r.finishConnect(ch, f.Seq, periph.BtSuccess)
	case CodeReject:
		status := periph.BtConInvalid
		if p := f.Payload(); len(p) > 0 {
			status = periph.Status(p[0])
		}
		if !r.finishSend(f.Seq, status) {
			r.finishConnect(ch, f.Seq, status)
		}
	case CodeData:
		reply = r.handleData(ch, f)
	case CodeAck:
		r.finishSend(f.Seq, periph.BtSuccess)
	case CodeDisconnect:
		r.handleDisconnect(ch)
	default:
		glog.Warningf("radio %s: unknown frame code %d", r.Local, f.Code)
	}
	if reply != nil {
		if err := r.write(reply); err != nil {
			glog.Warningf("radio %s: reply: %v", r.Local, err)
		}
	}
}

func (r *Radio) handleConnect(ch int, f *Frame) *Frame {
	addr, ok := f.Address()
	if !ok {
		return NewFrame(f.Seq, CodeReject, ch, byte(periph.BtConInvalid))
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	c := &r.channels[ch]
	switch c.state {
	case chanListening:
		if addr != c.peer {
			return NewFrame(f.Seq, CodeReject, ch, byte(periph.BtWrongAddress))
		}
		c.state = chanConnected
		glog.Infof("radio %s: accepted %s on channel %d", r.Local, addr, ch)
		r.status(c.session, periph.BtConIndication)
		return NewFrame(f.Seq, CodeAccept, ch)
	case chanConnected, chanConnecting:
		return NewFrame(f.Seq, CodeReject, ch, byte(periph.BtAllChanBusy))
	}
	// not listening: the peer times out.
	glog.V(2).Infof("radio %s: ignore connect from %s on channel %d", r.Local, addr, ch)
	return nil
}

func (r *Radio) handleData(ch int, f *Frame) *Frame {
	r.lock.Lock()
	defer r.lock.Unlock()
	c := &r.channels[ch]
	if c.state != chanConnected {
		return NewFrame(f.Seq, CodeReject, ch, byte(periph.BtNotConnected))
	}
	if c.receive != nil {
		r.post(c.receive, periph.Notification{Status: periph.BtMsgIndication, Msg: f.Payload()})
	} else {
		glog.V(2).Infof("radio %s: drop message on channel %d, not receiving", r.Local, ch)
	}
	return NewFrame(f.Seq, CodeAck, ch)
}

func (r *Radio) handleDisconnect(ch int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	c := &r.channels[ch]
	if c.state != chanConnected {
		return
	}
	cb := c.session
	*c = channel{}
	r.failSends(ch)
	glog.Infof("radio %s: disconnected by peer on channel %d", r.Local, ch)
	r.status(cb, periph.BtDisconIndication)
}
