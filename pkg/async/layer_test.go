package async

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tickprog/pkg/periph"
)

type testDriver struct {
	cbs  []periph.Callback
	cmds []Kind
}

func (d *testDriver) add(k Kind, cb periph.Callback) {
	d.cmds = append(d.cmds, k)
	d.cbs = append(d.cbs, cb)
}

func (d *testDriver) I2CRead(device, register byte, flags byte, cb periph.Callback) {
	d.add(KindI2CRead, cb)
}

func (d *testDriver) I2CWrite(device, register byte, value uint16, flags byte, cb periph.Callback) {
	d.add(KindI2CWrite, cb)
}

func (d *testDriver) Connect(channel int, peer periph.Address, cb periph.Callback) {
	d.add(KindConnect, cb)
}

func (d *testDriver) Listen(channel int, peer periph.Address, cb periph.Callback) {
	d.add(KindListen, cb)
}

func (d *testDriver) StartReceive(channel int, cb periph.Callback) {
	d.add(KindStartReceive, cb)
}

func (d *testDriver) Send(channel int, msg []byte, cb periph.Callback) {
	d.add(KindSend, cb)
}

func (d *testDriver) last() periph.Callback {
	return d.cbs[len(d.cbs)-1]
}

type testObserver struct {
	issued, delivered int
	dropped           []error
}

func (o *testObserver) CommandIssued(Command, Token) { o.issued++ }
func (o *testObserver) ResultDelivered(Result) { o.delivered++ }
func (o *testObserver) ResultDropped(r Result, err error) {
	o.dropped = append(o.dropped, err)
}

func TestTokenNext(t *testing.T) {
	require.Equal(t, Token(1), Token(0).Next())
	require.Equal(t, Token(8), Token(7).Next())
	require.Equal(t, Token(1), Token(0xffffffff).Next())
	require.False(t, Token(0).IsValid())
}

func TestLayerOneInFlight(t *testing.T) {
	d := &testDriver{}
	l := NewLayer(d)
	token, err := l.Issue(I2CRead(0x4f, 0xaa, 0x88))
	require.NoError(t, err)
	require.True(t, token.IsValid())
	require.True(t, l.Busy())
	require.True(t, l.Slot().Waiting())

	_, err = l.Issue(Send(1, []byte{1, 2, 3}))
	require.Equal(t, ErrBusy, err)
	require.Len(t, d.cmds, 1)

	_, ok := l.Slot().Peek()
	require.False(t, ok)

	d.last()(periph.Notification{Status: periph.I2CSuccess, Value: 0x1900})
	require.False(t, l.Busy())
	r, ok := l.Slot().Peek()
	require.True(t, ok)
	require.Equal(t, token, r.Token)
	require.EqualValues(t, 0x1900, r.Value)
	require.True(t, r.OK())

	_, ok = l.Slot().Take()
	require.True(t, ok)
	_, ok = l.Slot().Take()
	require.False(t, ok)

	next, err := l.Issue(Send(1, []byte{1, 2, 3}))
	require.NoError(t, err)
	require.Equal(t, token.Next(), next)
}

func TestLayerDrops(t *testing.T) {
	d := &testDriver{}
	o := &testObserver{}
	l := NewLayer(d)
	l.Observer = o

	_, err := l.Issue(Connect(1, periph.Address{1}))
	require.NoError(t, err)
	first := d.last()

	t.Run("duplicate", func(t *testing.T) {
		first(periph.Notification{Status: periph.BtSuccess})
		first(periph.Notification{Status: periph.BtSuccess})
		r, ok := l.Slot().Take()
		require.True(t, ok)
		require.Equal(t, periph.BtSuccess, r.Status)
		require.Equal(t, []error{ErrStale}, o.dropped)
	})

	t.Run("abandoned", func(t *testing.T) {
		_, err := l.Issue(Send(1, nil))
		require.NoError(t, err)
		l.Slot().Abandon()
		d.last()(periph.Notification{Status: periph.BtSuccess})
		require.False(t, l.Busy())
		_, ok := l.Slot().Peek()
		require.False(t, ok)
		require.Equal(t, ErrAbandoned, o.dropped[len(o.dropped)-1])
	})

	t.Run("late completion of previous command", func(t *testing.T) {
		_, err := l.Issue(Send(1, nil))
		require.NoError(t, err)
		prev := d.cbs[len(d.cbs)-2]
		prev(periph.Notification{Status: periph.BtNotConnected})
		require.True(t, l.Busy())
		require.True(t, l.Slot().Waiting())
		d.last()(periph.Notification{Status: periph.BtSuccess})
		r, ok := l.Slot().Take()
		require.True(t, ok)
		require.True(t, r.OK())
	})

	require.EqualValues(t, 3, l.Stats().Dropped)
	require.EqualValues(t, 3, l.Stats().Issued)
	require.Equal(t, 3, o.issued)
}

func TestLayerEvents(t *testing.T) {
	d := &testDriver{}
	l := NewLayer(d)
	l.MaxEvents = 2
	_, err := l.Issue(Listen(1, periph.Address{2}))
	require.NoError(t, err)
	listen := d.last()
	listen(periph.Notification{Status: periph.BtSuccess})
	_, ok := l.Slot().Take()
	require.True(t, ok)

	// indications arrive regardless of the command in flight.
	_, err = l.Issue(StartReceive(1))
	require.NoError(t, err)
	listen(periph.Notification{Status: periph.BtConIndication})
	require.True(t, l.Busy())
	require.Equal(t, 1, l.Events())

	receive := d.last()
	receive(periph.Notification{Status: periph.BtSuccess})
	receive(periph.Notification{Status: periph.BtMsgIndication, Msg: []byte{1, 0, 0}})
	receive(periph.Notification{Status: periph.BtMsgIndication, Msg: []byte{1, 1, 0}})
	require.Equal(t, 2, l.Events())

	ev, ok := l.PeekEvent()
	require.True(t, ok)
	require.Equal(t, []byte{1, 0, 0}, ev.Payload)
	ev, ok = l.NextEvent()
	require.True(t, ok)
	require.Equal(t, ClassIndication, ev.Class())
	ev, ok = l.NextEvent()
	require.True(t, ok)
	require.Equal(t, []byte{1, 1, 0}, ev.Payload)
	_, ok = l.NextEvent()
	require.False(t, ok)
	require.EqualValues(t, 3, l.Stats().Indications)
	require.EqualValues(t, 1, l.Stats().Dropped)
}

func TestLayerSessionFailures(t *testing.T) {
	d := &testDriver{}
	o := &testObserver{}
	l := NewLayer(d)
	l.Observer = o

	_, err := l.Issue(Connect(1, periph.Address{3}))
	require.NoError(t, err)
	connect := d.last()
	connect(periph.Notification{Status: periph.BtSuccess})
	_, ok := l.Slot().Take()
	require.True(t, ok)

	_, err = l.Issue(StartReceive(1))
	require.NoError(t, err)
	receive := d.last()
	receive(periph.Notification{Status: periph.BtSuccess})
	_, ok = l.Slot().Take()
	require.True(t, ok)

	_, err = l.Issue(Send(1, []byte{1, 0, 0}))
	require.NoError(t, err)
	send := d.last()
	send(periph.Notification{Status: periph.BtSuccess})
	_, ok = l.Slot().Take()
	require.True(t, ok)

	t.Run("failure on receive callback is queued", func(t *testing.T) {
		receive(periph.Notification{Status: periph.BtConRelease})
		ev, ok := l.NextEvent()
		require.True(t, ok)
		require.Equal(t, KindStartReceive, ev.Kind)
		require.Equal(t, periph.BtConRelease, ev.Status)
		require.Equal(t, ClassFailure, ev.Class())
	})

	t.Run("failure on connect callback is queued", func(t *testing.T) {
		connect(periph.Notification{Status: periph.BtConInvalid})
		ev, ok := l.NextEvent()
		require.True(t, ok)
		require.Equal(t, KindConnect, ev.Kind)
	})

	t.Run("late send failure is dropped", func(t *testing.T) {
		send(periph.Notification{Status: periph.BtNotConnected})
		require.Zero(t, l.Events())
		require.Equal(t, []error{ErrStale}, o.dropped)
	})

	t.Run("duplicate success is dropped", func(t *testing.T) {
		receive(periph.Notification{Status: periph.BtSuccess})
		require.Zero(t, l.Events())
		require.Len(t, o.dropped, 2)
	})

	require.EqualValues(t, 2, l.Stats().Failures)
	require.EqualValues(t, 2, l.Stats().Dropped)
}

func TestLayerUnknownKind(t *testing.T) {
	l := NewLayer(&testDriver{})
	_, err := l.Issue(Command{Kind: Kind(42)})
	require.IsType(t, &UnknownKindError{}, err)
	require.False(t, l.Busy())
}

func TestResultClass(t *testing.T) {
	cases := []struct {
		kind   Kind
		status periph.Status
		class  Class
	}{
		{KindSend, periph.BtSuccess, ClassSuccess},
		{KindSend, periph.BtNotConnected, ClassFailure},
		{KindConnect, periph.BtDisconIndication, ClassIndication},
		{KindStartReceive, periph.BtMsgIndication, ClassIndication},
		{KindI2CRead, periph.I2CSuccess, ClassSuccess},
		{KindI2CWrite, periph.I2CWriteError, ClassFailure},
		// I2C statuses overlap the Bluetooth indication codes numerically.
		{KindI2CRead, periph.Status(17), ClassFailure},
	}
	for _, c := range cases {
		t.Run(c.kind.String(), func(t *testing.T) {
			require.Equal(t, c.class, Result{Kind: c.kind, Status: c.status}.Class())
		})
	}
}
