package joystick

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tickprog/pkg/joystick/device"
)

type inlinePoster struct{}

func (inlinePoster) Post(fn func()) { fn() }

type press struct {
	idx     int
	pressed bool
}

type presser struct {
	lock    sync.Mutex
	presses []press
	done    chan struct{}
	expect  int
}

func (p *presser) Press(idx int, pressed bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.presses = append(p.presses, press{idx: idx, pressed: pressed})
	if len(p.presses) == p.expect {
		close(p.done)
	}
}

type fakeDevice struct {
	events []device.Event
	closed bool
}

func (d *fakeDevice) Index() int { return 0 }
func (d *fakeDevice) Name() string { return "fake" }
func (d *fakeDevice) AxisCount() int { return 2 }
func (d *fakeDevice) ButtonCount() int { return 4 }

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDevice) ReadEvent() (device.Event, error) {
	if len(d.events) == 0 {
		return device.Event{}, io.EOF
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, nil
}

func TestDecodeEvent(t *testing.T) {
	ev, err := device.DecodeEvent([]byte{1, 0, 0, 0, 0xff, 0x7f, 0x82, 3})
	require.NoError(t, err)
	require.Equal(t, uint32(1), ev.Time)
	require.Equal(t, int16(0x7fff), ev.Value)
	require.True(t, ev.IsInit())
	require.True(t, ev.IsAxis())
	require.False(t, ev.IsButton())
	require.Equal(t, 3, ev.Index())

	_, err = device.DecodeEvent([]byte{1, 2})
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestInputHandle(t *testing.T) {
	p := &presser{done: make(chan struct{}), expect: -1}
	in := NewInput(p)
	in.Poster = inlinePoster{}
	in.Buttons = map[int]int{2: 7}

	testCases := []struct {
		name    string
		ev      device.Event
		presses []press
	}{
		{name: "mapped press", ev: device.Event{Type: device.EventButton, Number: 2, Value: 1}, presses: []press{{idx: 7, pressed: true}}},
		{name: "init state", ev: device.Event{Type: device.EventButton | device.EventInit, Number: 2}, presses: []press{{idx: 7}}},
		{name: "unmapped button", ev: device.Event{Type: device.EventButton, Number: 1, Value: 1}},
		{name: "axis", ev: device.Event{Type: device.EventAxis, Number: 2, Value: 100}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p.presses = nil
			in.handle(tc.ev)
			require.Equal(t, tc.presses, p.presses)
		})
	}
}

func TestInputRun(t *testing.T) {
	p := &presser{done: make(chan struct{}), expect: 3}
	dev := &fakeDevice{events: []device.Event{
		{Type: device.EventButton, Number: 0, Value: 1},
		{Type: device.EventButton, Number: 0, Value: 0},
	}}
	var opened int
	in := NewInput(p)
	in.Poster = inlinePoster{}
	in.RetryInterval = time.Hour
	in.Open = func(index int) (device.Device, error) {
		if opened++; opened > 1 {
			return nil, errors.New("gone")
		}
		return dev, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- in.Run(ctx) }()
	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.True(t, dev.closed)
	require.Equal(t, []press{{idx: 7, pressed: true}, {idx: 7}, {idx: 7}}, p.presses)
}
