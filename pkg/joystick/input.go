package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/joystick/device"
)

// DefaultRetryInterval is the wait before opening the device again.
const DefaultRetryInterval = time.Second

// Presser accepts the digital state of a universal input.
type Presser interface {
	Press(idx int, pressed bool)
}

// Input maps joystick buttons onto universal inputs of a controller.
type Input struct {
	Target        Presser
	Poster        fx.Poster
	DeviceIndex   int
	Buttons       map[int]int
	Verbose       bool
	RetryInterval time.Duration
	Open          func(index int) (device.Device, error)
}

// NewInput creates an Input mapping button 0 to input I8.
func NewInput(target Presser) *Input {
	return &Input{
		Target:        target,
		DeviceIndex:   -1,
		Buttons:       map[int]int{0: 7},
		RetryInterval: DefaultRetryInterval,
		Open:          openDevice,
	}
}

func openDevice(index int) (device.Device, error) {
	if index >= 0 {
		return device.Open(index)
	}
	return device.DetectAndOpen(0)
}

// AddToLoop implements framework.LoopAdder.
func (in *Input) AddToLoop(loop *fx.Loop) {
	if in.Poster == nil {
		in.Poster = loop
	}
	loop.AddRunnable(in)
}

// Run implements framework.Runnable.
func (in *Input) Run(ctx context.Context) error {
	for {
		dev, err := in.Open(in.DeviceIndex)
		switch {
		case err == device.ErrNotSupported:
			glog.Warning("joystick: not supported")
			<-ctx.Done()
			return ctx.Err()
		case err != nil:
			glog.V(2).Infof("joystick: open %d: %v", in.DeviceIndex, err)
		case dev == nil:
			glog.V(2).Info("joystick: no device detected")
		default:
			glog.Infof("joystick %d %q opened", dev.Index(), dev.Name())
			err = fx.RunWithContextCloser(ctx, dev, func() error {
				return in.poll(dev)
			})
			in.releaseAll()
			if err == context.Canceled {
				return err
			}
			glog.Warningf("joystick %d: %v", dev.Index(), err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(in.RetryInterval):
		}
	}
}

func (in *Input) poll(dev device.Device) error {
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			return err
		}
		if in.Verbose {
			var prefix string
			if ev.IsInit() {
				prefix = "[INIT] "
			}
			switch {
			case ev.IsAxis():
				glog.Infof(prefix+"Axis %d: %d", ev.Index(), ev.Value)
			case ev.IsButton():
				glog.Infof(prefix+"Button %d: %v", ev.Index(), ev.Pressed())
			}
		}
		in.handle(ev)
	}
}

func (in *Input) handle(ev device.Event) {
	if !ev.IsButton() {
		return
	}
	idx, ok := in.Buttons[ev.Index()]
	if !ok {
		return
	}
	pressed := ev.Pressed()
	in.Poster.Post(func() { in.Target.Press(idx, pressed) })
}

func (in *Input) releaseAll() {
	for _, idx := range in.Buttons {
		in.Poster.Post(func() { in.Target.Press(idx, false) })
	}
}
