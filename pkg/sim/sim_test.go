package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tickprog/pkg/periph"
)

type testContext struct {
	posted []func()
}

func (c *testContext) Context() context.Context { return context.Background() }
func (c *testContext) Tick() uint64 { return 0 }
func (c *testContext) Post(fn func()) { c.posted = append(c.posted, fn) }

func (c *testContext) run() {
	posted := c.posted
	c.posted = nil
	for _, fn := range posted {
		fn()
	}
}

func TestMotorStep(t *testing.T) {
	testCases := []struct {
		name   string
		motor  Motor
		duty1  int16
		duty2  int16
		ticks  int
		speed  float64
		pulses int
	}{
		{
			name:   "no accel",
			motor:  Motor{MaxSpeed: 1},
			duty1:  periph.DutyMax,
			ticks:  10,
			speed:  1,
			pulses: 10,
		},
		{
			name:   "half duty",
			motor:  Motor{MaxSpeed: 1},
			duty1:  periph.DutyMax / 2,
			ticks:  10,
			speed:  0.5,
			pulses: 5,
		},
		{
			name:   "reverse",
			motor:  Motor{MaxSpeed: 1},
			duty2:  periph.DutyMax,
			ticks:  4,
			speed:  -1,
			pulses: 4,
		},
		{
			name:   "before accel ends",
			motor:  Motor{MaxSpeed: 1, Accel: 0.25},
			duty1:  periph.DutyMax,
			ticks:  2,
			speed:  0.5,
			pulses: 0,
		},
		{
			name:   "after accel ends",
			motor:  Motor{MaxSpeed: 1, Accel: 0.25},
			duty1:  periph.DutyMax,
			ticks:  6,
			speed:  1,
			pulses: 4,
		},
		{
			name:  "stopped",
			motor: Motor{MaxSpeed: 1},
			ticks: 10,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.motor
			var pulses int
			for n := 0; n < tc.ticks; n++ {
				pulses += m.Step(tc.duty1, tc.duty2)
			}
			require.InDelta(t, tc.speed, m.Speed(), 1e-9)
			require.Equal(t, tc.pulses, pulses)
		})
	}
}

func TestDisplayRefresh(t *testing.T) {
	var changes []string
	d := &Display{RefreshTicks: 2, OnChange: func(msg string) { changes = append(changes, msg) }}
	require.False(t, d.Refreshing())
	d.ShowMessage("hello")
	require.True(t, d.Refreshing())
	require.Equal(t, "hello", d.Message())
	d.Step()
	require.True(t, d.Refreshing())
	d.Step()
	require.False(t, d.Refreshing())
	d.ClearMessage()
	require.Empty(t, d.Message())
	require.Equal(t, []string{"hello", ""}, changes)
	require.Equal(t, []string{"hello"}, d.History())
}

func TestDisplayHistory(t *testing.T) {
	d := &Display{}
	for n := 0; n < DefaultHistory+2; n++ {
		d.ShowMessage(string(rune('a' + n%26)))
	}
	history := d.History()
	require.Len(t, history, DefaultHistory)
	require.Equal(t, "c", history[0])
}

func TestBus(t *testing.T) {
	var ctx testContext
	bus := NewBus(2).Attach(DS1631Address, NewDS1631(-0.5)).Attach(TPA81Address, NewTPA81(20))
	var results []periph.Notification
	record := func(n periph.Notification) { results = append(results, n) }

	bus.I2CWrite(DS1631Address, 0, uint16(DS1631StartConvert), 0, record)
	bus.Control(&ctx)
	ctx.run()
	require.Empty(t, results)
	bus.Control(&ctx)
	ctx.run()
	require.Len(t, results, 1)
	require.Equal(t, periph.I2CSuccess, results[0].Status)

	testCases := []struct {
		name   string
		device byte
		reg    byte
		status periph.Status
		value  uint16
	}{
		{name: "thermometer", device: DS1631Address, status: periph.I2CSuccess, value: 0xff80},
		{name: "thermopile version", device: TPA81Address, status: periph.I2CSuccess, value: TPA81Version},
		{name: "thermopile ambient", device: TPA81Address, reg: 1, status: periph.I2CSuccess, value: 20},
		{name: "thermopile pixel", device: TPA81Address, reg: 9, status: periph.I2CSuccess, value: 20},
		{name: "invalid register", device: TPA81Address, reg: 10, status: periph.I2CReadError},
		{name: "no device", device: 0x10, status: periph.I2CReadError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results = nil
			bus.I2CRead(tc.device, tc.reg, 0, record)
			bus.Control(&ctx)
			bus.Control(&ctx)
			ctx.run()
			require.Len(t, results, 1)
			require.Equal(t, tc.status, results[0].Status)
			require.Equal(t, tc.value, results[0].Value)
		})
	}

	t.Run("write to missing device", func(t *testing.T) {
		results = nil
		bus.I2CWrite(0x10, 0, 0, 0, record)
		bus.Control(&ctx)
		bus.Control(&ctx)
		ctx.run()
		require.Len(t, results, 1)
		require.Equal(t, periph.I2CWriteError, results[0].Status)
	})
}

func TestDS1631Registers(t *testing.T) {
	d := NewDS1631(21.5)
	v, ok := d.ReadRegister(0, 0)
	require.True(t, ok)
	require.Zero(t, v)
	require.True(t, d.WriteRegister(0, uint16(DS1631StartConvert), 0))
	require.True(t, d.Converting())
	v, _ = d.ReadRegister(0, 0)
	require.Equal(t, uint16(0x1580), v)
	require.True(t, d.WriteRegister(DS1631AccessConfig, 0x0c, 0))
	require.True(t, d.WriteRegister(0, uint16(DS1631AccessConfig), 0))
	v, _ = d.ReadRegister(0, 0)
	require.Equal(t, uint16(0x0c), v)
	require.False(t, d.WriteRegister(0, 0x33, 0))
	require.True(t, d.WriteRegister(0, uint16(DS1631StopConvert), 0))
	require.False(t, d.Converting())
}

func TestEncodeTemperature(t *testing.T) {
	testCases := []struct {
		temp   float64
		expect uint16
	}{
		{temp: 0, expect: 0},
		{temp: 25, expect: 0x1900},
		{temp: 21.5, expect: 0x1580},
		{temp: -0.5, expect: 0xff80},
		{temp: -25, expect: 0xe700},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, EncodeTemperature(tc.temp), "%v", tc.temp)
	}
}

func TestControllerCounters(t *testing.T) {
	conf := NewConfig()
	conf.MotorSpeed, conf.MotorAccel = 1, 0
	c := NewController(conf)
	require.True(t, c.CounterResetDone(0))

	c.SetDuty(0, periph.DutyMax)
	for n := 0; n < 10; n++ {
		c.Step()
	}
	require.Equal(t, int16(10), c.Counter(0))
	require.Zero(t, c.Counter(1))

	c.ResetCounter(0)
	require.False(t, c.CounterResetDone(0))
	for n := 0; n < DefaultResetTicks-1; n++ {
		c.Step()
		require.False(t, c.CounterResetDone(0))
	}
	c.Step()
	require.True(t, c.CounterResetDone(0))
	require.Zero(t, c.Counter(0))
	c.Step()
	require.Equal(t, int16(1), c.Counter(0))

	t.Run("reverse counts up", func(t *testing.T) {
		c.SetDuty(0, 0)
		c.SetDuty(3, periph.DutyMax)
		c.Step()
		c.Step()
		require.Equal(t, int16(2), c.Counter(1))
	})

	t.Run("saturates", func(t *testing.T) {
		c.SetCounter(1, 0x7fff)
		c.Step()
		require.Equal(t, int16(0x7fff), c.Counter(1))
	})

	t.Run("snapshot", func(t *testing.T) {
		c.Press(7, true)
		c.ShowMessage("running")
		s := c.Snapshot()
		require.Equal(t, InputHigh, s.Inputs[7])
		require.Equal(t, periph.DutyMax, s.Duty[3])
		require.Equal(t, -1.0, s.Speed[1])
		require.Equal(t, "running", s.Message)
	})
}

func TestOffline(t *testing.T) {
	var ctx testContext
	o := &Offline{Poster: &ctx}
	var statuses []periph.Status
	record := func(n periph.Notification) { statuses = append(statuses, n.Status) }
	o.Connect(1, periph.Address{}, record)
	o.Listen(1, periph.Address{}, record)
	o.StartReceive(1, record)
	o.Send(1, []byte{1}, record)
	require.Empty(t, statuses)
	ctx.run()
	require.Equal(t, []periph.Status{
		periph.BtSwitchedOff,
		periph.BtSwitchedOff,
		periph.BtSwitchedOff,
		periph.BtSwitchedOff,
	}, statuses)
}
