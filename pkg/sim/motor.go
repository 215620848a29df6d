package sim

import (
	"math"

	"github.com/robotalks/tickprog/pkg/periph"
)

// Motor simulates an encoder motor. The speed follows the duty within the
// acceleration limit and the encoder emits pulses proportional to the speed.
type Motor struct {
	// MaxSpeed is the pulse rate per tick at full duty.
	MaxSpeed float64
	// Accel limits the speed change per tick, 0 means immediate.
	Accel float64

	speed  float64
	pulses float64
}

// Speed returns the current speed in pulses per tick, negative when
// running backwards.
func (m *Motor) Speed() float64 {
	return m.speed
}

// Target calculates the speed the motor settles at with the duty of both
// outputs.
func (m *Motor) Target(duty1, duty2 int16) float64 {
	return m.MaxSpeed * float64(duty1-duty2) / float64(periph.DutyMax)
}

// Step advances the motor by one tick and returns the pulses emitted.
func (m *Motor) Step(duty1, duty2 int16) int {
	target := m.Target(duty1, duty2)
	if diff := target - m.speed; m.Accel <= 0 || math.Abs(diff) <= m.Accel {
		m.speed = target
	} else if diff > 0 {
		m.speed += m.Accel
	} else {
		m.speed -= m.Accel
	}
	m.pulses += math.Abs(m.speed)
	n := math.Floor(m.pulses)
	m.pulses -= n
	return int(n)
}
