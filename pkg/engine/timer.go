package engine

// Timer counts the ticks spent in the current stage.
// It's reset whenever a stage is entered.
type Timer struct {
	count uint32
}

// Reset restarts the timer.
func (t *Timer) Reset() {
	t.count = 0
}

// Elapsed returns the counted ticks.
func (t *Timer) Elapsed() uint32 {
	return t.count
}

// Dwell counts one more tick and reports whether target is reached.
func (t *Timer) Dwell(target uint32) bool {
	t.count++
	return t.count >= target
}
