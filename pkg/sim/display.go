package sim

import "sync"

// DefaultHistory is the number of messages kept by Display.
const DefaultHistory = 32

// Display simulates the controller display. Each update starts a refresh
// window during which the display reports being refreshed.
type Display struct {
	RefreshTicks int
	OnChange     func(msg string)

	lock    sync.RWMutex
	message string
	refresh int
	history []string
}

// ShowMessage implements periph.Display.
func (d *Display) ShowMessage(msg string) {
	d.update(msg)
}

// ClearMessage implements periph.Display.
func (d *Display) ClearMessage() {
	d.update("")
}

func (d *Display) update(msg string) {
	d.lock.Lock()
	d.message, d.refresh = msg, d.RefreshTicks
	if msg != "" {
		if len(d.history) >= DefaultHistory {
			d.history = d.history[1:]
		}
		d.history = append(d.history, msg)
	}
	fn := d.OnChange
	d.lock.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// Refreshing implements periph.Display.
func (d *Display) Refreshing() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.refresh > 0
}

// Message returns the message being shown.
func (d *Display) Message() string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.message
}

// History returns the recently shown messages, the oldest first.
func (d *Display) History() []string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return append([]string(nil), d.history...)
}

// Step counts down the refresh window.
func (d *Display) Step() {
	d.lock.Lock()
	if d.refresh > 0 {
		d.refresh--
	}
	d.lock.Unlock()
}
