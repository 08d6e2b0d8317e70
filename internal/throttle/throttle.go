// Package throttle paces user input for slow or timing sensitive devices.
package throttle

import "time"

// Gate decides how much user input the relay loop may take per cycle.
// With a positive delay the loop reads one byte at a time and, after each
// one, keeps the terminal out of the readiness wait until a wait of delay
// passes without the loop being woken.
type Gate struct {
	delay  time.Duration
	active bool
}

// New returns a Gate; a delay <= 0 disables throttling
func New(delay time.Duration) *Gate {
	if delay < 0 {
		delay = 0
	}
	return &Gate{delay: delay}
}

// Enabled reports whether a delay is configured
func (g *Gate) Enabled() bool {
	return g.delay > 0
}

// Active reports whether the terminal is currently held back
func (g *Gate) Active() bool {
	return g.active
}

// ReadSize returns how many bytes may be read from the terminal
func (g *Gate) ReadSize(max int) int {
	if g.Enabled() && max > 1 {
		return 1
	}
	return max
}

// Arm holds the terminal back after a keystroke was consumed
func (g *Gate) Arm() {
	if g.Enabled() {
		g.active = true
	}
}

// Expire releases the terminal; called when a wait timed out
func (g *Gate) Expire() {
	g.active = false
}

// Timeout returns the readiness wait bound: the delay while active,
// otherwise def
func (g *Gate) Timeout(def time.Duration) time.Duration {
	if g.active {
		return g.delay
	}
	return def
}
