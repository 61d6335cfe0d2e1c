package client

import (
	"sync"
	"time"
)

// DefaultTypingInterval bounds how often keystroke-driven typing signals are
// forwarded to the server.
const DefaultTypingInterval = 300 * time.Millisecond

// Debouncer coalesces rapid calls into at most one send per interval. The
// cooldown state is explicit: the time of the last send plus the latest
// suppressed value, flushed on demand.
type Debouncer struct {
	interval time.Duration
	send     func(bool)
	now      func() time.Time

	mu       sync.Mutex
	lastSent time.Time
	pending  *bool
}

// NewDebouncer builds a Debouncer forwarding through send. A non-positive
// interval falls back to DefaultTypingInterval.
func NewDebouncer(interval time.Duration, send func(bool)) *Debouncer {
	if interval <= 0 {
		interval = DefaultTypingInterval
	}
	return &Debouncer{interval: interval, send: send, now: time.Now}
}

// Offer submits a value. Inside the cooldown window the value is stored and
// supersedes any previously suppressed one; otherwise it is sent immediately.
// Reports whether the value went out now.
func (d *Debouncer) Offer(v bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.Sub(d.lastSent) >= d.interval {
		d.lastSent = now
		d.pending = nil
		d.send(v)
		return true
	}

	pending := v
	d.pending = &pending
	return false
}

// Flush sends the suppressed value, if any, and clears it.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return
	}
	v := *d.pending
	d.pending = nil
	d.lastSent = d.now()
	d.send(v)
}
