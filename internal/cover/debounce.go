package cover

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler runs a function later. Each Trigger replaces whatever was
// scheduled before it.
type Scheduler interface {
	// Trigger cancels any scheduled call and schedules fn.
	Trigger(fn func())
	// Cancel drops the scheduled call, reporting whether one was pending.
	Cancel() bool
}

// Debouncer is a Scheduler that runs the most recently triggered function
// once no Trigger has happened for the configured delay.
type Debouncer struct {
	clock clockwork.Clock
	delay time.Duration

	mu    sync.Mutex
	timer clockwork.Timer
	gen   uint64
}

var _ Scheduler = (*Debouncer)(nil)

// NewDebouncer creates a Debouncer. A nil clock means the real clock.
func NewDebouncer(clock clockwork.Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer{clock: clock, delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen

	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A Trigger or Cancel after this timer was armed supersedes it,
		// even if Stop lost the race with the clock.
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether a call is scheduled and has not fired yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
