// Package watcher turns file system notifications into change batches.
package watcher

import (
	"sync"
	"time"

	"go.trai.ch/stache/internal/core/ports"
)

// Debouncer coalesces rapid file system events into ordered batches.
type Debouncer struct {
	mu sync.Mutex
	// deliver keeps batches in order when windows expire back to back.
	deliver  sync.Mutex
	pending  []ports.WatchEvent
	timer    *time.Timer
	window   time.Duration
	callback func(events []ports.WatchEvent)
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func(events []ports.WatchEvent)) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
	}
}

// Add appends an event to the pending batch and restarts the window.
// An event identical to the last pending one is dropped.
func (d *Debouncer) Add(event ports.WatchEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := len(d.pending); n == 0 || d.pending[n-1] != event {
		d.pending = append(d.pending, event)
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// fire is called when the debounce window expires.
func (d *Debouncer) fire() {
	d.mu.Lock()

	// Protects against a race with Flush.
	if len(d.pending) == 0 {
		d.timer = nil
		d.mu.Unlock()
		return
	}

	events := d.pending
	d.pending = nil
	d.timer = nil
	d.deliver.Lock()
	d.mu.Unlock()
	defer d.deliver.Unlock()

	if d.callback != nil {
		d.callback(events)
	}
}

// Flush immediately triggers the callback with all pending events and blocks
// until it returns.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Timer already fired, let it complete rather than processing twice.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}

	events := d.pending
	d.pending = nil
	d.deliver.Lock()
	d.mu.Unlock()
	defer d.deliver.Unlock()

	if len(events) > 0 && d.callback != nil {
		d.callback(events)
	}
}
