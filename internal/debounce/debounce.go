// Package debounce runs a function once after a burst of triggers settles.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer is a trailing-edge debounce: each Trigger cancels the pending
// run and schedules a new one delay later. At most one run is pending.
type Debouncer struct {
	delay     time.Duration
	fn        func()
	afterFunc AfterFunc

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending bool
}

type Option func(*Debouncer)

// WithAfterFunc replaces time.AfterFunc, mainly for tests.
func WithAfterFunc(f AfterFunc) Option {
	return func(d *Debouncer) {
		d.afterFunc = f
	}
}

func New(delay time.Duration, fn func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		delay:     delay,
		fn:        fn,
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = d.afterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs fn unless a later Trigger or Stop superseded gen. A timer that
// already started when Stop was called must not run fn.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Stop cancels the pending run, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush runs the pending call now instead of waiting. It reports whether
// anything ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
	d.mu.Unlock()
	d.fn()
	return true
}
