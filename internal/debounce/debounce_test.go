package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock fires scheduled functions when Advance passes their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	rest := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case t.at <= c.now:
			t.stopped = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func TestDebouncer(t *testing.T) {
	test := []struct {
		name     string
		triggers int
		gap      time.Duration
		settle   time.Duration
		want     int32
	}{
		{"single", 1, 0, 150 * time.Millisecond, 1},
		{"burst", 10, 10 * time.Millisecond, 150 * time.Millisecond, 1},
		{"not settled", 3, 10 * time.Millisecond, 149 * time.Millisecond, 0},
		{"spaced", 3, 200 * time.Millisecond, 150 * time.Millisecond, 3},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			var (
				clock fakeClock
				calls atomic.Int32
			)
			d := New(150*time.Millisecond, func() { calls.Add(1) }, WithAfterFunc(clock.AfterFunc))
			for i := range tt.triggers {
				d.Trigger()
				assert.LessOrEqual(t, clock.Active(), 1)
				if i < tt.triggers-1 {
					clock.Advance(tt.gap)
				}
			}
			clock.Advance(tt.settle)
			assert.Equal(t, tt.want, calls.Load())
		})
	}
}

func TestStopAndFlush(t *testing.T) {
	var (
		clock fakeClock
		calls atomic.Int32
	)
	d := New(time.Second, func() { calls.Add(1) }, WithAfterFunc(clock.AfterFunc))

	d.Trigger()
	require.True(t, d.Pending())
	d.Stop()
	assert.False(t, d.Pending())
	clock.Advance(2 * time.Second)
	assert.Zero(t, calls.Load())

	d.Trigger()
	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Flush())
	clock.Advance(2 * time.Second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStaleTimer(t *testing.T) {
	var calls atomic.Int32
	var fires []func()
	d := New(time.Second, func() { calls.Add(1) }, WithAfterFunc(func(_ time.Duration, f func()) Timer {
		fires = append(fires, f)
		return time.NewTimer(time.Hour)
	}))
	d.Trigger()
	d.Trigger()
	// the first callback already started when the second Trigger happened.
	fires[0]()
	assert.Zero(t, calls.Load())
	fires[1]()
	assert.Equal(t, int32(1), calls.Load())
}

func TestRealTimer(t *testing.T) {
	done := make(chan struct{})
	d := New(5*time.Millisecond, func() { close(done) })
	d.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced function did not run")
	}
}
