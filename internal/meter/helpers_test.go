package meter

import (
	"sync"
	"time"

	"github.com/shini4i/trafficmeter/internal/stats"
)

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer

	// leaky makes Stop report success without cancelling, simulating a
	// callback that already fired and is waiting for the lock.
	leaky bool
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.clock.leaky {
		return true
	}
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward by d, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		if next.at.After(c.now) {
			c.now = next.at
		}
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

// pending returns the number of timers that can still fire.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeSource returns whatever counters were last set.
type fakeSource struct {
	mu       sync.Mutex
	counters stats.ByteCounters
	reads    int
}

func (s *fakeSource) Set(rx, tx uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = stats.ByteCounters{Rx: rx, Tx: tx}
}

func (s *fakeSource) Read() stats.ByteCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.counters
}

func (s *fakeSource) Backend() stats.Backend {
	return stats.BackendSystem
}

// sample builds a Sample at base+offset.
func sample(base time.Time, offset time.Duration, rx, tx uint64) stats.Sample {
	return stats.Sample{
		Counters: stats.ByteCounters{Rx: rx, Tx: tx},
		At:       base.Add(offset),
	}
}

// visibility returns the visibility commands in order.
func visibility(r *Recorder) []bool {
	var out []bool
	for _, c := range r.Commands {
		if c.Kind == CommandVisible {
			out = append(out, c.Visible)
		}
	}
	return out
}

func (s *fakeSource) readsSoFar() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
