package meter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/stats"
)

// Clock abstracts time so the sampling loop can be driven in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback scheduled by a Clock.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return realClock{}
}

// Delta is the difference between two consecutive samples.
type Delta struct {
	// Rx and Tx are never negative. A receive rollback zeroes both.
	Rx, Tx  int64
	Elapsed time.Duration
	Prev    stats.Sample
	Now     stats.Sample
	// Disconnected is set when the receive counter went backwards.
	Disconnected bool
}

// NewDelta computes the delta from prev to now, clamping rollbacks to zero.
func NewDelta(prev, now stats.Sample) Delta {
	d := Delta{
		Rx:      int64(now.Counters.Rx) - int64(prev.Counters.Rx),
		Tx:      int64(now.Counters.Tx) - int64(prev.Counters.Tx),
		Elapsed: now.At.Sub(prev.At),
		Prev:    prev,
		Now:     now,
	}
	if d.Rx < 0 {
		d.Rx, d.Tx = 0, 0
		d.Disconnected = true
	}
	if d.Tx < 0 {
		d.Tx = 0
	}
	return d
}

// Policy turns deltas into rendering commands.
type Policy interface {
	// Name identifies the policy in logs and status output.
	Name() string
	// FirstTrigger is the trigger of the tick scheduled right after Start.
	FirstTrigger() Trigger
	// Reset clears per-run state. The readout is assumed hidden afterwards.
	Reset()
	// SetConfig replaces the settings used by subsequent ticks.
	SetConfig(cfg *config.DisplayConfig)
	// Tick handles one sample. consumed=false asks the sampler to keep the
	// previous sample as the baseline.
	Tick(d Delta, trigger Trigger) (cmds []Command, consumed bool)
}

// Sampler owns the fixed-interval loop. It reads counters, computes deltas
// and hands them to a Policy, applying the resulting commands to a Sink.
// It is safe for concurrent use.
type Sampler struct {
	mu sync.Locker

	source   stats.CounterSource
	policy   Policy
	sink     Sink
	clock    Clock
	interval time.Duration

	state State
	prev  stats.Sample
	timer Timer
	gen   uint64 // Bumped on every schedule and stop; stale callbacks compare against it
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithClock replaces the system clock.
func WithClock(c Clock) SamplerOption {
	return func(s *Sampler) { s.clock = c }
}

// WithLocker makes the sampler share a lock with its owner. Callers holding
// the lock must use the unexported *Locked methods.
func WithLocker(l sync.Locker) SamplerOption {
	return func(s *Sampler) { s.mu = l }
}

// NewSampler creates a stopped sampler.
func NewSampler(source stats.CounterSource, policy Policy, sink Sink, interval time.Duration, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		mu:       &sync.Mutex{},
		source:   source,
		policy:   policy,
		sink:     sink,
		clock:    SystemClock(),
		interval: interval,
		state:    StateStopped,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start takes the baseline sample and schedules the first tick.
// Starting a running sampler is a no-op.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

// Stop cancels the pending tick. No tick renders after Stop returns.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Refresh schedules an immediate forced tick when running.
func (s *Sampler) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
}

func (s *Sampler) startLocked() {
	if !IsValidTransition(s.state, StateRunning) {
		return
	}
	s.state = StateRunning
	s.policy.Reset()
	s.prev = s.sample()

	first := s.policy.FirstTrigger()
	delay := s.interval
	if first == TriggerForced {
		delay = 0
	}
	s.scheduleLocked(delay, first)

	slog.Debug("Sampler started", "policy", s.policy.Name(), "interval", s.interval)
}

func (s *Sampler) stopLocked() {
	if !IsValidTransition(s.state, StateStopped) {
		return
	}
	s.state = StateStopped
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	slog.Debug("Sampler stopped", "policy", s.policy.Name())
}

func (s *Sampler) refreshLocked() {
	if s.state.IsRunning() {
		s.scheduleLocked(0, TriggerForced)
	}
}

// scheduleLocked replaces any pending tick.
func (s *Sampler) scheduleLocked(delay time.Duration, trigger Trigger) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen || !s.state.IsRunning() {
			return
		}
		s.tickLocked(trigger)
	})
}

func (s *Sampler) tickLocked(trigger Trigger) {
	now := s.sample()
	d := NewDelta(s.prev, now)
	if d.Disconnected {
		slog.Debug("Receive counter rolled back",
			"previous", s.prev.Counters.Rx,
			"current", now.Counters.Rx)
	}

	cmds, consumed := s.policy.Tick(d, trigger)
	Apply(s.sink, cmds)
	if consumed {
		s.prev = now
	}

	s.scheduleLocked(s.interval, TriggerPeriodic)
}

func (s *Sampler) sample() stats.Sample {
	return stats.Sample{
		Counters: s.source.Read(),
		At:       s.clock.Now(),
	}
}
