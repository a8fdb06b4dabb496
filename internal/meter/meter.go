package meter

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/stats"
)

// PolicyKind selects the display policy of a Meter.
type PolicyKind string

const (
	PolicySimple PolicyKind = "simple"
	PolicyOmni   PolicyKind = "omni"
)

// NewPolicy creates the policy named by kind.
func NewPolicy(kind PolicyKind, cfg *config.DisplayConfig) (Policy, error) {
	switch kind {
	case PolicySimple:
		return NewSimplePolicy(cfg), nil
	case PolicyOmni:
		return NewOmniPolicy(cfg), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", kind)
	}
}

// ConfigStore persists configuration updates. config.Manager implements it.
type ConfigStore interface {
	Apply(u config.Update) (*config.DisplayConfig, error)
}

// Options holds optional Meter collaborators.
type Options struct {
	// Clock drives sampling. Defaults to the system clock.
	Clock Clock
	// Store, when set, validates and persists config events.
	Store ConfigStore
}

// Status is a snapshot of a Meter.
type Status struct {
	ID      string        `json:"id"`
	Running bool          `json:"running"`
	Inputs  Inputs        `json:"inputs"`
	Text    string        `json:"text"`
	Visible bool          `json:"visible"`
	Backend stats.Backend `json:"backend,omitempty"`
	Policy  PolicyKind    `json:"policy"`
}

// Meter wires the gate, sampler and policy of one readout together.
// Events and ticks are serialized by a single lock, so independent meters
// share nothing. It is safe for concurrent use.
type Meter struct {
	mu sync.Mutex

	id      string
	kind    PolicyKind
	cfg     *config.DisplayConfig
	store   ConfigStore
	source  stats.CounterSource
	gate    Gate
	policy  Policy
	sampler *Sampler
	out     *trackingSink

	tint      bool
	tintColor color.RGBA
}

// New creates a stopped meter rendering into sink. The sink receives the
// initial styling before New returns.
func New(cfg *config.DisplayConfig, source stats.CounterSource, kind PolicyKind, sink Sink, opts Options) (*Meter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfgCopy := *cfg
	if cfgCopy.Interval <= 0 {
		cfgCopy.Interval = config.DefaultInterval
	}

	policy, err := NewPolicy(kind, &cfgCopy)
	if err != nil {
		return nil, err
	}

	m := &Meter{
		id:     uuid.NewString(),
		kind:   kind,
		cfg:    &cfgCopy,
		store:  opts.Store,
		source: source,
		policy: policy,
		out:    &trackingSink{Sink: sink},
	}

	samplerOpts := []SamplerOption{WithLocker(&m.mu)}
	if opts.Clock != nil {
		samplerOpts = append(samplerOpts, WithClock(opts.Clock))
	}
	m.sampler = NewSampler(source, policy, m.out, cfgCopy.Interval, samplerOpts...)

	m.out.SetTextColor(cfgCopy.Color())
	m.out.SetIconTint(cfgCopy.Color())
	m.out.SetTextSize(cfgCopy.TextSize)
	m.out.SetVisible(false)

	return m, nil
}

// ID returns the meter's instance identifier.
func (m *Meter) ID() string {
	return m.id
}

// Config returns a copy of the active configuration.
func (m *Meter) Config() config.DisplayConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.cfg
}

// Handle applies one inbound event.
func (m *Meter) Handle(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case ev.Kind.IsInput():
		m.transitionLocked(m.gate.Set(ev.Kind, ev.On, m.cfg.Mode, m.cfg.MobileOnly))
	case ev.Kind == EventConfig:
		return m.applyConfigLocked(ev.Update)
	case ev.Kind == EventColor:
		m.tintColor = ev.Color
		if m.tint {
			m.out.SetTextColor(ev.Color)
			m.out.SetIconTint(ev.Color)
		}
	case ev.Kind == EventTint:
		m.tint = ev.On
		c := m.cfg.Color()
		if m.tint {
			c = m.tintColor
		}
		m.out.SetTextColor(c)
		m.out.SetIconTint(c)
	case ev.Kind == EventAlpha:
		m.out.SetAlpha(clampAlpha(ev.Alpha))
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return nil
}

func (m *Meter) applyConfigLocked(u config.Update) error {
	var (
		next *config.DisplayConfig
		err  error
	)
	if m.store != nil {
		next, err = m.store.Apply(u)
	} else {
		next, err = u.Apply(m.cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to apply config update: %w", err)
	}
	next.Interval = m.cfg.Interval
	m.cfg = next
	m.policy.SetConfig(next)

	slog.Info("Meter config updated", "meter", m.id, "keys", u.Keys())

	if u.TextColor != nil && !m.tint {
		m.out.SetTextColor(next.Color())
		m.out.SetIconTint(next.Color())
	}
	if u.TextSize != nil && m.kind == PolicySimple {
		m.out.SetTextSize(next.TextSize)
	}
	if u.AffectsGate() {
		m.transitionLocked(m.gate.Evaluate(next.Mode, next.MobileOnly))
	}
	if m.policy.FirstTrigger() == TriggerForced {
		m.sampler.refreshLocked()
	}
	return nil
}

func (m *Meter) transitionLocked(t Transition) {
	switch t {
	case TransitionStart:
		slog.Info("Traffic meter started", "meter", m.id, "policy", m.kind)
		m.sampler.startLocked()
	case TransitionStop:
		slog.Info("Traffic meter stopped", "meter", m.id, "policy", m.kind)
		m.sampler.stopLocked()
		m.out.SetText("")
		m.out.SetVisible(false)
	}
}

// Close stops sampling without touching the gate inputs.
func (m *Meter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampler.stopLocked()
}

// Status returns a snapshot of the meter.
func (m *Meter) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		ID:      m.id,
		Running: m.sampler.state.IsRunning(),
		Inputs:  m.gate.Inputs(),
		Text:    m.out.text,
		Visible: m.out.visible,
		Policy:  m.kind,
	}
	if r, ok := m.source.(interface{ Backend() stats.Backend }); ok {
		st.Backend = r.Backend()
	}
	return st
}

func clampAlpha(a float64) float64 {
	switch {
	case a < 0:
		return 0
	case a > 1:
		return 1
	default:
		return a
	}
}

// trackingSink remembers the last text and visibility forwarded to the sink.
type trackingSink struct {
	Sink
	text    string
	visible bool
}

func (t *trackingSink) SetText(text string) {
	t.text = text
	t.Sink.SetText(text)
}

func (t *trackingSink) SetVisible(visible bool) {
	t.visible = visible
	t.Sink.SetVisible(visible)
}
