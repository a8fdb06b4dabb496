package meter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shini4i/trafficmeter/internal/config"
)

func newSimpleSampler(t *testing.T, mutate func(cfg *config.DisplayConfig)) (*Sampler, *SimplePolicy, *fakeClock, *fakeSource, *Recorder) {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	policy := NewSimplePolicy(cfg)
	clock := newFakeClock()
	src := &fakeSource{}
	rec := &Recorder{}
	return NewSampler(src, policy, rec, cfg.Interval, WithClock(clock)), policy, clock, src, rec
}

func TestSimple_RateScenario(t *testing.T) {
	s, _, clock, src, rec := newSimpleSampler(t, nil)

	src.Set(1_000_000, 0)
	s.Start()
	src.Set(1_512_000, 0)
	clock.Advance(time.Second)

	assert.Equal(t, []string{"500KB/s"}, rec.Texts())
	assert.Equal(t, []bool{true}, visibility(rec))
}

func TestSimple_ConstantRate(t *testing.T) {
	rates := []struct {
		rate uint64
		want string
	}{
		{800, "800B/s"},
		{3000, "2.9KB/s"},
		{300_000, "292KB/s"},
		{5_000_000, "4.8MB/s"},
		{50_000_000, "47MB/s"},
	}

	for _, tt := range rates {
		t.Run(tt.want, func(t *testing.T) {
			s, _, clock, src, rec := newSimpleSampler(t, nil)
			var rx uint64
			src.Set(rx, 0)
			s.Start()

			for i := 0; i < 5; i++ {
				rx += tt.rate
				src.Set(rx, 0)
				clock.Advance(time.Second)
			}

			texts := rec.Texts()
			require.Len(t, texts, 5)
			for _, text := range texts {
				assert.Equal(t, tt.want, text)
			}
			assert.Equal(t, []bool{true}, visibility(rec), "visibility is set once")
		})
	}
}

func TestSimple_RollbackScenario(t *testing.T) {
	s, _, clock, src, rec := newSimpleSampler(t, nil)

	src.Set(5_000_000, 0)
	s.Start()

	src.Set(4_000_000, 0)
	clock.Advance(time.Second)

	src.Set(4_100_000, 0)
	clock.Advance(time.Second)

	assert.Equal(t, []string{"0B/s", "97KB/s"}, rec.Texts())
}

func TestSimple_BurstSummaryThenHidden(t *testing.T) {
	s, policy, clock, src, rec := newSimpleSampler(t, func(cfg *config.DisplayConfig) {
		cfg.HideMode = config.HideSummary
		cfg.SummaryDurationMs = 3000
	})

	start := clock.Now()
	src.Set(10_000, 0)
	s.Start()

	rx := uint64(10_000)
	for i := 0; i < 3; i++ {
		rx += 1000
		src.Set(rx, 0)
		clock.Advance(time.Second)
		if i == 0 {
			burst := policy.Burst()
			assert.True(t, burst.Active)
			assert.Equal(t, start, burst.StartedAt)
			assert.Equal(t, uint64(10_000), burst.StartBytes)
		}
	}

	// Idle: the summary is shown, then held for the summary duration.
	clock.Advance(time.Second)
	assert.False(t, policy.Burst().Active)
	clock.Advance(2 * time.Second)
	assert.Equal(t, []bool{true}, visibility(rec), "still visible during the summary")

	clock.Advance(time.Second)
	assert.Equal(t, []bool{true, false}, visibility(rec))

	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"1000B/s", "1000B/s", "1000B/s", "(2.9KB)", ""}, rec.Texts())
}

func TestSimple_HiddenModeNoSummary(t *testing.T) {
	s, _, clock, src, rec := newSimpleSampler(t, func(cfg *config.DisplayConfig) {
		cfg.HideMode = config.HideInactive
	})

	s.Start()
	clock.Advance(time.Second)
	assert.Empty(t, rec.Commands, "already hidden, no traffic")

	src.Set(2048, 0)
	clock.Advance(time.Second)
	clock.Advance(time.Second)

	assert.Equal(t, []string{"2.0KB/s", ""}, rec.Texts())
	assert.Equal(t, []bool{true, false}, visibility(rec))
}

func TestSimple_ZeroSummaryDurationHidesImmediately(t *testing.T) {
	s, _, clock, src, rec := newSimpleSampler(t, func(cfg *config.DisplayConfig) {
		cfg.HideMode = config.HideSummary
		cfg.SummaryDurationMs = 0
	})

	s.Start()
	src.Set(5000, 0)
	clock.Advance(time.Second)
	clock.Advance(time.Second)

	assert.Equal(t, []string{"4.9KB/s", ""}, rec.Texts())
}

func TestSimple_DisconnectDuringBurstUsesPreviousTotal(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := config.DefaultConfig()
	cfg.HideMode = config.HideSummary
	p := NewSimplePolicy(cfg)
	p.Reset()

	cmds, consumed := p.Tick(NewDelta(sample(base, 0, 0, 0), sample(base, time.Second, 1900, 0)), TriggerPeriodic)
	assert.True(t, consumed)
	assert.Equal(t, []Command{textCmd("1.9KB/s"), visibleCmd(true)}, cmds)

	// Counters roll back below the burst start; the total comes from the
	// last good reading, not the rolled-back one.
	d := NewDelta(sample(base, time.Second, 1900, 0), sample(base, 2*time.Second, 500, 0))
	require.True(t, d.Disconnected)
	cmds, _ = p.Tick(d, TriggerPeriodic)
	assert.Equal(t, []Command{textCmd("(1.9KB)")}, cmds)
}

func TestSimple_ZeroElapsedRendersNothing(t *testing.T) {
	base := time.Now()
	p := NewSimplePolicy(config.DefaultConfig())
	p.Reset()

	cmds, consumed := p.Tick(NewDelta(sample(base, 0, 0, 0), sample(base, 0, 100, 0)), TriggerPeriodic)
	assert.True(t, consumed)
	assert.Equal(t, []Command{visibleCmd(true)}, cmds)
}

func TestSimple_ResetClearsBurst(t *testing.T) {
	base := time.Now()
	cfg := config.DefaultConfig()
	cfg.HideMode = config.HideInactive
	p := NewSimplePolicy(cfg)

	p.Tick(NewDelta(sample(base, 0, 0, 0), sample(base, time.Second, 100, 0)), TriggerPeriodic)
	require.True(t, p.Burst().Active)

	p.Reset()
	assert.Equal(t, BurstState{}, p.Burst())
}
