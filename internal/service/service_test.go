package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/control/client"
	"github.com/shini4i/trafficmeter/internal/control/protocol"
	"github.com/shini4i/trafficmeter/internal/meter"
	"github.com/shini4i/trafficmeter/internal/stats"
)

type staticSource struct{}

func (staticSource) Read() stats.ByteCounters { return stats.ByteCounters{Rx: 100, Tx: 50} }

func newService(t *testing.T, opts Options, sink meter.Sink) *Service {
	t.Helper()
	dir := t.TempDir()
	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(dir, "config.yaml")
	}
	if opts.SocketPath == "" {
		opts.SocketPath = filepath.Join(dir, "meter.sock")
	}
	opts.Source = staticSource{}

	s, err := New(opts, sink)
	require.NoError(t, err)
	return s
}

func TestNew_Defaults(t *testing.T) {
	rec := &meter.Recorder{}
	s := newService(t, Options{DisableControl: true}, rec)
	defer s.Shutdown()

	st := s.Status()
	assert.Equal(t, meter.PolicySimple, st.Policy)
	assert.False(t, st.Running)
	assert.Empty(t, s.SocketPath())
	assert.Equal(t, *config.DefaultConfig(), s.Config())
	assert.NotEmpty(t, rec.Commands, "initial styling reaches the sink")
}

func TestNew_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mode":"sometimes"}`), 0600))

	_, err := New(Options{ConfigPath: path, DisableControl: true, Source: staticSource{}}, &meter.Recorder{})
	assert.ErrorIs(t, err, config.ErrUnknownMode)
}

func TestService_HandleNotifiesObservers(t *testing.T) {
	s := newService(t, Options{DisableControl: true, Policy: meter.PolicyOmni}, &meter.Recorder{})
	defer s.Shutdown()

	var (
		mu       sync.Mutex
		statuses []meter.Status
	)
	s.OnStatus(func(st meter.Status) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, st)
	})

	for _, kind := range []meter.EventKind{meter.EventAttached, meter.EventScreen, meter.EventConnectivity} {
		require.NoError(t, s.Handle(meter.InputEvent(kind, true)))
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, statuses, 3)
	assert.False(t, statuses[1].Running)
	assert.True(t, statuses[2].Running)
	assert.Equal(t, meter.PolicyOmni, statuses[2].Policy)
}

func TestService_HandleReturnsError(t *testing.T) {
	s := newService(t, Options{DisableControl: true}, &meter.Recorder{})
	defer s.Shutdown()

	called := false
	s.OnStatus(func(meter.Status) { called = true })

	bad := config.Mode("sometimes")
	err := s.Handle(meter.ConfigEvent(config.Update{Mode: &bad}))
	assert.Error(t, err)
	assert.True(t, called, "observers see rejected events too")
}

func TestService_ConfigPersisted(t *testing.T) {
	s := newService(t, Options{DisableControl: true}, &meter.Recorder{})
	defer s.Shutdown()

	hide := config.HideSummary
	require.NoError(t, s.Handle(meter.ConfigEvent(config.Update{HideMode: &hide})))

	loaded, err := config.Load(s.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, config.HideSummary, loaded.HideMode)
}

func TestService_ControlSocket(t *testing.T) {
	s := newService(t, Options{}, &meter.Recorder{})
	require.NoError(t, s.Start(context.Background()))

	c, err := client.NewWithPath(s.SocketPath())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	status, err := c.SendEvent(context.Background(), protocol.EventParams{Kind: "screen", On: true})
	require.NoError(t, err)
	assert.True(t, status.Inputs.ScreenOn)
	assert.True(t, s.Status().Inputs.ScreenOn)

	s.Shutdown()
	_, err = os.Stat(s.SocketPath())
	assert.True(t, os.IsNotExist(err), "socket removed on shutdown")
}

func TestService_StartFailsOnBadSocket(t *testing.T) {
	s := newService(t, Options{SocketPath: filepath.Join(t.TempDir(), "missing", "dir", "meter.sock")}, &meter.Recorder{})
	defer s.Shutdown()

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start control server")
}
