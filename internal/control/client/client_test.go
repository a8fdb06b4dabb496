package client

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/control/protocol"
	"github.com/shini4i/trafficmeter/internal/control/server"
	"github.com/shini4i/trafficmeter/internal/meter"
	"github.com/shini4i/trafficmeter/internal/stats"
)

type staticSource struct {
	mu       sync.Mutex
	counters stats.ByteCounters
}

func (s *staticSource) Read() stats.ByteCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// startMeter runs an Omni meter behind a control server and returns the socket path.
func startMeter(t *testing.T) string {
	t.Helper()

	frames := server.NewFrameSink()
	t.Cleanup(frames.Close)

	m, err := meter.New(config.DefaultConfig(), &staticSource{}, meter.PolicyOmni, frames, meter.Options{})
	require.NoError(t, err)
	t.Cleanup(m.Close)

	socketPath := filepath.Join(t.TempDir(), "meter.sock")
	srv := server.NewServer(socketPath, server.NewMeterHandler(m))
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })
	frames.Start(srv)

	return socketPath
}

func dial(t *testing.T, socketPath string) *Client {
	t.Helper()
	c, err := NewWithPath(socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewWithPath_NotAvailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sock")

	_, err := NewWithPath(path)
	assert.ErrorIs(t, err, ErrMeterNotAvailable)
	assert.False(t, IsAvailableAt(path))
}

func TestIsAvailableAt(t *testing.T) {
	assert.True(t, IsAvailableAt(startMeter(t)))
}

func TestClient_SendEventAndStatus(t *testing.T) {
	c := dial(t, startMeter(t))
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	status, err := c.SendEvent(ctx, protocol.EventParams{Kind: "attached", On: true})
	require.NoError(t, err)
	assert.True(t, status.Inputs.Attached)
	assert.False(t, status.Running)
	assert.Equal(t, meter.PolicyOmni, status.Policy)

	result, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, status.ID, result.Meter.ID)
	assert.Equal(t, config.DirectionInOut, result.Config.OmniDirection)
}

func TestClient_SendEventRejected(t *testing.T) {
	c := dial(t, startMeter(t))

	_, err := c.SendEvent(context.Background(), protocol.EventParams{Kind: "wifi", On: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), protocol.ErrCodeInvalidParams)
}

func TestClient_ApplyConfig(t *testing.T) {
	c := dial(t, startMeter(t))

	dir := config.DirectionOut
	cfg, err := c.ApplyConfig(context.Background(), config.Update{OmniDirection: &dir})
	require.NoError(t, err)
	assert.Equal(t, config.DirectionOut, cfg.OmniDirection)

	bad := config.Mode("sometimes")
	_, err = c.ApplyConfig(context.Background(), config.Update{Mode: &bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), protocol.ErrCodeRejected)
}

func TestClient_ReceivesFrames(t *testing.T) {
	c := dial(t, startMeter(t))

	var (
		mu     sync.Mutex
		frames []protocol.FrameData
	)
	c.OnFrame(func(frame protocol.FrameData) {
		mu.Lock()
		defer mu.Unlock()
		frames = append(frames, frame)
	})

	ctx := context.Background()
	for _, kind := range []string{"attached", "screen", "connectivity"} {
		_, err := c.SendEvent(ctx, protocol.EventParams{Kind: kind, On: true})
		require.NoError(t, err)
	}

	// The Omni readout renders immediately on start.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, f := range frames {
			if f.Visible && f.Text == "0B/s\n0B/s" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_ContextCancelled(t *testing.T) {
	c := dial(t, startMeter(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Status(ctx)
	// The response may win the race against the cancelled context.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestClient_ClosedByServer(t *testing.T) {
	frames := server.NewFrameSink()
	defer frames.Close()
	m, err := meter.New(config.DefaultConfig(), &staticSource{}, meter.PolicySimple, frames, meter.Options{})
	require.NoError(t, err)
	defer m.Close()

	socketPath := filepath.Join(t.TempDir(), "meter.sock")
	srv := server.NewServer(socketPath, server.NewMeterHandler(m))
	require.NoError(t, srv.Start())

	c := dial(t, socketPath)
	_, err = c.Status(context.Background())
	require.NoError(t, err)
	require.NoError(t, srv.Stop())

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the closed connection")
	}

	_, err = c.Status(context.Background())
	assert.Error(t, err)
}
