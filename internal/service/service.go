// Package service wires a traffic meter to its configuration, counters,
// control socket and desktop event sources.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shini4i/trafficmeter/internal/config"
	"github.com/shini4i/trafficmeter/internal/control/server"
	"github.com/shini4i/trafficmeter/internal/events"
	"github.com/shini4i/trafficmeter/internal/meter"
	"github.com/shini4i/trafficmeter/internal/stats"
)

// Options configures a Service.
type Options struct {
	// ConfigPath is the display configuration file. Empty selects the XDG default.
	ConfigPath string
	// Policy selects the readout.
	Policy meter.PolicyKind
	// SocketPath is the control socket. Empty selects server.DefaultSocketPath.
	SocketPath string
	// DisableControl skips the control socket.
	DisableControl bool
	// DBus follows NetworkManager and the screensaver for gate inputs.
	DBus bool

	// Source overrides the counter source built from the configuration.
	Source stats.CounterSource
	// Clock overrides the sampling clock.
	Clock meter.Clock
}

// StatusObserver is notified after every handled event.
type StatusObserver func(st meter.Status)

// Service owns one meter and the collaborators feeding it.
// It implements the controller surfaces used by the control server,
// the D-Bus event source and the user interfaces.
type Service struct {
	configs *config.Manager
	meter   *meter.Meter
	server  *server.Server
	frames  *server.FrameSink
	dbus    bool

	mu        sync.RWMutex
	observers []StatusObserver

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New loads the configuration and creates a stopped meter rendering into sink.
func New(opts Options, sink meter.Sink) (*Service, error) {
	configs, err := config.NewManager(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg := configs.GetConfig()

	source := opts.Source
	if source == nil {
		source = stats.NewDefaultReader(cfg.Counters.TablePath)
	}

	s := &Service{
		configs: configs,
		dbus:    opts.DBus,
	}

	if !opts.DisableControl {
		socketPath := opts.SocketPath
		if socketPath == "" {
			socketPath = server.DefaultSocketPath()
		}
		s.frames = server.NewFrameSink()
		s.server = server.NewServer(socketPath, server.NewMeterHandler(s))
		sink = meter.MultiSink{sink, s.frames}
	}

	policy := opts.Policy
	if policy == "" {
		policy = meter.PolicySimple
	}
	s.meter, err = meter.New(cfg, source, policy, sink, meter.Options{
		Clock: opts.Clock,
		Store: configs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create meter: %w", err)
	}

	slog.Info("Traffic meter created", "meter", s.meter.ID(), "policy", policy, "config", configs.Path())
	return s, nil
}

// OnStatus registers an observer. Observers run on the goroutine that
// delivered the event and must not block.
func (s *Service) OnStatus(observer StatusObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Handle delivers ev to the meter and notifies observers.
func (s *Service) Handle(ev meter.Event) error {
	err := s.meter.Handle(ev)

	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()

	if len(observers) > 0 {
		st := s.meter.Status()
		for _, observer := range observers {
			observer(st)
		}
	}
	return err
}

// Status returns a snapshot of the meter.
func (s *Service) Status() meter.Status {
	return s.meter.Status()
}

// Config returns the active display configuration.
func (s *Service) Config() config.DisplayConfig {
	return s.meter.Config()
}

// ConfigPath returns the configuration file location.
func (s *Service) ConfigPath() string {
	return s.configs.Path()
}

// SocketPath returns the control socket path, or "" when control is disabled.
func (s *Service) SocketPath() string {
	if s.server == nil {
		return ""
	}
	return s.server.SocketPath()
}

// Start opens the control socket and starts the D-Bus event source.
func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.server != nil {
		if err := s.server.Start(); err != nil {
			cancel()
			return fmt.Errorf("failed to start control server: %w", err)
		}
		s.frames.Start(s.server)
	}

	if s.dbus {
		source := events.NewSource(s)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("D-Bus event source stopped", "error", err)
			}
		}()
	}

	return nil
}

// Shutdown stops sampling and releases the control socket.
func (s *Service) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.meter.Close()

	if s.server != nil {
		if err := s.server.Stop(); err != nil {
			slog.Error("Failed to stop control server", "error", err)
		}
		s.frames.Close()
	}
	slog.Info("Traffic meter shut down", "meter", s.meter.ID())
}
