// Package config manages the traffic meter display configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shini4i/trafficmeter/internal/fileutil"
	"github.com/shini4i/trafficmeter/internal/stats"
)

const (
	// AppName is the application identifier used for XDG paths.
	AppName = "trafficmeter"
	// ConfigFileName is the name of the main configuration file.
	ConfigFileName = "config.json"

	// DefaultInterval is the sampling interval. It is not configurable.
	DefaultInterval = time.Second
)

var (
	// ErrInvalidColor is returned when a color is not in #rrggbb form.
	ErrInvalidColor = errors.New("color must be in #rrggbb form")
	// ErrUnknownMode is returned for an unrecognised enumeration value.
	ErrUnknownMode = errors.New("unknown mode")
)

// HideMode controls whether the Simple readout hides when there is no traffic.
type HideMode string

const (
	// HideNever always shows the readout.
	HideNever HideMode = "default"
	// HideInactive hides the readout while there is no traffic.
	HideInactive HideMode = "hidden"
	// HideSummary hides while idle, first showing the total of the finished burst.
	HideSummary HideMode = "summary"
)

// Mode selects the activity condition under which the meter runs.
type Mode string

const (
	// ModeAlways runs whenever the basic conditions hold.
	ModeAlways Mode = "always"
	// ModeOnDownload runs only while a download is active.
	ModeOnDownload Mode = "on_download"
	// ModeOnProgress runs only while progress tracking is active.
	ModeOnProgress Mode = "on_progress"
)

// Direction selects which traffic direction the Omni readout shows.
type Direction string

const (
	// DirectionIn shows received traffic.
	DirectionIn Direction = "in"
	// DirectionOut shows transmitted traffic.
	DirectionOut Direction = "out"
	// DirectionInOut shows both, transmitted first.
	DirectionInOut Direction = "in_out"
)

// Position is a layout hint for sinks.
type Position string

const (
	PositionLeft   Position = "left"
	PositionCenter Position = "center"
	PositionRight  Position = "right"
)

// CountersConfig configures counter acquisition.
type CountersConfig struct {
	// TablePath is the interface statistics table read by the primary backend.
	TablePath string `json:"table_path" yaml:"table_path"`
}

// DisplayConfig holds the settings consumed by a traffic meter.
type DisplayConfig struct {
	// Interval is the sampling cadence. It is fixed and never read from disk.
	Interval time.Duration `json:"-" yaml:"-"`

	TextSize float64  `json:"text_size" yaml:"text_size"`
	Position Position `json:"position" yaml:"position"`

	HideMode          HideMode `json:"hide_mode" yaml:"hide_mode"`
	SummaryDurationMs int      `json:"summary_duration_ms" yaml:"summary_duration_ms"`

	Mode       Mode `json:"mode" yaml:"mode"`
	MobileOnly bool `json:"mobile_only" yaml:"mobile_only"`

	OmniDirection             Direction       `json:"omni_direction" yaml:"omni_direction"`
	OmniShowIcon              bool            `json:"omni_show_icon" yaml:"omni_show_icon"`
	OmniAutoHide              bool            `json:"omni_autohide" yaml:"omni_autohide"`
	OmniAutoHideThresholdKBps int             `json:"omni_autohide_threshold_kbps" yaml:"omni_autohide_threshold_kbps"`
	OmniSpeedUnit             stats.SpeedUnit `json:"omni_speed_unit" yaml:"omni_speed_unit"`

	TextColor string `json:"text_color" yaml:"text_color"`

	Counters CountersConfig `json:"counters" yaml:"counters"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *DisplayConfig {
	return &DisplayConfig{
		Interval:                  DefaultInterval,
		TextSize:                  14,
		Position:                  PositionRight,
		HideMode:                  HideNever,
		SummaryDurationMs:         3000,
		Mode:                      ModeAlways,
		OmniDirection:             DirectionInOut,
		OmniAutoHideThresholdKBps: 10,
		OmniSpeedUnit:             stats.UnitBytes,
		TextColor:                 "#ffffff",
		Counters: CountersConfig{
			TablePath: stats.DefaultTablePath,
		},
	}
}

// SummaryDuration returns how long a burst summary stays visible.
func (c *DisplayConfig) SummaryDuration() time.Duration {
	return time.Duration(c.SummaryDurationMs) * time.Millisecond
}

// Color returns the parsed default text color.
func (c *DisplayConfig) Color() color.RGBA {
	rgba, err := ParseColor(c.TextColor)
	if err != nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return rgba
}

// Validate checks if the configuration is valid.
func (c *DisplayConfig) Validate() error {
	if c.TextSize <= 0 {
		return fmt.Errorf("text size must be positive")
	}
	if c.SummaryDurationMs < 0 {
		return fmt.Errorf("summary duration must be non-negative")
	}
	if c.OmniAutoHideThresholdKBps < 0 {
		return fmt.Errorf("auto-hide threshold must be non-negative")
	}

	switch c.Position {
	case PositionLeft, PositionCenter, PositionRight:
	default:
		return fmt.Errorf("%w: position %q", ErrUnknownMode, c.Position)
	}
	switch c.HideMode {
	case HideNever, HideInactive, HideSummary:
	default:
		return fmt.Errorf("%w: hide mode %q", ErrUnknownMode, c.HideMode)
	}
	switch c.Mode {
	case ModeAlways, ModeOnDownload, ModeOnProgress:
	default:
		return fmt.Errorf("%w: mode %q", ErrUnknownMode, c.Mode)
	}
	switch c.OmniDirection {
	case DirectionIn, DirectionOut, DirectionInOut:
	default:
		return fmt.Errorf("%w: direction %q", ErrUnknownMode, c.OmniDirection)
	}
	switch c.OmniSpeedUnit {
	case stats.UnitBytes, stats.UnitBits:
	default:
		return fmt.Errorf("%w: speed unit %q", ErrUnknownMode, c.OmniSpeedUnit)
	}

	if _, err := ParseColor(c.TextColor); err != nil {
		return err
	}
	return nil
}

// ParseColor parses a "#rrggbb" color string into an opaque RGBA value.
func ParseColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// FormatColor renders a color as "#rrggbb".
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// DefaultPath returns the configuration file path following the XDG Base Directory spec.
func DefaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, AppName, ConfigFileName), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the configuration from disk. A missing file yields the defaults.
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
func Load(path string) (*DisplayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Interval = DefaultInterval

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to disk atomically in the format implied by the extension.
func Save(path string, cfg *DisplayConfig) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := fileutil.AtomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Manager provides concurrent-safe access to a persisted DisplayConfig.
type Manager struct {
	path   string        // Immutable after construction
	config *DisplayConfig // Protected by mu
	mu     sync.RWMutex
}

// NewManager loads the configuration at path. An empty path selects DefaultPath.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &Manager{
		path:   path,
		config: cfg,
	}, nil
}

// Path returns the configuration file location.
func (m *Manager) Path() string {
	return m.path
}

// GetConfig returns a copy of the current configuration.
func (m *Manager) GetConfig() *DisplayConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := *m.config
	return &cfg
}

// Apply merges a partial update, validates it and persists the result.
// On validation failure the stored config is left untouched.
func (m *Manager) Apply(u Update) (*DisplayConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := u.Apply(m.config)
	if err != nil {
		return nil, err
	}
	m.config = next
	if err := Save(m.path, m.config); err != nil {
		return nil, err
	}

	cfg := *m.config
	return &cfg, nil
}

// UpdateField atomically updates config fields using a mutator function.
// If validation fails, the original config is preserved.
func (m *Manager) UpdateField(mutator func(cfg *DisplayConfig)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	configCopy := *m.config
	mutator(&configCopy)
	if err := configCopy.Validate(); err != nil {
		return err
	}

	*m.config = configCopy
	return Save(m.path, m.config)
}
