package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neural-prosthetics/neuromotion/internal/decode"
	"github.com/neural-prosthetics/neuromotion/internal/session"
)

// Duration is a yaml-parseable time.Duration ("100ms", "2s", "1m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d *Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(*d).String(), nil
}

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Session   SessionConfig   `yaml:"session"`
	Decode    DecodeConfig    `yaml:"decode"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// Level parses the configured log level, defaulting to info.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SessionConfig selects the session mode and timing.
type SessionConfig struct {
	Mode     session.Mode `yaml:"mode"`     // live | replay
	Cadence  Duration     `yaml:"cadence"`  // tick interval
	Window   Duration     `yaml:"window"`   // live aggregation window
	Duration Duration     `yaml:"duration"` // total session length

	// Replay input: a CSV export, or a session stored in a sqlite database.
	ReplayFile    string `yaml:"replayFile"`
	ReplayDB      string `yaml:"replayDB"`
	ReplaySession int64  `yaml:"replaySession"`
}

// DecodeConfig configures count-to-angle mapping and channel grouping.
type DecodeConfig struct {
	MinCount       int     `yaml:"minCount"`
	MaxCount       int     `yaml:"maxCount"`
	MaxAngle       int     `yaml:"maxAngle"`
	Assignments    [][]int `yaml:"assignments"`
	IgnoreChannels []int   `yaml:"ignoreChannels"`
}

// TransportConfig configures the serial link to the motion controller.
type TransportConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Port        string   `yaml:"port"`
	BaudRate    int      `yaml:"baudRate"`
	SettleDelay Duration `yaml:"settleDelay"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// SyntheticConfig tunes the stand-in spike source used for live sessions
// without an acquisition backend attached.
type SyntheticConfig struct {
	Rates        map[int]float64 `yaml:"rates"`        // per-channel spike rate (Hz)
	DeadChannels []int           `yaml:"deadChannels"` // channels that fail acquisition
}

// LoadConfig reads and validates a yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := Config{
		Session: SessionConfig{
			Mode:     session.ModeLive,
			Cadence:  Duration(100 * time.Millisecond),
			Window:   Duration(time.Second),
			Duration: Duration(time.Minute),
		},
		Decode: DecodeConfig{
			MinCount: decode.DefaultMinCount,
			MaxCount: decode.DefaultMaxCount,
			MaxAngle: decode.DefaultMaxAngle,
		},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Session.Mode {
	case session.ModeLive, session.ModeReplay:
	default:
		return fmt.Errorf("session.mode: unknown mode '%s'", c.Session.Mode)
	}

	if c.Session.Cadence <= 0 {
		return fmt.Errorf("session.cadence: must be positive")
	}
	if c.Session.Duration <= 0 {
		return fmt.Errorf("session.duration: must be positive")
	}
	if c.Session.Mode == session.ModeLive && c.Session.Window <= 0 {
		return fmt.Errorf("session.window: must be positive in live mode")
	}
	if c.Session.Mode == session.ModeReplay {
		if c.Session.ReplayFile == "" && c.Session.ReplayDB == "" {
			return fmt.Errorf("session: replay mode needs replayFile or replayDB")
		}
		if c.Session.ReplayDB != "" && c.Session.ReplaySession == 0 {
			return fmt.Errorf("session.replaySession: required with replayDB")
		}
	}

	if len(c.Decode.Assignments) > 0 {
		if err := decode.Assignment(c.Decode.Assignments).Validate(); err != nil {
			return fmt.Errorf("decode.assignments: %w", err)
		}
	}

	if c.Transport.Enabled && c.Transport.Port == "" {
		return fmt.Errorf("transport.port: required when transport is enabled")
	}

	return nil
}

// Assignment returns the configured channel grouping, or the reference layout.
func (c *Config) Assignment() decode.Assignment {
	if len(c.Decode.Assignments) == 0 {
		return decode.DefaultAssignment()
	}
	return decode.Assignment(c.Decode.Assignments)
}

// Mapper returns the configured angle mapper.
func (c *Config) Mapper() decode.Mapper {
	return decode.Mapper{
		MinCount: c.Decode.MinCount,
		MaxCount: c.Decode.MaxCount,
		MaxAngle: c.Decode.MaxAngle,
	}
}
