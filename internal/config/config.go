// Package config loads keytally configuration from a TOML file with
// environment variable overrides.
//
// The search order is: built-in defaults, then the config file (missing
// file is fine), then KEYTALLY_* environment variables. Values are
// normalized after loading so the rest of the program never sees an
// out-of-range setting.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete keytally configuration.
type Config struct {
	Track   TrackConfig   `toml:"track"`
	Stats   StatsConfig   `toml:"stats"`
	Persist PersistConfig `toml:"persist"`
	Display DisplayConfig `toml:"display"`
	AI      AIConfig      `toml:"ai"`
	Logging LoggingConfig `toml:"logging"`
	Hooks   HooksConfig   `toml:"hooks"`
}

// TrackConfig controls sequence aggregation.
type TrackConfig struct {
	// IdleTimeoutMS is the gap in milliseconds that closes a sequence.
	IdleTimeoutMS int `toml:"idleTimeoutMs"`

	// MaxSequenceLen caps key events per sequence.
	MaxSequenceLen int `toml:"maxSequenceLen"`
}

// IdleTimeout returns the idle timeout as a duration.
func (c TrackConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMS) * time.Millisecond
}

// StatsConfig controls the in-memory store.
type StatsConfig struct {
	// MaxEntries is the per-filetype cap on distinct sequences.
	MaxEntries int `toml:"maxEntries"`
}

// PersistConfig controls the stats file writer.
type PersistConfig struct {
	// Path is the stats JSON file location.
	Path string `toml:"path"`

	// DebounceMS is the write delay in milliseconds.
	DebounceMS int `toml:"debounceMs"`
}

// Debounce returns the write delay as a duration.
func (c PersistConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// DisplayConfig controls the floating stats window.
type DisplayConfig struct {
	// TopN is the number of rows shown per filetype.
	TopN int `toml:"topN"`

	// HeatLow and HeatHigh are hex colors for the count heat ramp.
	HeatLow  string `toml:"heatLow"`
	HeatHigh string `toml:"heatHigh"`
}

// AIConfig controls the optional usage analysis.
type AIConfig struct {
	// Enabled enables the AI bridge.
	Enabled bool `toml:"enabled"`

	// Provider is the AI provider ("anthropic", "openai", "gemini").
	Provider string `toml:"provider"`

	// Model is the model name; empty selects the provider default.
	Model string `toml:"model"`

	// MaxTokens is the response token cap.
	MaxTokens int `toml:"maxTokens"`

	// Temperature is the sampling temperature.
	Temperature float64 `toml:"temperature"`

	// TimeoutSeconds bounds one analysis request.
	TimeoutSeconds int `toml:"timeoutSeconds"`

	// OutputPath is the analysis JSON file location.
	OutputPath string `toml:"outputPath"`

	// APIKey overrides the provider's environment variable.
	APIKey string `toml:"apiKey"`
}

// Timeout returns the request timeout as a duration.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	// Level is the logging verbosity ("debug", "info", "warn", "error").
	Level string `toml:"level"`

	// File is the log file path (empty logs to stderr).
	File string `toml:"file"`
}

// HooksConfig controls the Lua hook script.
type HooksConfig struct {
	// Script is the path to the user hook script.
	Script string `toml:"script"`
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := DefaultDataDir()
	return Config{
		Track: TrackConfig{
			IdleTimeoutMS:  500,
			MaxSequenceLen: 24,
		},
		Stats: StatsConfig{
			MaxEntries: 512,
		},
		Persist: PersistConfig{
			Path:       filepath.Join(dataDir, "stats.json"),
			DebounceMS: 2000,
		},
		Display: DisplayConfig{
			TopN:     10,
			HeatLow:  "#5f87af",
			HeatHigh: "#ff5f5f",
		},
		AI: AIConfig{
			Enabled:        false,
			Provider:       "anthropic",
			MaxTokens:      1024,
			Temperature:    0.3,
			TimeoutSeconds: 60,
			OutputPath:     filepath.Join(dataDir, "analysis.json"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "keytally.toml")
	}
	return filepath.Join(dir, "keytally", "config.toml")
}

// DefaultDataDir returns the directory for stats and analysis files.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "keytally")
}

// normalize clamps out-of-range values back to defaults.
func (c *Config) normalize() {
	def := Default()

	if c.Track.IdleTimeoutMS < 50 || c.Track.IdleTimeoutMS > 60_000 {
		c.Track.IdleTimeoutMS = def.Track.IdleTimeoutMS
	}
	if c.Track.MaxSequenceLen < 1 || c.Track.MaxSequenceLen > 1024 {
		c.Track.MaxSequenceLen = def.Track.MaxSequenceLen
	}
	if c.Stats.MaxEntries < 1 {
		c.Stats.MaxEntries = def.Stats.MaxEntries
	}
	if c.Persist.Path == "" {
		c.Persist.Path = def.Persist.Path
	}
	if c.Persist.DebounceMS < 100 || c.Persist.DebounceMS > 600_000 {
		c.Persist.DebounceMS = def.Persist.DebounceMS
	}
	if c.Display.TopN < 1 {
		c.Display.TopN = 1
	}
	if c.Display.TopN > 100 {
		c.Display.TopN = 100
	}
	if c.Display.HeatLow == "" {
		c.Display.HeatLow = def.Display.HeatLow
	}
	if c.Display.HeatHigh == "" {
		c.Display.HeatHigh = def.Display.HeatHigh
	}
	switch c.AI.Provider {
	case "anthropic", "openai", "gemini":
	default:
		c.AI.Provider = def.AI.Provider
	}
	// Upper bound keeps the value safe for providers taking int32 caps.
	if c.AI.MaxTokens < 1 || c.AI.MaxTokens > 100_000 {
		c.AI.MaxTokens = def.AI.MaxTokens
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		c.AI.Temperature = def.AI.Temperature
	}
	if c.AI.TimeoutSeconds < 1 {
		c.AI.TimeoutSeconds = def.AI.TimeoutSeconds
	}
	if c.AI.OutputPath == "" {
		c.AI.OutputPath = def.AI.OutputPath
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		c.Logging.Level = def.Logging.Level
	}
}
