package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Load builds the configuration from the file at path plus environment
// overrides. A missing file is not an error; an unreadable or invalid
// file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Parse parses TOML configuration bytes over the defaults.
// Environment overrides are not applied.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// applyEnv overlays KEYTALLY_* environment variables.
// Note: empty string values are treated as unset.
func (c *Config) applyEnv() {
	setString := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	setInt := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("KEYTALLY_LOG_LEVEL", &c.Logging.Level)
	setString("KEYTALLY_LOG_FILE", &c.Logging.File)
	setString("KEYTALLY_STATS_PATH", &c.Persist.Path)
	setString("KEYTALLY_HOOK_SCRIPT", &c.Hooks.Script)
	setInt("KEYTALLY_IDLE_TIMEOUT_MS", &c.Track.IdleTimeoutMS)
	setInt("KEYTALLY_TOP_N", &c.Display.TopN)

	setString("KEYTALLY_AI_PROVIDER", &c.AI.Provider)
	setString("KEYTALLY_AI_MODEL", &c.AI.Model)
	setString("KEYTALLY_AI_OUTPUT", &c.AI.OutputPath)
	// Sensitive settings
	setString("KEYTALLY_API_KEY", &c.AI.APIKey)
	if v := os.Getenv("KEYTALLY_AI_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AI.Enabled = b
		}
	}
}
