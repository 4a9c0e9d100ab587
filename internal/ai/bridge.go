// Package ai turns keystroke statistics into a natural-language usage
// analysis via an LLM provider.
//
// The bridge is strictly best-effort: it runs outside the recording
// pipeline, bounds every request with a timeout, and reports failures
// as errors for the caller to log. Providers (anthropic, openai,
// gemini) are selected by configuration and talk through their
// official SDKs.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dshills/keytally/internal/config"
	"github.com/dshills/keytally/internal/stats"
)

// getenv is swappable for tests.
var getenv = os.Getenv

// Bridge runs usage analyses against one configured provider.
type Bridge struct {
	cfg       config.AIConfig
	completer completer
}

// completer is one provider's completion call.
type completer interface {
	// Complete sends a system and user prompt, returning the response text.
	Complete(ctx context.Context, system, prompt string) (string, error)

	// Model returns the resolved model name.
	Model() string
}

// Bridge errors.
var (
	ErrDisabled = errors.New("ai: analysis disabled in configuration")
	ErrNoAPIKey = errors.New("ai: api key not configured")
	ErrEmpty    = errors.New("ai: no statistics to analyze")
)

// New creates a bridge for the configured provider.
func New(cfg config.AIConfig) (*Bridge, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	var (
		c   completer
		err error
	)
	switch cfg.Provider {
	case "anthropic":
		c, err = newAnthropic(cfg)
	case "openai":
		c, err = newOpenAI(cfg)
	case "gemini":
		c, err = newGemini(cfg)
	default:
		err = fmt.Errorf("ai: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &Bridge{cfg: cfg, completer: c}, nil
}

// Provider returns the configured provider name.
func (b *Bridge) Provider() string { return b.cfg.Provider }

// Model returns the resolved model name.
func (b *Bridge) Model() string { return b.completer.Model() }

// Analyze formats the snapshot into a prompt, queries the provider,
// and parses the response. The note, when non-empty, is appended to
// the prompt (used for Lua report_note hooks).
func (b *Bridge) Analyze(ctx context.Context, snap stats.Snapshot, note string) (Analysis, error) {
	if snap.IsEmpty() {
		return Analysis{}, ErrEmpty
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout())
		defer cancel()
	}

	prompt := BuildPrompt(snap, note)
	text, err := b.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return Analysis{}, fmt.Errorf("ai: %s: %w", b.cfg.Provider, err)
	}

	a := ParseAnalysis(text)
	a.Provider = b.cfg.Provider
	a.Model = b.completer.Model()
	a.GeneratedAt = time.Now()
	return a, nil
}

// resolveKey returns the API key from config or the environment.
func resolveKey(cfg config.AIConfig, envVars ...string) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	for _, env := range envVars {
		if v := getenv(env); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set %s", ErrNoAPIKey, envVars[0])
}
