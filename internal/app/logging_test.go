package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/keytally/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"bogus", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var sb strings.Builder
	l := NewLogger(LoggerConfig{Level: LogLevelWarn, Output: &sb})

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := sb.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Errorf("low-level messages leaked:\n%s", out)
	}
	if !strings.Contains(out, "warn msg") || !strings.Contains(out, "error msg") {
		t.Errorf("high-level messages missing:\n%s", out)
	}
}

func TestLoggerFields(t *testing.T) {
	var sb strings.Builder
	l := NewLogger(LoggerConfig{Level: LogLevelInfo, Output: &sb, Prefix: "keytally"})

	l.WithComponent("persist").WithField("path", "/tmp/x").Info("saved")

	out := sb.String()
	if !strings.Contains(out, "component=persist") || !strings.Contains(out, "path=/tmp/x") {
		t.Errorf("fields missing: %s", out)
	}
	if !strings.Contains(out, "keytally: saved") {
		t.Errorf("prefix missing: %s", out)
	}
}

func TestLoggerFormatArgs(t *testing.T) {
	var sb strings.Builder
	l := NewLogger(LoggerConfig{Level: LogLevelInfo, Output: &sb})

	l.Info("loaded %d entries from %s", 3, "stats.json")
	if !strings.Contains(sb.String(), "loaded 3 entries from stats.json") {
		t.Errorf("formatting broken: %s", sb.String())
	}
}

func TestOpenLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keytally.log")
	l, closer, err := OpenLogger(config.LoggingConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("OpenLogger: %v", err)
	}
	if closer == nil {
		t.Fatal("file logger should return a closer")
	}

	l.Debug("hello from the log file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello from the log file") {
		t.Errorf("log file contents: %s", data)
	}
}

func TestOpenLoggerStderr(t *testing.T) {
	_, closer, err := OpenLogger(config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("OpenLogger: %v", err)
	}
	if closer != nil {
		t.Error("stderr logger should not return a closer")
	}
}

func TestNullLoggerDiscards(t *testing.T) {
	// Must not panic with no output writer
	NullLogger.Info("dropped")
	NullLogger.WithComponent("x").Error("dropped too")
}
