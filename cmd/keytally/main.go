// Package main is the entry point for the keytally recorder.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dshills/keytally/internal/app"
	"github.com/dshills/keytally/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	filetype   string
	file       string
	statsPath  string
	logLevel   string
	report     bool
	analyze    bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.statsPath != "" {
		cfg.Persist.Path = opts.statsPath
	}
	if opts.analyze {
		cfg.AI.Enabled = true
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown(context.Background())

	if ft := resolveFiletype(opts); ft != "" {
		application.SetFiletype(ft)
	}

	// One-shot modes skip the terminal entirely.
	if opts.report {
		if err := application.Report(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if opts.analyze {
		analysis, err := application.Analyze(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: analysis failed: %v\n", err)
			return 1
		}
		fmt.Println(analysis.Analysis)
		for _, s := range analysis.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
		return 0
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, app.ErrQuit) || errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.filetype, "filetype", "", "Filetype to record sequences under")
	flag.StringVar(&opts.filetype, "t", "", "Filetype to record sequences under (shorthand)")
	flag.StringVar(&opts.file, "file", "", "Derive the filetype from this file name")
	flag.StringVar(&opts.statsPath, "stats", "", "Stats file path (overrides configuration)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.report, "report", false, "Print the statistics tables and exit")
	flag.BoolVar(&opts.analyze, "analyze", false, "Run the AI usage analysis and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "keytally - keystroke usage statistics recorder\n\n")
		fmt.Fprintf(os.Stderr, "Usage: keytally [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  keytally                    Record keys in the terminal\n")
		fmt.Fprintf(os.Stderr, "  keytally -t go              Record under the go filetype\n")
		fmt.Fprintf(os.Stderr, "  keytally -report            Print the statistics tables\n")
		fmt.Fprintf(os.Stderr, "  keytally -analyze           Generate the AI usage analysis\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("keytally %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	return opts
}

// resolveFiletype picks the filetype from the flags: -filetype wins,
// then the -file extension.
func resolveFiletype(opts options) string {
	if opts.filetype != "" {
		return opts.filetype
	}
	if opts.file != "" {
		ext := strings.TrimPrefix(filepath.Ext(opts.file), ".")
		if ext != "" {
			return ext
		}
		return filepath.Base(opts.file)
	}
	return ""
}
