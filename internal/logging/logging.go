// Package logging builds the zerolog sinks handed to the engine.
// There is no package-level logger: every component receives its sink explicitly.
//
//	log, closer := logging.NewLoggerFromConfig(&logging.Config{Level: "debug", Output: "dupcat.log"})
//	defer closer.Close()
//	log.Info().Str("root", dir).Msg("cataloging directory")
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration options
type Config struct {
	// Level is the minimum level written
	Level string

	// Format is json, console or auto (console when writing to a terminal)
	Format string

	// Output is stderr, stdout, discard or a file path. Files are rotated.
	Output string

	// NoColor disables escape sequences in console mode
	NoColor bool

	// AddCaller includes file:line in every entry
	AddCaller bool

	// MaxSizeMB rotates log files once they reach this size
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept
	MaxBackups int
}

func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		NoColor:    os.Getenv("NO_COLOR") != "",
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

// Nop discards everything. It is the default sink of the engine.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLoggerFromConfig creates a logger. The closer releases an opened log file and must be called on exit.
func NewLoggerFromConfig(cfg *Config) (zerolog.Logger, io.Closer) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := ParseLevel(cfg.Level)

	output, closer := openOutput(cfg)
	logger := zerolog.New(formatted(cfg, output)).
		Level(level).
		With().
		Timestamp().
		Logger()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger, closer
}

func openOutput(cfg *Config) (io.Writer, io.Closer) {
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		return os.Stderr, nopCloser{}
	case "stdout":
		return os.Stdout, nopCloser{}
	case "discard", "none":
		return io.Discard, nopCloser{}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
		return os.Stderr, nopCloser{}
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}
	return rotating, rotating
}

func formatted(cfg *Config, output io.Writer) io.Writer {
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, isFile := output.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
			format = "console"
		}
	}
	switch format {
	case "console", "pretty":
		return zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	default:
		return output
	}
}

// ParseLevel maps a level name to zerolog, falling back to info for unknown names.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "disabled", "none", "off":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
