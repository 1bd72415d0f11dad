// Package sysutil holds process-level helpers used during startup: the
// global log level and log sinks, and small environment helpers.
package sysutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
func SetLogLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// LogOptions selects where the global logger writes.
type LogOptions struct {
	Level  string
	Pretty bool   // human-readable console output instead of JSON
	Dir    string // when set, JSON lines are also written to daily files here
	// MaxAge bounds how long rotated files are kept. Defaults to 14 days.
	MaxAge time.Duration
}

// logFilePattern is the strftime pattern of rotated files inside Dir.
const logFilePattern = "planora.%Y%m%d.log"

// SetupLogger installs the global zerolog logger and returns a closer for
// the file sink (a no-op when Dir is empty). Console output goes to stdout.
func SetupLogger(opts LogOptions) (io.Closer, error) {
	return setupLogger(opts, os.Stdout)
}

func setupLogger(opts LogOptions, stdout io.Writer) (io.Closer, error) {
	SetLogLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	console := stdout
	if opts.Pretty {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if dir := strings.TrimSpace(opts.Dir); dir != "" {
		rl, err := newRotatingFile(dir, opts.MaxAge)
		if err != nil {
			return nil, err
		}
		out = zerolog.MultiLevelWriter(console, rl)
		closer = rl
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return closer, nil
}

func newRotatingFile(dir string, maxAge time.Duration) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if maxAge <= 0 {
		maxAge = 14 * 24 * time.Hour
	}
	rl, err := rotatelogs.New(
		filepath.Join(dir, logFilePattern),
		rotatelogs.WithLinkName(filepath.Join(dir, "planora.log")),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(maxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("open rotating log: %w", err)
	}
	return rl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FirstNonEmpty returns the first non-empty string from a variadic list.
// If all values are empty, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
