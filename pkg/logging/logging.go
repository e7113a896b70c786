package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level aliases slog.Level so callers need not import log/slog.
type Level = slog.Level

// Levels accepted by the --log-level flag.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format selects the slog handler.
type Format string

// Formats accepted by the --log-format flag.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config describes the logger built by New.
type Config struct {
	Level  Level
	Format Format
	// Output receives log records; nil means stderr, which keeps stdout
	// free for serve's unmatched reports.
	Output    io.Writer
	AddSource bool
}

// DefaultConfig is what `ersatz serve` uses without logging flags: info
// level text on stderr.
func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: FormatText, Output: os.Stderr}
}

// New returns a logger writing cfg.Format records at cfg.Level and above.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	if cfg.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Nop discards everything. Servers and handlers start with it, so an
// embedded server stays quiet inside go test.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrNop returns l, or Nop when l is nil.
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// ParseLevel maps a flag value to a Level. Matching ignores case, "warning"
// is accepted for warn, and anything unknown is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// ParseFormat maps a flag value to a Format; anything but "json" is text.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, "json") {
		return FormatJSON
	}
	return FormatText
}
