// Package log configures the slog.Logger shared by a component application.
// Loggers are built with functional options, or from a Config that can be
// decoded from a configuration file.
//
// # Usage
//
// The following example creates a logger at debug level that prints
// JSON-formatted records to the standard output:
//
//	logger := log.New(
//		log.WithLevel("debug"),
//		log.WithFormat("json"),
//	)
//
// # Conventions
//
// Stick to the following rules to keep log output consistent:
//
//   - Format attribute keys in lower camelCase.
//   - Prefer longer keys over abbreviations (e.g., "error" over "err").
//   - Capitalize the first letter of every log message.
//   - Do not end log messages with punctuation.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Default configuration values for a new logger.
const (
	DefaultLevel     = slog.LevelInfo
	DefaultAddSource = false
	DefaultFormat    = FormatText
)

// Format selects the handler that renders log records.
type Format uint8

const (
	FormatText    Format = iota // Human-readable key=value pairs.
	FormatJSON                  // One JSON object per record.
	FormatDiscard               // Drop every record.
)

// String returns the lower-case name of the format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatDiscard:
		return "discard"
	default:
		return "text"
	}
}

// New creates a slog.Logger. Without options, it logs at slog.LevelInfo in
// text format to os.Stdout, without source positions.
func New(opts ...Option) *slog.Logger {
	c := config{
		level:     DefaultLevel,
		addSource: DefaultAddSource,
		format:    DefaultFormat,
		w:         os.Stdout,
	}
	for _, opt := range opts {
		opt(&c)
	}

	o := &slog.HandlerOptions{
		Level:     c.level,
		AddSource: c.addSource,
	}
	switch c.format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(c.w, o))
	case FormatDiscard:
		return slog.New(slog.DiscardHandler)
	default:
		return slog.New(slog.NewTextHandler(c.w, o))
	}
}

// Discard returns a logger that drops every record. It is handy for
// silencing container diagnostics in tests.
func Discard() *slog.Logger {
	return New(WithFormat(FormatDiscard))
}

type config struct {
	level     slog.Level
	addSource bool
	format    Format
	w         io.Writer
}

// Option modifies the logger configuration.
type Option func(*config)

// WithLevel sets the minimum level. It accepts a slog.Level or a string
// understood by ParseLevel. Invalid values are ignored.
func WithLevel(v any) Option {
	return func(c *config) {
		switch t := v.(type) {
		case slog.Level:
			c.level = t
		case string:
			if level, err := ParseLevel(t); err == nil {
				c.level = level
			}
		}
	}
}

// WithFormat sets the output format. It accepts a Format or a string
// understood by ParseFormat. Invalid values are ignored.
func WithFormat(v any) Option {
	return func(c *config) {
		switch t := v.(type) {
		case Format:
			c.format = t
		case string:
			if format, err := ParseFormat(t); err == nil {
				c.format = format
			}
		}
	}
}

// WithAddSource includes the source position of the logging call.
func WithAddSource(add bool) Option {
	return func(c *config) {
		c.addSource = add
	}
}

// WithWriter sets the destination of the log output. A nil writer is
// ignored.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.w = w
		}
	}
}

// Config is the serializable form of the logger options.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Source bool   `mapstructure:"source"`
}

// Validate reports whether the level and format can be parsed. Empty values
// fall back to the defaults and are valid.
func (c Config) Validate() error {
	if c.Level != "" {
		if _, err := ParseLevel(c.Level); err != nil {
			return err
		}
	}
	if c.Format != "" {
		if _, err := ParseFormat(c.Format); err != nil {
			return err
		}
	}
	return nil
}

// Options converts the configuration into logger options.
func (c Config) Options() []Option {
	return []Option{
		WithLevel(c.Level),
		WithFormat(c.Format),
		WithAddSource(c.Source),
	}
}

// ParseLevel converts a string into a slog.Level. It accepts anything
// produced by slog.Level.MarshalText, ignoring case, including offsets such
// as "error-8".
func ParseLevel(s string) (level slog.Level, err error) {
	if e := level.UnmarshalText([]byte(s)); e != nil {
		err = fmt.Errorf("invalid log level %q", s)
	}
	return
}

// ParseFormat converts a case-insensitive format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "discard":
		return FormatDiscard, nil
	default:
		return 0, fmt.Errorf("invalid log format %q", s)
	}
}
