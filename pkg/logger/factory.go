package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the record encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// Config is the environment-facing logger configuration. An empty Level
// means the caller's default logger should be used instead of building one.
type Config struct {
	Level     string `env:"LEVEL"`  // debug, info, warn or error
	Format    Format `env:"FORMAT"` // json (default) or text
	AddSource bool   `env:"ADD_SOURCE"`
}

// Enabled reports whether cfg asks for a dedicated logger.
func (cfg Config) Enabled() bool {
	return cfg.Level != ""
}

// Validate checks Level and Format without building a logger.
func (cfg Config) Validate() error {
	if cfg.Level != "" {
		if _, err := ParseLevel(cfg.Level); err != nil {
			return err
		}
	}
	switch cfg.Format {
	case "", FormatJSON, FormatText:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Format)
	}
}

// ParseLevel accepts slog level names in any case, with optional offsets
// such as "debug-2" or "WARN+1".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return l, nil
}

// Option configures logger creation.
type Option func(*settings)

type settings struct {
	level      slog.Leveler
	format     Format
	output     io.Writer
	addSource  bool
	replace    func(groups []string, a slog.Attr) slog.Attr
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func WithLevel(l slog.Leveler) Option {
	return func(s *settings) {
		if l != nil {
			s.level = l
		}
	}
}

// WithFormat sets the output format.
// Panics for unknown formats so misconfiguration fails at startup.
func WithFormat(f Format) Option {
	return func(s *settings) {
		switch f {
		case FormatJSON, FormatText:
			s.format = f
		default:
			panic(fmt.Errorf("%w %q: must be %q or %q", ErrInvalidFormat, f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets the destination, ignoring nil writers.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithSource annotates records with the calling file and line.
func WithSource() Option {
	return func(s *settings) { s.addSource = true }
}

// WithReplaceAttr rewrites or drops attributes before they are encoded.
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(s *settings) { s.replace = fn }
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(s *settings) {
		s.attrs = append(s.attrs, attrs...)
	}
}

// WithContextExtractors registers functions that add attributes from the
// context of each record. Nil extractors are ignored.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(s *settings) {
		for _, ex := range extractors {
			if ex != nil {
				s.extractors = append(s.extractors, ex)
			}
		}
	}
}

// WithContextValue logs ctx.Value(key) under name whenever it is set, e.g.
// the request or tenant id driving an event.
func WithContextValue(name string, key any) Option {
	return func(s *settings) {
		if name == "" || key == nil {
			return
		}
		s.extractors = append(s.extractors, func(ctx context.Context) (slog.Attr, bool) {
			if v := ctx.Value(key); v != nil {
				return slog.Any(name, v), true
			}
			return slog.Attr{}, false
		})
	}
}

// WithDevelopment switches to text output at debug level and tags records
// with the component name.
func WithDevelopment(component string) Option {
	return func(s *settings) {
		s.level = slog.LevelDebug
		s.format = FormatText
		if component != "" {
			s.attrs = append(s.attrs, Component(component))
		}
	}
}

// New builds a logger writing JSON at info level to stdout unless options
// say otherwise.
func New(opts ...Option) *slog.Logger {
	s := &settings{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return slog.New(s.handler())
}

// NewFromConfig builds a logger from cfg. Options are applied after cfg, so
// they win on conflicts.
func NewFromConfig(cfg Config, opts ...Option) (*slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base []Option
	if cfg.Level != "" {
		level, _ := ParseLevel(cfg.Level)
		base = append(base, WithLevel(level))
	}
	if cfg.Format != "" {
		base = append(base, WithFormat(cfg.Format))
	}
	if cfg.AddSource {
		base = append(base, WithSource())
	}
	return New(append(base, opts...)...), nil
}

func (s *settings) handler() slog.Handler {
	hopts := &slog.HandlerOptions{
		Level:       s.level,
		AddSource:   s.addSource,
		ReplaceAttr: s.replace,
	}

	var h slog.Handler
	if s.format == FormatText {
		h = slog.NewTextHandler(s.output, hopts)
	} else {
		h = slog.NewJSONHandler(s.output, hopts)
	}
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	return NewContextHandler(h, s.extractors...)
}

// Nop returns a logger that discards every record.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
