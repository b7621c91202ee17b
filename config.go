package fsmbind

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fsmbind/pkg/config"
	"github.com/dmitrymomot/fsmbind/pkg/logger"
)

// DefaultEntityHeaderName is the message header carrying the entity reference.
const DefaultEntityHeaderName = "OBJ_REFERENCE_HEADER_NAME"

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "FSMBIND_"

// Config holds the binding cache and message settings.
type Config struct {
	// MaxSize bounds the number of live bindings.
	MaxSize int `env:"MAX_SIZE" envDefault:"100"`
	// ExpireAfterWrite evicts a binding this long after it was created.
	// Zero disables write expiry.
	ExpireAfterWrite time.Duration `env:"EXPIRE_AFTER_WRITE" envDefault:"10m"`
	// ExpireAfterAccess evicts a binding this long after its last event.
	// Zero disables access expiry.
	ExpireAfterAccess time.Duration `env:"EXPIRE_AFTER_ACCESS" envDefault:"10m"`
	// EntityHeaderName names the header the entity is attached under.
	// Empty disables the header.
	EntityHeaderName string `env:"ENTITY_HEADER_NAME" envDefault:"OBJ_REFERENCE_HEADER_NAME"`
	// CleanupInterval is how often expired bindings are swept while the
	// service runs. Zero disables the sweep; expiry still happens lazily.
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`
	// Log builds the service logger from FSMBIND_LOG_* when no logger is
	// passed with WithLogger. Left empty, slog.Default is used.
	Log logger.Config `envPrefix:"LOG_"`
}

// DefaultConfig returns the built-in defaults without reading the environment.
func DefaultConfig() Config {
	return Config{
		MaxSize:           100,
		ExpireAfterWrite:  10 * time.Minute,
		ExpireAfterAccess: 10 * time.Minute,
		EntityHeaderName:  DefaultEntityHeaderName,
		CleanupInterval:   time.Minute,
	}
}

// LoadConfig reads Config from FSMBIND_* environment variables.
// Extra options may add .env files or replace the environment.
func LoadConfig(opts ...config.Option) (Config, error) {
	var cfg Config
	opts = append([]config.Option{config.WithPrefix(EnvPrefix)}, opts...)
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot run with.
func (c Config) Validate() error {
	if c.MaxSize <= 0 {
		return fmt.Errorf("%w: max size must be positive, got %d", ErrInvalidConfig, c.MaxSize)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("%w: cleanup interval must not be negative, got %s", ErrInvalidConfig, c.CleanupInterval)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Option configures a Service.
type Option func(*options)

type options struct {
	cfg      Config
	logger   *slog.Logger
	observer any
	accessor any
	stateTag string
	now      func() time.Time
	newID    func() string
	binders  []Binder
}

// WithConfig replaces every Config setting. Later options still override single fields.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

func WithMaxSize(size int) Option {
	return func(o *options) {
		o.cfg.MaxSize = size
	}
}

func WithExpireAfterWrite(d time.Duration) Option {
	return func(o *options) {
		o.cfg.ExpireAfterWrite = d
	}
}

func WithExpireAfterAccess(d time.Duration) Option {
	return func(o *options) {
		o.cfg.ExpireAfterAccess = d
	}
}

// WithEntityHeaderName sets the header the entity is attached under. Empty disables it.
func WithEntityHeaderName(name string) Option {
	return func(o *options) {
		o.cfg.EntityHeaderName = name
	}
}

func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cfg.CleanupInterval = d
	}
}

// WithLogger sets the service logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithObserver registers an observer for binding lifecycle callbacks.
// Its type parameters must match the service's.
func WithObserver[O comparable, S, E comparable](obs Observer[O, S, E]) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithAccessor replaces the tag-based field accessor, e.g. for entities that
// are not pointers to structs. Its type parameters must match the service's.
func WithAccessor[O any, S comparable](a Accessor[O, S]) Option {
	return func(o *options) {
		if a != nil {
			o.accessor = a
		}
	}
}

// WithStateTag changes the struct tag key the default accessor looks for.
func WithStateTag(key string) Option {
	return func(o *options) {
		o.stateTag = key
	}
}

// WithClock overrides the time source used for binding expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides how machine identifiers are generated.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithAdapters injects the service into actions and guards built with
// NewAction and NewGuard.
func WithAdapters(binders ...Binder) Option {
	return func(o *options) {
		for _, b := range binders {
			if b != nil {
				o.binders = append(o.binders, b)
			}
		}
	}
}
