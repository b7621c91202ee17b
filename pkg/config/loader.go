package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option tunes a single Load call.
type Option func(*loadOptions)

type loadOptions struct {
	prefix      string
	files       []string
	environment map[string]string
}

// WithPrefix prepends prefix to every env tag, e.g. "FSMBIND_".
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.prefix = prefix
	}
}

// WithEnvFiles reads variables from the given .env files. Variables already
// present in the environment take precedence over file values.
func WithEnvFiles(files ...string) Option {
	return func(o *loadOptions) {
		o.files = append(o.files, files...)
	}
}

// WithEnvironment replaces the process environment with vars for this call.
// Mostly useful in tests.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) {
		o.environment = maps.Clone(vars)
	}
}

// Load parses environment variables into v according to its `env` and
// `envDefault` field tags.
//
// Example:
//
//	type CacheConfig struct {
//		MaxSize int           `env:"MAX_SIZE" envDefault:"100"`
//		TTL     time.Duration `env:"TTL" envDefault:"10m"`
//	}
//
//	var cfg CacheConfig
//	err := config.Load(&cfg, config.WithPrefix("ORDERS_"))
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	environment, err := o.resolveEnvironment()
	if err != nil {
		return err
	}

	if err := env.ParseWithOptions(v, env.Options{
		Prefix:      o.prefix,
		Environment: environment,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// resolveEnvironment returns nil when env should read the process environment directly.
func (o *loadOptions) resolveEnvironment() (map[string]string, error) {
	if len(o.files) == 0 {
		return o.environment, nil
	}

	fromFiles, err := godotenv.Read(o.files...)
	if err != nil {
		return nil, errors.Join(ErrReadingEnvFile, err)
	}

	base := o.environment
	if base == nil {
		base = environMap()
	}

	merged := make(map[string]string, len(fromFiles)+len(base))
	maps.Copy(merged, fromFiles)
	maps.Copy(merged, base)
	return merged, nil
}

func environMap() map[string]string {
	vars := os.Environ()
	m := make(map[string]string, len(vars))
	for _, kv := range vars {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
