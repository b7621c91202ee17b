package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmbind/pkg/config"
)

type TestConfig struct {
	MaxSize    int           `env:"MAX_SIZE" envDefault:"100"`
	HeaderName string        `env:"HEADER_NAME" envDefault:"HEADER"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10m"`
}

type RequiredConfig struct {
	Required string `env:"REQUIRED_VALUE,required"`
}

func TestLoad_DefaultValues(t *testing.T) {
	var cfg TestConfig
	err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))

	require.NoError(t, err)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, "HEADER", cfg.HeaderName)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
}

func TestLoad_ProcessEnvironmentWithPrefix(t *testing.T) {
	t.Setenv("CFGTEST_MAX_SIZE", "7")
	t.Setenv("CFGTEST_TIMEOUT", "1s")
	t.Setenv("MAX_SIZE", "999")

	var cfg TestConfig
	require.NoError(t, config.Load(&cfg, config.WithPrefix("CFGTEST_")))

	assert.Equal(t, 7, cfg.MaxSize)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, "HEADER", cfg.HeaderName)
}

func TestLoad_ExplicitEnvironment(t *testing.T) {
	var cfg TestConfig
	err := config.Load(&cfg,
		config.WithPrefix("X_"),
		config.WithEnvironment(map[string]string{"X_HEADER_NAME": "custom"}),
	)

	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.HeaderName)
}

func TestLoad_EnvFiles(t *testing.T) {
	t.Run("file values apply", func(t *testing.T) {
		var cfg TestConfig
		err := config.Load(&cfg,
			config.WithPrefix("APP_"),
			config.WithEnvFiles("testdata/binding.env"),
			config.WithEnvironment(map[string]string{}),
		)

		require.NoError(t, err)
		assert.Equal(t, 250, cfg.MaxSize)
		assert.Equal(t, "from file", cfg.HeaderName)
		assert.Equal(t, 90*time.Second, cfg.Timeout)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		var cfg TestConfig
		err := config.Load(&cfg,
			config.WithPrefix("APP_"),
			config.WithEnvFiles("testdata/binding.env"),
			config.WithEnvironment(map[string]string{"APP_MAX_SIZE": "3"}),
		)

		require.NoError(t, err)
		assert.Equal(t, 3, cfg.MaxSize)
	})

	t.Run("missing file", func(t *testing.T) {
		var cfg TestConfig
		err := config.Load(&cfg, config.WithEnvFiles("testdata/missing.env"))
		assert.ErrorIs(t, err, config.ErrReadingEnvFile)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		var cfg RequiredConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("invalid value", func(t *testing.T) {
		var cfg TestConfig
		err := config.Load(&cfg, config.WithEnvironment(map[string]string{"MAX_SIZE": "many"}))
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *TestConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("must load panics", func(t *testing.T) {
		var cfg RequiredConfig
		assert.Panics(t, func() {
			config.MustLoad(&cfg, config.WithEnvironment(map[string]string{}))
		})
	})
}
