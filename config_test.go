package fsmbind_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmbind"
	"github.com/dmitrymomot/fsmbind/pkg/config"
	"github.com/dmitrymomot/fsmbind/pkg/logger"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := fsmbind.LoadConfig(config.WithEnvironment(map[string]string{}))
		require.NoError(t, err)
		assert.Equal(t, fsmbind.DefaultConfig(), cfg)
	})

	t.Run("environment overrides", func(t *testing.T) {
		cfg, err := fsmbind.LoadConfig(config.WithEnvironment(map[string]string{
			"FSMBIND_MAX_SIZE":            "500",
			"FSMBIND_EXPIRE_AFTER_WRITE":  "1h",
			"FSMBIND_EXPIRE_AFTER_ACCESS": "0s",
			"FSMBIND_ENTITY_HEADER_NAME":  "X-Entity",
			"FSMBIND_CLEANUP_INTERVAL":    "30s",
			"FSMBIND_LOG_LEVEL":           "debug",
			"FSMBIND_LOG_FORMAT":          "text",
			"MAX_SIZE":                    "1",
		}))
		require.NoError(t, err)
		assert.Equal(t, fsmbind.Config{
			MaxSize:           500,
			ExpireAfterWrite:  time.Hour,
			ExpireAfterAccess: 0,
			EntityHeaderName:  "X-Entity",
			CleanupInterval:   30 * time.Second,
			Log:               logger.Config{Level: "debug", Format: logger.FormatText},
		}, cfg)
	})

	t.Run("env file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("FSMBIND_MAX_SIZE=42\nFSMBIND_ENTITY_HEADER_NAME=from-file\n"), 0o600))

		cfg, err := fsmbind.LoadConfig(
			config.WithEnvironment(map[string]string{"FSMBIND_ENTITY_HEADER_NAME": "from-env"}),
			config.WithEnvFiles(path),
		)
		require.NoError(t, err)
		assert.Equal(t, 42, cfg.MaxSize)
		assert.Equal(t, "from-env", cfg.EntityHeaderName)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := fsmbind.LoadConfig(config.WithEnvironment(map[string]string{"FSMBIND_MAX_SIZE": "0"}))
		require.ErrorIs(t, err, fsmbind.ErrInvalidConfig)

		_, err = fsmbind.LoadConfig(config.WithEnvironment(map[string]string{"FSMBIND_MAX_SIZE": "many"}))
		require.ErrorIs(t, err, config.ErrParsingConfig)

		_, err = fsmbind.LoadConfig(config.WithEnvironment(map[string]string{"FSMBIND_LOG_LEVEL": "loud"}))
		require.ErrorIs(t, err, fsmbind.ErrInvalidConfig)
		require.ErrorIs(t, err, logger.ErrInvalidLevel)
	})
}

func TestConfig_Options(t *testing.T) {
	cfg := fsmbind.DefaultConfig()
	cfg.MaxSize = 2

	svc := startService(t, fsmbind.FromStateMachine(twoStateFlow(t)),
		fsmbind.WithConfig(cfg),
		fsmbind.WithCleanupInterval(0),
		fsmbind.WithMaxSize(1),
	)

	for i := range 3 {
		_, err := svc.SendEvent(t.Context(), &Doc{ID: i}, E1)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, svc.Len())
	assert.EqualValues(t, 2, svc.Stats().Cache.SizeEvictions)
}

func TestConfig_Validate(t *testing.T) {
	cfg := fsmbind.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.CleanupInterval = -time.Second
	require.ErrorIs(t, cfg.Validate(), fsmbind.ErrInvalidConfig)

	cfg = fsmbind.DefaultConfig()
	cfg.Log.Format = "xml"
	require.ErrorIs(t, cfg.Validate(), logger.ErrInvalidFormat)

	_, err := fsmbind.New[*Doc](fsmbind.FromStateMachine(twoStateFlow(t)), fsmbind.WithConfig(cfg))
	require.ErrorIs(t, err, fsmbind.ErrInvalidConfig)
}

func TestNew_LoggerFromConfig(t *testing.T) {
	cfg := fsmbind.DefaultConfig()
	cfg.Log = logger.Config{Level: "error"}

	svc, err := fsmbind.New[*Doc](fsmbind.FromStateMachine(twoStateFlow(t)), fsmbind.WithConfig(cfg))
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
