package config_test

import (
	"os"
	"testing"
	"time"

	"codeberg.org/mutker/greenland/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchLogLevel(t *testing.T) {
	path := writeConfig(t, `log_level = "warning"`)
	cfg, err := config.Load(config.WithConfigFile(path), config.WithArgs(nil))
	require.NoError(t, err)

	levels := make(chan config.LogLevel, 4)
	require.True(t, cfg.WatchLogLevel(func(l config.LogLevel) { levels <- l }))

	require.NoError(t, os.WriteFile(path, []byte(`log_level = "Debug"`), 0o600))

	select {
	case level := <-levels:
		assert.Equal(t, config.LogLevelDebug, level)
	case <-time.After(5 * time.Second):
		t.Fatal("log level change not observed")
	}
}

func TestWatchLogLevelPinnedByFlag(t *testing.T) {
	path := writeConfig(t, `log_level = "warning"`)
	cfg, err := config.Load(config.WithConfigFile(path), config.WithArgs([]string{"--debug"}))
	require.NoError(t, err)

	assert.False(t, cfg.WatchLogLevel(func(config.LogLevel) {}))
}
