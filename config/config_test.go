package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaults verifies defaults apply without any variables
func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AudioEnabled)
	assert.Equal(t, AudioBackendSim, cfg.AudioBackend)
	assert.Equal(t, 1.0, cfg.MasterVolume)
	assert.Equal(t, 32, cfg.AudioPoolMax)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, SaveBackendFile, cfg.SaveBackend)
	assert.Equal(t, "./saves", cfg.SaveDir)
}

// TestLoadFromOverrides verifies prefixed variables override defaults
func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SPOOK_LOG_LEVEL":      "debug",
		"SPOOK_AUDIO_POOL_MAX": "4",
		"SPOOK_SAVE_BACKEND":   "sqlite",
		"SPOOK_TICK_RATE":      "50",
		"SPOOK_GAME_NAME":      "Haunt",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.AudioPoolMax)
	assert.Equal(t, SaveBackendSQLite, cfg.SaveBackend)
	assert.Equal(t, "Haunt", cfg.GameName)
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval())
}

// TestLoadFromClamps verifies out-of-range values are normalized
func TestLoadFromClamps(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SPOOK_MASTER_VOLUME": "3.5",
		"SPOOK_AUDIO_BACKEND": "pulse",
		"SPOOK_TICK_RATE":     "0",
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.MasterVolume)
	assert.Equal(t, AudioBackendSim, cfg.AudioBackend)
	assert.Equal(t, 60, cfg.TickRate)
}

// TestLoadFromInvalid verifies malformed values surface as errors
func TestLoadFromInvalid(t *testing.T) {
	_, err := LoadFrom(map[string]string{"SPOOK_AUDIO_POOL_MAX": "lots"})
	assert.Error(t, err)
}
