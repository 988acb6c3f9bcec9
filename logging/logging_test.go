package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/spook/config"
)

// TestLevelFiltering verifies the configured level drops lower entries
func TestLevelFiltering(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	log := NewWriter(cfg, &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("module", "audio").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"module":"audio"`)
}

// TestInvalidLevelFallsBack verifies unknown levels fall back to info
func TestInvalidLevelFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "chatty"

	var buf bytes.Buffer
	log := NewWriter(cfg, &buf)
	log.Debug().Msg("debug")
	log.Info().Msg("info")

	assert.NotContains(t, buf.String(), `"debug"`)
	assert.Contains(t, buf.String(), `"message":"info"`)
}
