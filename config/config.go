// Package config loads process configuration from SPOOK_* environment variables
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// Backend names accepted by AudioBackend
const (
	AudioBackendSim  = "sim"
	AudioBackendBeep = "beep"
)

// Store names accepted by SaveBackend
const (
	SaveBackendFile   = "file"
	SaveBackendSQLite = "sqlite"
)

// Config is the full process configuration
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	AudioEnabled    bool    `env:"AUDIO_ENABLED" envDefault:"true"`
	AudioBackend    string  `env:"AUDIO_BACKEND" envDefault:"sim"`
	MasterVolume    float64 `env:"MASTER_VOLUME" envDefault:"1.0"`
	AudioSampleRate int     `env:"AUDIO_SAMPLE_RATE" envDefault:"48000"`
	AudioPoolMax    int     `env:"AUDIO_POOL_MAX" envDefault:"32"`
	AudioManifest   string  `env:"AUDIO_MANIFEST_DIR"`
	AudioClipDir    string  `env:"AUDIO_CLIP_DIR"`

	TickRate int `env:"TICK_RATE" envDefault:"60"`

	SaveDir     string `env:"SAVE_DIR" envDefault:"./saves"`
	SaveBackend string `env:"SAVE_BACKEND" envDefault:"file"`
	GameName    string `env:"GAME_NAME" envDefault:"Spook Game"`
	SaveVersion int    `env:"SAVE_VERSION" envDefault:"1"`
}

// Default returns the configuration with every default applied and no env read
func Default() *Config {
	cfg := &Config{}
	// Defaults only; parsing an empty environment cannot fail
	_ = env.ParseWithOptions(cfg, env.Options{Prefix: "SPOOK_", Environment: map[string]string{}})
	return cfg
}

// Load parses SPOOK_* variables from the process environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "SPOOK_"}); err != nil {
		return nil, eris.Wrap(err, "parse env")
	}
	cfg.normalize()
	return cfg, nil
}

// LoadFrom parses configuration from the given variables instead of the process environment
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "SPOOK_", Environment: vars}); err != nil {
		return nil, eris.Wrap(err, "parse env")
	}
	cfg.normalize()
	return cfg, nil
}

// normalize clamps values into their valid ranges
func (c *Config) normalize() {
	if c.MasterVolume < 0 {
		c.MasterVolume = 0
	} else if c.MasterVolume > 1 {
		c.MasterVolume = 1
	}
	if c.AudioPoolMax < 0 {
		c.AudioPoolMax = 0
	}
	if c.TickRate <= 0 {
		c.TickRate = 60
	}
	if c.AudioSampleRate <= 0 {
		c.AudioSampleRate = 48000
	}
	switch c.AudioBackend {
	case AudioBackendSim, AudioBackendBeep:
	default:
		c.AudioBackend = AudioBackendSim
	}
	switch c.SaveBackend {
	case SaveBackendFile, SaveBackendSQLite:
	default:
		c.SaveBackend = SaveBackendFile
	}
}

// TickInterval returns the frame duration for TickRate
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
