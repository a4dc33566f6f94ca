// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Library  LibraryConfig  `yaml:"library"`
	Audio    AudioConfig    `yaml:"audio"`
	Storage  StorageConfig  `yaml:"storage"`
	Playback PlaybackConfig `yaml:"playback"`
	Log      LogConfig      `yaml:"log"`
}

// LibraryConfig controls scanning and watching of music folders.
type LibraryConfig struct {
	// Roots are the folders scanned for audio files
	Roots []string `yaml:"roots"`

	// Watch enables filesystem watching for automatic rescans
	Watch *bool `yaml:"watch" default:"true"`
}

// AudioConfig selects and tunes the playback engine.
type AudioConfig struct {
	// Engine selects the playback backend
	Engine string `yaml:"engine" default:"beep" validate:"oneof=beep mock"`

	// SampleRate is the output sample rate in Hz
	SampleRate int `yaml:"sample_rate" default:"44100" validate:"gt=0"`
}

// StorageConfig locates the statistics database.
type StorageConfig struct {
	// Path is the SQLite database file
	Path string `yaml:"path" default:"tonearm.db"`
}

// PlaybackConfig holds initial playback settings.
type PlaybackConfig struct {
	// Volume is the startup volume
	Volume float64 `yaml:"volume" default:"0.8" validate:"gte=0,lte=1"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR
	Level string `yaml:"level" default:"INFO" validate:"oneof=DEBUG INFO WARN WARNING ERROR"`

	// Format is "text" or "json"
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// WatchEnabled reports whether library watching is on (default true).
func (c LibraryConfig) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// Default returns the configuration with all defaults applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	cfg.overrideFromEnv()
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads, defaults, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	cfg.overrideFromEnv()
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideFromEnv applies environment overrides on top of file values.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TONEARM_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("TONEARM_AUDIO_ENGINE"); v != "" {
		c.Audio.Engine = v
	}
	if v := os.Getenv("TONEARM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
