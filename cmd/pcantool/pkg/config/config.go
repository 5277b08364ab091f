// Package config holds pcantool settings. Values are layered: built-in
// defaults, then the YAML file, then PCAN_* environment variables.
// Command line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/roffe/pcan/pkg/pcanbasic"
	"gopkg.in/yaml.v2"
)

// DefaultFile is read when no file is given and it exists.
const DefaultFile = "pcantool.yaml"

type Config struct {
	Library    string     `yaml:"library" env:"PCAN_LIBRARY"`
	Channel    string     `yaml:"channel" env:"PCAN_CHANNEL"`
	// Bitrate zero keeps the library default timing, BTR0BTR1 0x033A.
	Bitrate    int        `yaml:"bitrate" env:"PCAN_BITRATE"`
	Log        Log        `yaml:"log"`
	Bootloader Bootloader `yaml:"bootloader"`
}

type Log struct {
	File       string `yaml:"file" env:"PCAN_LOG_FILE"`
	MaxSizeMB  int    `yaml:"maxSizeMB" env:"PCAN_LOG_MAX_SIZE"`
	MaxBackups int    `yaml:"maxBackups" env:"PCAN_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"maxAgeDays" env:"PCAN_LOG_MAX_AGE"`
	Debug      bool   `yaml:"debug" env:"PCAN_DEBUG"`
}

type Bootloader struct {
	// Address is decimal in the environment, YAML also takes 0x notation.
	Address      uint32 `yaml:"address" env:"PCAN_FW_ADDRESS"`
	TimeoutMs    int    `yaml:"timeoutMs" env:"PCAN_FW_TIMEOUT_MS"`
	SyncAttempts uint   `yaml:"syncAttempts" env:"PCAN_FW_SYNC_ATTEMPTS"`
}

func Default() *Config {
	return &Config{
		Library: pcanbasic.DefaultLibrary,
		Channel: "PCAN_USBBUS1",
		Log: Log{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Bootloader: Bootloader{
			Address:      0x08000000,
			TimeoutMs:    1000,
			SyncAttempts: 5,
		},
	}
}

// Load builds the configuration. An empty filename reads DefaultFile if it
// exists, a named file must exist. The result is not validated, callers
// apply their own overrides first and then call Validate.
func Load(filename string) (*Config, error) {
	cfg := Default()
	switch {
	case filename != "":
		if err := loadFromFile(cfg, filename); err != nil {
			return nil, fmt.Errorf("config %s: %w", filename, err)
		}
	default:
		if err := loadFromFile(cfg, DefaultFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", DefaultFile, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks the channel name and bit rate.
func (c *Config) Validate() error {
	if _, err := pcanbasic.ParseHandle(c.Channel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Bitrate != 0 {
		if _, err := pcanbasic.BaudrateFor(c.Bitrate); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.Bootloader.TimeoutMs <= 0 {
		return fmt.Errorf("config: bootloader timeout must be positive")
	}
	return nil
}

// Handle returns the parsed channel.
func (c *Config) Handle() pcanbasic.Handle {
	h, _ := pcanbasic.ParseHandle(c.Channel)
	return h
}
