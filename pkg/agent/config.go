package agent

import (
	"fmt"
	"time"

	"github.com/neuroplastio/plopp/internal/keys"
)

// Config is assembled from command-line flags, optionally on top of a YAML file.
type Config struct {
	// Device is an explicit evdev node. Empty means every device found in InputDir.
	Device   string `json:"device"`
	InputDir string `json:"inputDir"`

	Chip          string `json:"chip"`
	Pin           int    `json:"pin"`
	PulseLengthUs int64  `json:"pulseLengthUs"`
	DryRun        bool   `json:"dryRun"`

	StartInactive bool     `json:"startInactive"`
	NoDeadKeys    bool     `json:"noDeadKeys"`
	Combo         []string `json:"combo"`

	LogLevel string `json:"logLevel"`
	LogJSON  bool   `json:"logJson"`
}

func DefaultConfig() Config {
	return Config{
		InputDir:      "/dev/input",
		Chip:          "gpiochip0",
		Pin:           26,
		PulseLengthUs: 30000,
		Combo:         append([]string(nil), keys.DefaultComboNames...),
		LogLevel:      "info",
	}
}

func (c Config) PulseLength() time.Duration {
	return time.Duration(c.PulseLengthUs) * time.Microsecond
}

func (c Config) Validate() error {
	if c.PulseLengthUs <= 0 {
		return fmt.Errorf("pulse length must be positive, got %dus", c.PulseLengthUs)
	}
	if c.Pin < 0 {
		return fmt.Errorf("pin must not be negative, got %d", c.Pin)
	}
	if c.InputDir == "" {
		return fmt.Errorf("input directory must be set")
	}
	if _, err := keys.ParseCombo(c.Combo); err != nil {
		return fmt.Errorf("invalid activation combo: %w", err)
	}
	return nil
}
