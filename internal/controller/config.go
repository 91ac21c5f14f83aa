package controller

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config bounds and tunes the controller. Zero values are invalid; start
// from DefaultConfig.
type Config struct {
	InitialConcurrency int `mapstructure:"initial" validate:"gtefield=MinConcurrency,ltefield=MaxConcurrency"`
	MinConcurrency     int `mapstructure:"min" validate:"gt=0"`
	MaxConcurrency     int `mapstructure:"max" validate:"gtefield=MinConcurrency"`

	Step              int     `mapstructure:"step" validate:"gt=0"`
	IncreaseThreshold float64 `mapstructure:"increase_threshold" validate:"gte=1"`
	DecreaseThreshold float64 `mapstructure:"decrease_threshold" validate:"gt=0,lte=1"`
	BackoffFactor     float64 `mapstructure:"backoff_factor" validate:"gt=0,lt=1"`
	DecayFactor       float64 `mapstructure:"decay_factor" validate:"gt=0,lt=1"`

	// WriteTimeout bounds each write when positive. Timeouts count as errors.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
}

// DefaultConfig mirrors TCP slow-start style defaults: start at 8, never go
// below 8, cap at 128 to avoid socket exhaustion.
func DefaultConfig() Config {
	return Config{
		InitialConcurrency: 8,
		MinConcurrency:     8,
		MaxConcurrency:     128,
		Step:               4,
		IncreaseThreshold:  1.05,
		DecreaseThreshold:  0.90,
		BackoffFactor:      0.5,
		DecayFactor:        0.9,
	}
}

// Validate checks 0 < min <= initial <= max and the tuning ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) policy() Policy {
	return Policy{
		Min:               c.MinConcurrency,
		Max:               c.MaxConcurrency,
		Step:              c.Step,
		IncreaseThreshold: c.IncreaseThreshold,
		DecreaseThreshold: c.DecreaseThreshold,
		BackoffFactor:     c.BackoffFactor,
		DecayFactor:       c.DecayFactor,
	}
}
