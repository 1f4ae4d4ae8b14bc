package sim

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidConfig wraps every rejected configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidSpeed wraps a speed multiplier outside ValidSpeeds.
	ErrInvalidSpeed = errors.New("invalid speed multiplier")
)

// ValidSpeeds are the recognized speed multipliers.
var ValidSpeeds = []float64{0.5, 1, 2, 5, 10}

// IsValidSpeed returns true if m is one of ValidSpeeds.
func IsValidSpeed(m float64) bool {
	return slices.Contains(ValidSpeeds, m)
}

// Config groups the parameters of one production line.
// Durations are in simulation minutes.
type Config struct {
	MixDuration    int64   `yaml:"mix_duration" toml:"mix_duration" json:"mix_duration" envconfig:"MIX_DURATION" validate:"gt=0"`
	BakeDuration   int64   `yaml:"bake_duration" toml:"bake_duration" json:"bake_duration" envconfig:"BAKE_DURATION" validate:"gt=0"`
	PackDuration   int64   `yaml:"pack_duration" toml:"pack_duration" json:"pack_duration" envconfig:"PACK_DURATION" validate:"gt=0"`
	TransitDelay   int64   `yaml:"transit_delay" toml:"transit_delay" json:"transit_delay" envconfig:"TRANSIT_DELAY" validate:"gte=0"`
	BatchSizes     []int   `yaml:"batch_sizes" toml:"batch_sizes" json:"batch_sizes" envconfig:"BATCH_SIZES" validate:"min=1,dive,gt=0"`
	BaseIntervalMs int64   `yaml:"base_interval_ms" toml:"base_interval_ms" json:"base_interval_ms" envconfig:"BASE_INTERVAL_MS" validate:"gt=0"` // wall-clock time per minute at speed 1
	Speed          float64 `yaml:"speed" toml:"speed" json:"speed" envconfig:"SPEED" validate:"speed"`
}

// DefaultConfig returns the standard line: mix 10, bake 30, pack 5, one
// minute transit, three small and three large batches interleaved, one
// second per minute at speed 1.
func DefaultConfig() Config {
	return Config{
		MixDuration:    10,
		BakeDuration:   30,
		PackDuration:   5,
		TransitDelay:   1,
		BatchSizes:     []int{50, 100, 50, 100, 50, 100},
		BaseIntervalMs: 1000,
		Speed:          1,
	}
}

// BaseInterval returns the wall-clock duration of one minute at speed 1.
func (c Config) BaseInterval() time.Duration {
	return time.Duration(c.BaseIntervalMs) * time.Millisecond
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("speed", func(fl validator.FieldLevel) bool {
		return IsValidSpeed(fl.Field().Float())
	}); err != nil {
		panic(fmt.Sprintf("register speed validation: %v", err))
	}
	return v
}

// Validate checks every field. The returned error wraps ErrInvalidConfig,
// and also ErrInvalidSpeed when the speed is the offending field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	speedBad := false
	for _, fe := range verrs {
		if fe.Field() == "Speed" {
			speedBad = true
		}
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %q", fe.Namespace(), fe.Value(), fe.Tag()))
	}
	if speedBad {
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrInvalidSpeed, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// checkSpeed validates a single speed multiplier.
func checkSpeed(m float64) error {
	if !IsValidSpeed(m) {
		return fmt.Errorf("%w: %v (want one of %v)", ErrInvalidSpeed, m, ValidSpeeds)
	}
	return nil
}
