package sensor

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/itohio/embsim/pkg/config"
)

// Reading is a 12-bit sensor value (0-4095).
type Reading uint16

// MaxReading is the largest 12-bit value.
const MaxReading = 4095

const (
	noiseSteps = 201 // -100..100 half-units
	noiseUnit  = 0.5
)

// ErrNegativeElapsed is returned when a sample is requested before time zero.
var ErrNegativeElapsed = errors.New("sensor: negative elapsed time")

// Noise is a source of uniformly distributed integers in [0, n).
// *rand.Rand satisfies it.
type Noise interface {
	Intn(n int) int
}

// Simulator generates a noisy sine wave scaled to the 12-bit range.
type Simulator struct {
	cfg   *config.SignalConfig
	noise Noise
}

// NewSimulator creates a simulator. A nil cfg uses the default signal; a nil
// noise source is seeded from cfg.Seed, or from the wall clock if the seed is 0.
func NewSimulator(cfg *config.SignalConfig, noise Noise) *Simulator {
	if cfg == nil {
		cfg = &config.Default().Signal
	}
	if noise == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		noise = rand.New(rand.NewSource(seed))
	}

	return &Simulator{
		cfg:   cfg,
		noise: noise,
	}
}

// Sample returns the reading at the given elapsed time.
// Each call draws one noise value in [-50, 50] in half-unit steps.
func (s *Simulator) Sample(elapsed time.Duration) (Reading, error) {
	if elapsed < 0 {
		return 0, fmt.Errorf("%w: %v", ErrNegativeElapsed, elapsed)
	}

	t := elapsed.Seconds()
	v := 0.5 * (1.0 + math.Sin(2.0*math.Pi*s.cfg.FrequencyHz*t)) // 0..1

	adc := v * MaxReading
	adc += float64(s.noise.Intn(noiseSteps)-noiseSteps/2) * noiseUnit

	if adc < 0 {
		adc = 0
	} else if adc > MaxReading {
		adc = MaxReading
	}

	return Reading(adc), nil
}
