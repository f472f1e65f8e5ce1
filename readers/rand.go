package readers

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// NewRand returns a generator seeded with seed. Readers never share a
// generator implicitly; callers that want reproducible draws pass one of
// these to every randomized constructor.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// orTimeSeeded returns rng, or a fresh time-seeded generator when rng is nil.
func orTimeSeeded(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return NewRand(uint64(time.Now().UnixNano()))
}

// Scale is the closed range of the rating scale. Corrupted ratings are drawn
// uniformly from it.
type Scale struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// DefaultScale is the five-point absolute category rating scale.
var DefaultScale = Scale{Min: 1, Max: 5}

// orDefault returns DefaultScale for the zero value.
func (s Scale) orDefault() Scale {
	if s == (Scale{}) {
		return DefaultScale
	}
	return s
}

func (s Scale) validate() error {
	if !(s.Min < s.Max) {
		return fmt.Errorf("%w: scale min %v must be below max %v", ErrInvalidConfig, s.Min, s.Max)
	}
	return nil
}

func (s Scale) uniform(rng *rand.Rand) distuv.Uniform {
	return distuv.Uniform{Min: s.Min, Max: s.Max, Src: rng}
}

// coinToss returns 1.0 or 0.0 with equal probability.
func coinToss(rng *rand.Rand) float64 {
	if rng.IntN(2) == 1 {
		return 1.0
	}
	return 0.0
}
