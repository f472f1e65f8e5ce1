package readers

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/subjective/datasets"
)

// MissingDataConfig configures MissingDataRawDatasetReader.
type MissingDataConfig struct {
	// MissingProbability is required.
	MissingProbability *float64
}

// MissingDataRawDatasetReader blanks each rating to NaN independently with
// probability MissingProbability. Ratings that survive are unchanged.
type MissingDataRawDatasetReader struct {
	*RawDatasetReader
	MissingProbability float64
}

// NewMissingDataRawDatasetReader wraps ds. rng nil uses a time-seeded
// generator.
func NewMissingDataRawDatasetReader(ds *datasets.Dataset, cfg MissingDataConfig, rng *rand.Rand) (*MissingDataRawDatasetReader, error) {
	if cfg.MissingProbability == nil {
		return nil, fmt.Errorf("%w: missing_probability", ErrMissingParameter)
	}
	p := *cfg.MissingProbability
	if err := checkProbability("missing_probability", p); err != nil {
		return nil, err
	}
	base, err := NewRawDatasetReader(ds)
	if err != nil {
		return nil, err
	}

	rng = orTimeSeeded(rng)
	base.derive = func(raw *mat.Dense) *mat.Dense {
		n, s := raw.Dims()
		for i := 0; i < n; i++ {
			for o := 0; o < s; o++ {
				if rng.Float64() < p {
					raw.Set(i, o, math.NaN())
				}
			}
		}
		return raw
	}
	return &MissingDataRawDatasetReader{RawDatasetReader: base, MissingProbability: p}, nil
}
