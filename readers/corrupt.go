package readers

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/subjective/datasets"
)

// CorruptSubjectConfig configures CorruptSubjectRawDatasetReader.
type CorruptSubjectConfig struct {
	// SelectedSubjects are the observers eligible for corruption. Required.
	SelectedSubjects []int
	// CorruptProbability is the chance each selected observer is corrupt.
	// nil means 1.0: every selected observer is corrupt.
	CorruptProbability *float64
	// Scale is the range corrupt ratings are drawn from. Zero means DefaultScale.
	Scale Scale
}

// CorruptSubjectRawDatasetReader replaces whole observer columns with
// uniform noise. Each selected observer is corrupt independently with
// probability CorruptProbability; the others are untouched.
//
// All corruption decisions are drawn before any replacement value, and a
// replacement value is drawn for every selected cell whether or not it is
// used. Under a fixed seed the corrupt set therefore only grows with the
// probability, and 0 reproduces the dataset exactly.
type CorruptSubjectRawDatasetReader struct {
	*RawDatasetReader
	SelectedSubjects   []int
	CorruptProbability float64

	corrupt []bool
}

// NewCorruptSubjectRawDatasetReader wraps ds. rng nil uses a time-seeded
// generator.
func NewCorruptSubjectRawDatasetReader(ds *datasets.Dataset, cfg CorruptSubjectConfig, rng *rand.Rand) (*CorruptSubjectRawDatasetReader, error) {
	base, err := NewRawDatasetReader(ds)
	if err != nil {
		return nil, err
	}
	selected, err := checkSubjects(cfg.SelectedSubjects, base.NumObservers())
	if err != nil {
		return nil, err
	}
	p := 1.0
	if cfg.CorruptProbability != nil {
		p = *cfg.CorruptProbability
	}
	if err := checkProbability("corrupt_probability", p); err != nil {
		return nil, err
	}
	scale := cfg.Scale.orDefault()
	if err := scale.validate(); err != nil {
		return nil, err
	}

	r := &CorruptSubjectRawDatasetReader{
		RawDatasetReader:   base,
		SelectedSubjects:   selected,
		CorruptProbability: p,
	}
	rng = orTimeSeeded(rng)
	base.derive = func(raw *mat.Dense) *mat.Dense {
		r.corrupt = make([]bool, len(selected))
		for k := range selected {
			r.corrupt[k] = rng.Float64() < p
		}
		u := scale.uniform(rng)
		n, _ := raw.Dims()
		for k, o := range selected {
			for i := 0; i < n; i++ {
				v := u.Rand()
				if r.corrupt[k] {
					raw.Set(i, o, v)
				}
			}
		}
		return raw
	}
	return r, nil
}

// CorruptSubjects returns the observers that were corrupted. It forces the
// matrix to be drawn.
func (r *CorruptSubjectRawDatasetReader) CorruptSubjects() []int {
	r.matrix()
	var out []int
	for k, o := range r.SelectedSubjects {
		if r.corrupt[k] {
			out = append(out, o)
		}
	}
	return out
}

// CorruptDataConfig configures CorruptDataRawDatasetReader.
type CorruptDataConfig struct {
	// CorruptProbability is required.
	CorruptProbability *float64
	// Scale is the range corrupt ratings are drawn from. Zero means DefaultScale.
	Scale Scale
}

// CorruptDataRawDatasetReader replaces individual ratings, rather than whole
// observers, with uniform noise with probability CorruptProbability.
type CorruptDataRawDatasetReader struct {
	*RawDatasetReader
	CorruptProbability float64
}

// NewCorruptDataRawDatasetReader wraps ds. rng nil uses a time-seeded
// generator.
func NewCorruptDataRawDatasetReader(ds *datasets.Dataset, cfg CorruptDataConfig, rng *rand.Rand) (*CorruptDataRawDatasetReader, error) {
	if cfg.CorruptProbability == nil {
		return nil, fmt.Errorf("%w: corrupt_probability", ErrMissingParameter)
	}
	p := *cfg.CorruptProbability
	if err := checkProbability("corrupt_probability", p); err != nil {
		return nil, err
	}
	scale := cfg.Scale.orDefault()
	if err := scale.validate(); err != nil {
		return nil, err
	}
	base, err := NewRawDatasetReader(ds)
	if err != nil {
		return nil, err
	}

	rng = orTimeSeeded(rng)
	base.derive = func(raw *mat.Dense) *mat.Dense {
		u := scale.uniform(rng)
		n, s := raw.Dims()
		for i := 0; i < n; i++ {
			for o := 0; o < s; o++ {
				hit := rng.Float64() < p
				v := u.Rand()
				if hit {
					raw.Set(i, o, v)
				}
			}
		}
		return raw
	}
	return &CorruptDataRawDatasetReader{RawDatasetReader: base, CorruptProbability: p}, nil
}
