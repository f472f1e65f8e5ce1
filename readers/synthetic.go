package readers

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Noofbiz/subjective/datasets"
)

// ScalePolicy controls how synthetic ratings are mapped onto the rating
// scale. The zero value leaves them continuous and unbounded.
type ScalePolicy struct {
	// Round rounds every rating to the nearest integer.
	Round bool

	// Clip clamps every rating to [Min, Max] after rounding.
	Clip bool
	Min  float64
	Max  float64
}

func (p ScalePolicy) apply(x float64) float64 {
	if p.Round {
		x = math.Round(x)
	}
	if p.Clip {
		x = clampFloat64(x, p.Min, p.Max)
	}
	return x
}

// SyntheticConfig holds the generative model parameters. Every vector is
// required.
type SyntheticConfig struct {
	// QualityScores is the true quality of each distorted video.
	QualityScores []float64
	// ObserverBias and ObserverInconsistency are per observer.
	ObserverBias          []float64
	ObserverInconsistency []float64
	// ContentBias and ContentAmbiguity are per content, in ContentIDs order.
	ContentBias      []float64
	ContentAmbiguity []float64

	Scale ScalePolicy
}

// SyntheticRawDatasetReader replaces the observed ratings with draws from
//
//	q[v] + b[o] + cb[c(v)] + ambiguity[c(v)]·N(0,1) + inconsistency[o]·N(0,1)
//
// where v is the distorted video, o the observer and c(v) its content.
type SyntheticRawDatasetReader struct {
	*RawDatasetReader
	cfg SyntheticConfig
}

// NewSyntheticRawDatasetReader validates cfg against ds. rng drives the noise
// terms; nil uses a time-seeded generator.
func NewSyntheticRawDatasetReader(ds *datasets.Dataset, cfg SyntheticConfig, rng *rand.Rand) (*SyntheticRawDatasetReader, error) {
	base, err := NewRawDatasetReader(ds)
	if err != nil {
		return nil, err
	}
	n, s, c := base.NumDisVideos(), base.NumObservers(), base.NumRefVideos()
	checks := []error{
		checkLen("quality_scores", cfg.QualityScores, n),
		checkLen("observer_bias", cfg.ObserverBias, s),
		checkLen("observer_inconsistency", cfg.ObserverInconsistency, s),
		checkLen("content_bias", cfg.ContentBias, c),
		checkLen("content_ambiguity", cfg.ContentAmbiguity, c),
	}
	for _, err := range checks {
		if err != nil {
			return nil, err
		}
	}
	for o, v := range cfg.ObserverInconsistency {
		if v < 0 {
			return nil, fmt.Errorf("%w: observer_inconsistency[%d] is negative", ErrInvalidConfig, o)
		}
	}
	for k, v := range cfg.ContentAmbiguity {
		if v < 0 {
			return nil, fmt.Errorf("%w: content_ambiguity[%d] is negative", ErrInvalidConfig, k)
		}
	}
	if cfg.Scale.Clip && !(cfg.Scale.Min <= cfg.Scale.Max) {
		return nil, fmt.Errorf("%w: clip range [%v, %v] is empty", ErrInvalidConfig, cfg.Scale.Min, cfg.Scale.Max)
	}

	r := &SyntheticRawDatasetReader{RawDatasetReader: base, cfg: cfg}
	rng = orTimeSeeded(rng)
	base.derive = func(*mat.Dense) *mat.Dense { return r.generate(rng) }
	return r, nil
}

func (r *SyntheticRawDatasetReader) generate(rng *rand.Rand) *mat.Dense {
	n, s := r.NumDisVideos(), r.NumObservers()
	content := r.ContentIndexOfDisVideos()
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	m := mat.NewDense(n, s, nil)
	for i := 0; i < n; i++ {
		c := content[i]
		for o := 0; o < s; o++ {
			x := r.cfg.QualityScores[i] + r.cfg.ObserverBias[o] + r.cfg.ContentBias[c] +
				r.cfg.ContentAmbiguity[c]*normal.Rand() +
				r.cfg.ObserverInconsistency[o]*normal.Rand()
			m.Set(i, o, r.cfg.Scale.apply(x))
		}
	}
	return m
}

// clampFloat64 clamps v to [minVal, maxVal].
func clampFloat64(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
