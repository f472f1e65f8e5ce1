package readers

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/subjective/datasets"
)

// PCType selects which pairs of distorted videos are compared.
type PCType string

const (
	// WithinSubjectWithinContent compares videos of the same content, rated
	// by the same observer.
	WithinSubjectWithinContent PCType = "within_subject_within_content"
	// WithinSubject compares every pair of videos rated by the same observer.
	WithinSubject PCType = "within_subject"
)

// TiebreakMethod resolves equal ratings.
type TiebreakMethod string

const (
	// EvenSplit records a tie as 0.5.
	EvenSplit TiebreakMethod = "even_split"
	// CoinToss records a tie as a fair draw of 0.0 or 1.0.
	CoinToss TiebreakMethod = "coin_toss"
)

// PCOptions configures ToPCDataset. The zero value compares within content
// with even-split ties, no injected randomness and no sampling.
type PCOptions struct {
	PCType         PCType
	TiebreakMethod TiebreakMethod

	// RandomnessLevel is the probability an outcome is replaced by a coin toss.
	RandomnessLevel float64

	// SamplingRate is the probability each (pair, observer) comparison is kept.
	// nil keeps all of them.
	SamplingRate *float64
	// PerAssetSamplingRates gives each distorted video a rate; a pair is kept
	// with the product of its two rates. Mutually exclusive with SamplingRate.
	PerAssetSamplingRates []float64

	// Rand drives tiebreaks, randomness and sampling. nil uses a time-seeded
	// generator.
	Rand *rand.Rand
}

func (o PCOptions) withDefaults() PCOptions {
	if o.PCType == "" {
		o.PCType = WithinSubjectWithinContent
	}
	if o.TiebreakMethod == "" {
		o.TiebreakMethod = EvenSplit
	}
	return o
}

func (o PCOptions) validate(numDisVideos int) error {
	switch o.PCType {
	case WithinSubjectWithinContent, WithinSubject:
	default:
		return fmt.Errorf("%w: unknown pc_type %q", ErrInvalidConfig, o.PCType)
	}
	switch o.TiebreakMethod {
	case EvenSplit, CoinToss:
	default:
		return fmt.Errorf("%w: unknown tiebreak_method %q", ErrInvalidConfig, o.TiebreakMethod)
	}
	if err := checkProbability("randomness_level", o.RandomnessLevel); err != nil {
		return err
	}
	if o.SamplingRate != nil && o.PerAssetSamplingRates != nil {
		return fmt.Errorf("%w: sampling_rate and per_asset_sampling_rates are mutually exclusive", ErrInvalidConfig)
	}
	if o.SamplingRate != nil {
		if err := checkProbability("sampling_rate", *o.SamplingRate); err != nil {
			return err
		}
	}
	if o.PerAssetSamplingRates != nil {
		if len(o.PerAssetSamplingRates) != numDisVideos {
			return fmt.Errorf("%w: %d per-asset sampling rates for %d videos",
				ErrInvalidConfig, len(o.PerAssetSamplingRates), numDisVideos)
		}
		for i, r := range o.PerAssetSamplingRates {
			if err := checkProbability(fmt.Sprintf("per_asset_sampling_rates[%d]", i), r); err != nil {
				return err
			}
		}
	}
	return nil
}

// rate returns the retention probability of the pair (i, j).
func (o PCOptions) rate(i, j int) float64 {
	switch {
	case o.SamplingRate != nil:
		return *o.SamplingRate
	case o.PerAssetSamplingRates != nil:
		return o.PerAssetSamplingRates[i] * o.PerAssetSamplingRates[j]
	}
	return 1
}

// ToPCDataset converts the reader's ratings to a paired-comparison dataset.
// For every selected pair i<j and every observer who rated both, an outcome
// is stored on DisVideos[i] with Opponent j.
func (r *RawDatasetReader) ToPCDataset(opts PCOptions) (*datasets.Dataset, error) {
	opts = opts.withDefaults()
	if err := opts.validate(r.NumDisVideos()); err != nil {
		return nil, err
	}
	rng := orTimeSeeded(opts.Rand)

	m := r.matrix()
	n, s := m.Dims()
	content := r.ContentIDOfDisVideos()

	out := r.ds.CloneHeader()
	out.Observers = r.observerNames()
	if out.Observers == nil {
		out.Observers = make([]string, s)
		for o := range out.Observers {
			out.Observers[o] = strconv.Itoa(o)
		}
	}
	out.DisVideos = make([]datasets.DisVideo, n)
	for i, v := range r.ds.DisVideos {
		out.DisVideos[i] = v.Descriptor()
	}

	var kept, dropped int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if opts.PCType == WithinSubjectWithinContent && content[i] != content[j] {
				continue
			}
			rate := opts.rate(i, j)
			for o := 0; o < s; o++ {
				score, ok := compare(m, i, j, o, opts.TiebreakMethod, rng)
				if !ok {
					continue
				}
				if opts.RandomnessLevel > 0 && rng.Float64() < opts.RandomnessLevel {
					score = coinToss(rng)
				}
				if rate < 1 && rng.Float64() >= rate {
					dropped++
					continue
				}
				out.DisVideos[i].PC = append(out.DisVideos[i].PC, datasets.PairedOutcome{
					Observer: o,
					Opponent: j,
					Score:    score,
				})
				kept++
			}
		}
	}

	slog.Debug("paired-comparison conversion",
		"pc_type", opts.PCType,
		"tiebreak", opts.TiebreakMethod,
		"outcomes", kept,
		"dropped", dropped)
	return out, nil
}

// compare scores video i against video j for observer o. ok is false when
// either rating is missing.
func compare(m *mat.Dense, i, j, o int, tiebreak TiebreakMethod, rng *rand.Rand) (score float64, ok bool) {
	a, b := m.At(i, o), m.At(j, o)
	if math.IsNaN(a) || math.IsNaN(b) {
		return 0, false
	}
	switch {
	case a > b:
		return 1, true
	case a < b:
		return 0, true
	}
	if tiebreak == CoinToss {
		return coinToss(rng), true
	}
	return 0.5, true
}
