package monte

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Noofbiz/subjective/readers"
)

// Factory builds one replicate of a simulation variant for parameter value
// param. rng is private to the replicate and must drive all of its draws.
type Factory func(param float64, rng *rand.Rand) (readers.Reader, error)

// Statistic reduces a replicate's rating matrix to a scalar.
type Statistic func(m *mat.Dense) float64

// DispersionStatistic is the mean per-video standard deviation across
// observers.
func DispersionStatistic(m *mat.Dense) float64 {
	return readers.MeanObserverDispersion(m)
}

// MissingFractionStatistic is the share of ratings that are NaN.
func MissingFractionStatistic(m *mat.Dense) float64 {
	r, c := m.Dims()
	return float64(readers.NaNCount(m)) / float64(r*c)
}

// MeanStatistic is the mean of all non-NaN ratings.
func MeanStatistic(m *mat.Dense) float64 {
	return readers.NaNMean(m)
}

// SweepPoint summarizes the replicates run at one parameter value.
type SweepPoint struct {
	Param float64

	// Mean and StdDev are over the non-NaN samples; StdDev is the unbiased
	// estimate and is NaN with fewer than two.
	Mean   float64
	StdDev float64

	// Samples holds one statistic per replicate, in replicate order.
	Samples []float64
}

// Monte runs seeded Monte Carlo sweeps over a simulation variant. Every
// replicate gets its own generator seeded from the master generator, so a
// sweep is reproducible for a fixed seed regardless of Workers.
type Monte struct {
	// Sims is the number of replicates per parameter value.
	Sims int

	// Workers bounds concurrent replicates. Zero means runtime.NumCPU().
	Workers int

	rng *rand.Rand
}

// NewMonte creates a Monte with sims replicates per parameter. seed 0 uses a
// time-based seed.
func NewMonte(seed uint64, sims int) (*Monte, error) {
	if sims < 1 {
		return nil, fmt.Errorf("sims must be >= 1, got %d", sims)
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Monte{
		Sims: sims,
		rng:  readers.NewRand(seed),
	}, nil
}

func (m *Monte) SetWorkers(n int) {
	if m == nil {
		return
	}
	m.Workers = n
}

func (m *Monte) SetSims(n int) {
	if m == nil {
		return
	}
	m.Sims = n
}

// Sweep runs Sims replicates of factory at every value in params and
// summarizes stat over each group. Points are returned in params order. The
// first factory error, in replicate order, aborts the sweep.
func (m *Monte) Sweep(params []float64, factory Factory, statistic Statistic) ([]SweepPoint, error) {
	if m == nil {
		return nil, errors.New("Monte object is nil")
	}
	if factory == nil || statistic == nil {
		return nil, errors.New("factory and statistic are required")
	}
	if m.Sims < 1 {
		return nil, fmt.Errorf("sims must be >= 1, got %d", m.Sims)
	}
	if len(params) == 0 {
		return nil, errors.New("no parameter values to sweep")
	}

	total := len(params) * m.Sims
	samples := make([]float64, total)
	errs := make([]error, total)

	// Precompute independent seeds using the master RNG (serial access).
	seeds := make([]uint64, total)
	for i := range seeds {
		seeds[i] = m.rng.Uint64()
	}

	workerCount := m.Workers
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	workerCount = min(workerCount, total)
	slog.Debug("monte carlo sweep",
		"params", len(params),
		"sims", m.Sims,
		"workers", workerCount)

	jobs := make(chan int, total)
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				param := params[job/m.Sims]
				r, err := factory(param, readers.NewRand(seeds[job]))
				if err != nil {
					errs[job] = fmt.Errorf("param %v replicate %d: %w", param, job%m.Sims, err)
					continue
				}
				samples[job] = statistic(r.OpinionScore2DArray())
			}
		}()
	}

	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	points := make([]SweepPoint, len(params))
	for p, param := range params {
		group := samples[p*m.Sims : (p+1)*m.Sims]
		mean, std := summarize(group)
		points[p] = SweepPoint{
			Param:   param,
			Mean:    mean,
			StdDev:  std,
			Samples: append([]float64(nil), group...),
		}
	}
	return points, nil
}

func summarize(samples []float64) (mean, std float64) {
	valid := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !math.IsNaN(s) {
			valid = append(valid, s)
		}
	}
	switch len(valid) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return valid[0], math.NaN()
	}
	return stat.MeanStdDev(valid, nil)
}
