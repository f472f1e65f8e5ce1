package simple

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MOS returns the mean opinion score of every row of scores and the
// population standard deviation around it. NaN ratings are skipped; a row
// with no ratings yields NaN for both.
func MOS(scores mat.Matrix) (mean, std []float64) {
	rows, cols := scores.Dims()
	mean = make([]float64, rows)
	std = make([]float64, rows)
	vals := make([]float64, 0, cols)
	for i := 0; i < rows; i++ {
		vals = vals[:0]
		for j := 0; j < cols; j++ {
			if x := scores.At(i, j); !math.IsNaN(x) {
				vals = append(vals, x)
			}
		}
		if len(vals) == 0 {
			mean[i], std[i] = math.NaN(), math.NaN()
			continue
		}
		mean[i], std[i] = stat.PopMeanStdDev(vals, nil)
	}
	return mean, std
}

// Config holds the Bradley-Terry solver settings.
type Config struct {
	// MaxIter bounds the number of MM sweeps (default if 0 will be set by
	// NewModel to 1000).
	MaxIter int

	// Tolerance stops the iteration once no log-score moves by more than it
	// in a sweep. Default: 1e-9.
	Tolerance float64

	// Prior adds this many pseudo-wins in each direction for every pair,
	// which keeps undefeated and winless assets finite and links contents
	// that were never compared. Zero fits the plain maximum-likelihood model.
	Prior float64
}

// WinCounter is the minimal interface this package requires from a
// paired-comparison source. readers.PairedCompDatasetReader satisfies it.
type WinCounter interface {
	WinCountMatrix() *mat.Dense
}

// Model is a Bradley-Terry paired-comparison model:
//
//	P(i preferred to j) = s[i] / (s[i] + s[j])
//
// fitted with the minorization-maximization iteration.
type Model struct {
	Config Config

	scores []float64
	iters  int
}

// ErrNotFitted is returned when scores are requested before Fit.
var ErrNotFitted = errors.New("model has not been fitted")

// NewModel creates a Model with cfg's zero fields set to defaults.
func NewModel(cfg Config) (*Model, error) {
	if cfg.MaxIter == 0 {
		cfg.MaxIter = 1000
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 1e-9
	}
	if cfg.MaxIter < 0 || cfg.Tolerance < 0 || cfg.Prior < 0 {
		return nil, fmt.Errorf("invalid bradley-terry config: %+v", cfg)
	}
	return &Model{Config: cfg}, nil
}

// FitDataset fits the model to ds's win counts.
func (m *Model) FitDataset(ds WinCounter) error {
	return m.Fit(ds.WinCountMatrix())
}

// Fit estimates one score per asset from wins, where wins(i, j) is the
// number of times i was preferred to j. Scores are normalized to a geometric
// mean of 1.
func (m *Model) Fit(wins *mat.Dense) error {
	n, c := wins.Dims()
	if n != c {
		return fmt.Errorf("win matrix must be square, got %dx%d", n, c)
	}
	if n == 0 {
		return errors.New("win matrix is empty")
	}
	prior := m.Config.Prior

	// w[i] is i's total wins, games[i][j] the comparisons between i and j.
	w := make([]float64, n)
	games := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			w[i] += wins.At(i, j) + prior
			games.Set(i, j, wins.At(i, j)+wins.At(j, i)+2*prior)
		}
	}

	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	m.iters = 0
	for m.iters < m.Config.MaxIter {
		m.iters++
		var delta float64
		for i := 0; i < n; i++ {
			var denom float64
			for j := 0; j < n; j++ {
				if g := games.At(i, j); g > 0 {
					denom += g / (s[i] + s[j])
				}
			}
			if denom == 0 {
				continue
			}
			next := w[i] / denom
			if d := math.Abs(math.Log(next) - math.Log(s[i])); d > delta || math.IsNaN(d) {
				delta = d
			}
			s[i] = next
		}
		normalize(s)
		if delta <= m.Config.Tolerance {
			break
		}
	}
	m.scores = s
	return nil
}

// normalize rescales the positive entries of s to a geometric mean of 1.
func normalize(s []float64) {
	var sum float64
	var k int
	for _, x := range s {
		if x > 0 && !math.IsInf(x, 0) {
			sum += math.Log(x)
			k++
		}
	}
	if k == 0 {
		return
	}
	g := math.Exp(sum / float64(k))
	for i := range s {
		s[i] /= g
	}
}

// Scores returns a copy of the fitted strengths.
func (m *Model) Scores() ([]float64, error) {
	if m.scores == nil {
		return nil, ErrNotFitted
	}
	return append([]float64(nil), m.scores...), nil
}

// LogScores returns the natural log of the fitted strengths, the scale on
// which score differences are log-odds.
func (m *Model) LogScores() ([]float64, error) {
	s, err := m.Scores()
	if err != nil {
		return nil, err
	}
	for i := range s {
		s[i] = math.Log(s[i])
	}
	return s, nil
}

// Iterations reports how many sweeps the last Fit ran.
func (m *Model) Iterations() int {
	return m.iters
}
