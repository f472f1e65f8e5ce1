package readers

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/subjective/datasets"
)

// PairedCompDatasetReader reads a paired-comparison dataset, as produced by
// ToPCDataset, into an (N × N × S) preference tensor.
type PairedCompDatasetReader struct {
	catalog

	numObservers int
	scores       [][][]float64
}

// NewPairedCompDatasetReader validates the dataset structure and every
// outcome: opponents and observers in range, scores in [0,1]. An outcome is
// owned by the lower index of its pair, and each (pair, observer) appears at
// most once.
func NewPairedCompDatasetReader(ds *datasets.Dataset) (*PairedCompDatasetReader, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	n := len(ds.DisVideos)
	type key struct{ i, j, o int }
	seen := make(map[key]bool)
	maxObserver := -1
	for i, v := range ds.DisVideos {
		for k, pc := range v.PC {
			if pc.Opponent < 0 || pc.Opponent >= n || pc.Opponent == i {
				return nil, fmt.Errorf("%w: dis_videos[%d].pc[%d] has opponent %d", datasets.ErrInvalidDataset, i, k, pc.Opponent)
			}
			if pc.Opponent < i {
				return nil, fmt.Errorf("%w: dis_videos[%d].pc[%d] has lower-index opponent %d", datasets.ErrInvalidDataset, i, k, pc.Opponent)
			}
			if pc.Observer < 0 || (len(ds.Observers) > 0 && pc.Observer >= len(ds.Observers)) {
				return nil, fmt.Errorf("%w: dis_videos[%d].pc[%d] has observer %d", datasets.ErrInvalidDataset, i, k, pc.Observer)
			}
			if !(pc.Score >= 0 && pc.Score <= 1) {
				return nil, fmt.Errorf("%w: dis_videos[%d].pc[%d] has score %v", datasets.ErrInvalidDataset, i, k, pc.Score)
			}
			if seen[key{i, pc.Opponent, pc.Observer}] {
				return nil, fmt.Errorf("%w: dis_videos[%d].pc[%d] repeats observer %d against %d",
					datasets.ErrInvalidDataset, i, k, pc.Observer, pc.Opponent)
			}
			seen[key{i, pc.Opponent, pc.Observer}] = true
			maxObserver = max(maxObserver, pc.Observer)
		}
	}

	s := maxObserver + 1
	if len(ds.Observers) > 0 {
		s = len(ds.Observers)
	}
	slog.Debug("paired-comparison dataset reader",
		"dataset", ds.DatasetName,
		"dis_videos", n,
		"observers", s)
	return &PairedCompDatasetReader{catalog: catalog{ds: ds}, numObservers: s}, nil
}

// NumObservers returns len(Observers) when the dataset names them, otherwise
// one past the largest observer index seen in any outcome.
func (r *PairedCompDatasetReader) NumObservers() int {
	return r.numObservers
}

// OpinionScore3DArray returns a copy of the preference tensor T. T[i][j][o]
// is observer o's preference for i over j, in [0,1], and NaN where o never
// compared them. T[j][i][o] holds the complement.
func (r *PairedCompDatasetReader) OpinionScore3DArray() [][][]float64 {
	t := r.tensor()
	out := make([][][]float64, len(t))
	for i := range t {
		out[i] = make([][]float64, len(t[i]))
		for j := range t[i] {
			out[i][j] = append([]float64(nil), t[i][j]...)
		}
	}
	return out
}

func (r *PairedCompDatasetReader) tensor() [][][]float64 {
	if r.scores != nil {
		return r.scores
	}
	n, s := r.NumDisVideos(), r.numObservers
	t := make([][][]float64, n)
	for i := range t {
		t[i] = make([][]float64, n)
		for j := range t[i] {
			row := make([]float64, s)
			for o := range row {
				row[o] = math.NaN()
			}
			t[i][j] = row
		}
	}
	for i, v := range r.ds.DisVideos {
		for _, pc := range v.PC {
			t[i][pc.Opponent][pc.Observer] = pc.Score
			t[pc.Opponent][i][pc.Observer] = 1 - pc.Score
		}
	}
	r.scores = t
	return t
}

// Tensor exports the preference tensor as a float64 gomlx tensor of shape
// [N, N, S].
func (r *PairedCompDatasetReader) Tensor() *tensors.Tensor {
	return tensors.FromAnyValue(r.OpinionScore3DArray())
}

// WinCountMatrix sums the preference tensor over observers, skipping NaN.
// Entry (i, j) is the number of times i was preferred to j.
func (r *PairedCompDatasetReader) WinCountMatrix() *mat.Dense {
	t := r.tensor()
	n := len(t)
	w := mat.NewDense(n, n, nil)
	for i := range t {
		for j := range t[i] {
			var sum float64
			for _, x := range t[i][j] {
				if !math.IsNaN(x) {
					sum += x
				}
			}
			w.Set(i, j, sum)
		}
	}
	return w
}
