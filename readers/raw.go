package readers

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/subjective/datasets"
)

// This file holds the base reader: it exposes a rating dataset as a dense
// (distorted video × observer) matrix and implements the structural
// conversions every variant inherits by embedding.
//
// Variants differ only in how the matrix is derived. A variant installs a
// derive function that receives the dataset's raw matrix and returns its own;
// the result is computed on first access and memoized, so a randomized
// variant draws exactly once per reader instance.

// Reader is the view every raw reader and simulation variant provides.
type Reader interface {
	Dataset() *datasets.Dataset
	NumRefVideos() int
	NumDisVideos() int
	NumObservers() int
	OpinionScore2DArray() *mat.Dense
	ContentIDOfDisVideos() []int
	DisVideoIsRefVideo() []bool
	RefScore() float64
	ToDataset() *datasets.Dataset
	ToPCDataset(opts PCOptions) (*datasets.Dataset, error)
}

// RawDatasetReader wraps a rating dataset.
type RawDatasetReader struct {
	catalog

	// derive maps the raw matrix to this reader's matrix. nil means identity.
	derive func(raw *mat.Dense) *mat.Dense

	// observers, when non-nil, restricts the observer axis to these columns
	// of the dataset, in this order.
	observers []int

	scores *mat.Dense
}

var _ Reader = (*RawDatasetReader)(nil)

// NewRawDatasetReader validates ds and wraps it. Every distorted video must
// carry an opinion-score vector.
func NewRawDatasetReader(ds *datasets.Dataset) (*RawDatasetReader, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if !ds.HasOpinionScores() {
		return nil, fmt.Errorf("%w: every dis_video needs an os vector", datasets.ErrInvalidDataset)
	}
	slog.Debug("raw dataset reader",
		"dataset", ds.DatasetName,
		"dis_videos", len(ds.DisVideos),
		"observers", ds.NumObservers())
	return &RawDatasetReader{catalog: catalog{ds: ds}}, nil
}

// NumObservers returns the number of matrix columns.
func (r *RawDatasetReader) NumObservers() int {
	if r.observers != nil {
		return len(r.observers)
	}
	return r.ds.NumObservers()
}

// OpinionScore2DArray returns a copy of the rating matrix: rows are
// distorted videos in dataset order, columns are observers, NaN marks a
// missing rating.
func (r *RawDatasetReader) OpinionScore2DArray() *mat.Dense {
	return mat.DenseCopyOf(r.matrix())
}

// matrix returns the memoized matrix without copying.
func (r *RawDatasetReader) matrix() *mat.Dense {
	if r.scores == nil {
		raw := rawMatrix(r.ds)
		if r.derive != nil {
			raw = r.derive(raw)
		}
		r.scores = raw
	}
	return r.scores
}

func rawMatrix(ds *datasets.Dataset) *mat.Dense {
	n, s := len(ds.DisVideos), ds.NumObservers()
	m := mat.NewDense(n, s, nil)
	for i, v := range ds.DisVideos {
		m.SetRow(i, v.OS)
	}
	return m
}

// observerNames returns names for the reader's observer axis, or nil when
// the dataset has none.
func (r *RawDatasetReader) observerNames() []string {
	if len(r.ds.Observers) == 0 {
		return nil
	}
	if r.observers == nil {
		return append([]string(nil), r.ds.Observers...)
	}
	names := make([]string, len(r.observers))
	for i, o := range r.observers {
		names[i] = r.ds.Observers[o]
	}
	return names
}

// ToDataset materializes the reader's matrix into a new dataset with the same
// references and distorted-video descriptors.
func (r *RawDatasetReader) ToDataset() *datasets.Dataset {
	m := r.matrix()
	out := r.ds.CloneHeader()
	out.Observers = r.observerNames()
	out.DisVideos = make([]datasets.DisVideo, len(r.ds.DisVideos))
	for i, v := range r.ds.DisVideos {
		d := v.Descriptor()
		d.OS = mat.Row(nil, i, m)
		out.DisVideos[i] = d
	}
	return out
}

// ToPersubjectDataset expands a (NumDisVideos × NumObservers) score matrix
// into one distorted-video entry per cell. Each entry keeps its video's
// content id, asset id and path and carries the cell value both as a
// one-element OS vector and as Groundtruth, so the result can be wrapped by
// a reader again.
func (r *RawDatasetReader) ToPersubjectDataset(scores mat.Matrix) (*datasets.Dataset, error) {
	n, s := r.NumDisVideos(), r.NumObservers()
	if scores == nil {
		return nil, fmt.Errorf("%w: score matrix is nil, expected %dx%d", ErrDimensionMismatch, n, s)
	}
	rows, cols := scores.Dims()
	if rows != n || cols != s {
		return nil, fmt.Errorf("%w: score matrix is %dx%d, expected %dx%d", ErrDimensionMismatch, rows, cols, n, s)
	}

	out := r.ds.CloneHeader()
	out.Observers = nil
	out.DisVideos = make([]datasets.DisVideo, 0, n*s)
	for i, v := range r.ds.DisVideos {
		for j := 0; j < s; j++ {
			x := scores.At(i, j)
			d := v.Descriptor()
			d.OS = []float64{x}
			d.Groundtruth = datasets.Float(x)
			out.DisVideos = append(out.DisVideos, d)
		}
	}
	return out, nil
}

// ToAggregatedDataset returns a dataset with one entry per distorted video
// whose Groundtruth is the aggregate score. stds may be nil; otherwise it
// fills GroundtruthStd. Opinion scores are dropped.
func (r *RawDatasetReader) ToAggregatedDataset(scores, stds []float64) (*datasets.Dataset, error) {
	n := r.NumDisVideos()
	if len(scores) != n {
		return nil, fmt.Errorf("%w: %d aggregate scores for %d videos", ErrDimensionMismatch, len(scores), n)
	}
	if stds != nil && len(stds) != n {
		return nil, fmt.Errorf("%w: %d score stds for %d videos", ErrDimensionMismatch, len(stds), n)
	}

	out := r.ds.CloneHeader()
	out.Observers = nil
	out.DisVideos = make([]datasets.DisVideo, n)
	for i, v := range r.ds.DisVideos {
		d := v.Descriptor()
		d.Groundtruth = datasets.Float(scores[i])
		if stds != nil && !math.IsNaN(stds[i]) {
			d.GroundtruthStd = datasets.Float(stds[i])
		}
		out.DisVideos[i] = d
	}
	return out, nil
}
