package readers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/subjective/datasets"
)

// SelectSubjectConfig configures SelectSubjectRawDatasetReader.
type SelectSubjectConfig struct {
	// SelectedSubjects are observer indices into the dataset, in output order.
	SelectedSubjects []int
}

// SelectSubjectRawDatasetReader keeps only the selected observers. Its
// NumObservers, matrix and materialized dataset all use the reduced axis.
type SelectSubjectRawDatasetReader struct {
	*RawDatasetReader
}

// NewSelectSubjectRawDatasetReader wraps ds.
func NewSelectSubjectRawDatasetReader(ds *datasets.Dataset, cfg SelectSubjectConfig) (*SelectSubjectRawDatasetReader, error) {
	base, err := NewRawDatasetReader(ds)
	if err != nil {
		return nil, err
	}
	selected, err := checkSubjects(cfg.SelectedSubjects, base.NumObservers())
	if err != nil {
		return nil, err
	}

	base.observers = selected
	base.derive = func(raw *mat.Dense) *mat.Dense {
		n, _ := raw.Dims()
		m := mat.NewDense(n, len(selected), nil)
		for j, o := range selected {
			m.SetCol(j, mat.Col(nil, o, raw))
		}
		return m
	}
	return &SelectSubjectRawDatasetReader{RawDatasetReader: base}, nil
}

// checkSubjects validates observer indices against numObservers and returns
// a private copy.
func checkSubjects(subjects []int, numObservers int) ([]int, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: selected_subjects", ErrMissingParameter)
	}
	seen := make(map[int]bool, len(subjects))
	for _, o := range subjects {
		if o < 0 || o >= numObservers {
			return nil, fmt.Errorf("%w: subject %d out of range [0, %d)", ErrInvalidConfig, o, numObservers)
		}
		if seen[o] {
			return nil, fmt.Errorf("%w: subject %d selected twice", ErrInvalidConfig, o)
		}
		seen[o] = true
	}
	return append([]int(nil), subjects...), nil
}
