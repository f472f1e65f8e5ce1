package readers

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MeanObserverDispersion returns the mean, over rows, of the population
// standard deviation of each row's non-NaN entries. Rows with no ratings are
// skipped; NaN is returned when every row is empty.
func MeanObserverDispersion(m mat.Matrix) float64 {
	rows, cols := m.Dims()
	row := make([]float64, 0, cols)
	var sum float64
	var count int
	for i := 0; i < rows; i++ {
		row = nonNaNRow(row[:0], m, i)
		if len(row) == 0 {
			continue
		}
		_, std := stat.PopMeanStdDev(row, nil)
		sum += std
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

func nonNaNRow(dst []float64, m mat.Matrix, i int) []float64 {
	_, cols := m.Dims()
	for j := 0; j < cols; j++ {
		if x := m.At(i, j); !math.IsNaN(x) {
			dst = append(dst, x)
		}
	}
	return dst
}

// NaNCount returns the number of NaN entries in m.
func NaNCount(m mat.Matrix) int {
	rows, cols := m.Dims()
	n := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(m.At(i, j)) {
				n++
			}
		}
	}
	return n
}

// NaNMean returns the mean of the non-NaN entries of m, or NaN if there are
// none.
func NaNMean(m mat.Matrix) float64 {
	rows, cols := m.Dims()
	vals := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		vals = nonNaNRow(vals, m, i)
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// TensorStats summarizes the non-NaN entries of a 3-D array.
type TensorStats struct {
	Count int
	Sum   float64
	Mean  float64
	Min   float64
	Max   float64
}

// Tensor3DStats computes TensorStats over t. With no valid entries Count is
// zero and the other fields are NaN.
func Tensor3DStats(t [][][]float64) TensorStats {
	var vals []float64
	for i := range t {
		for j := range t[i] {
			for _, x := range t[i][j] {
				if !math.IsNaN(x) {
					vals = append(vals, x)
				}
			}
		}
	}
	if len(vals) == 0 {
		nan := math.NaN()
		return TensorStats{Sum: nan, Mean: nan, Min: nan, Max: nan}
	}
	sum := floats.Sum(vals)
	return TensorStats{
		Count: len(vals),
		Sum:   sum,
		Mean:  sum / float64(len(vals)),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
	}
}
