package readers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestMeanObserverDispersion(t *testing.T) {
	nan := math.NaN()
	m := mat.NewDense(3, 4, []float64{
		1, 1, 1, 1,
		2, 4, nan, nan,
		nan, nan, nan, nan,
	})
	// Row 0 has std 0, row 1 has std 1, row 2 is skipped.
	assert.InDelta(t, 0.5, MeanObserverDispersion(m), 1e-12)

	assert.True(t, math.IsNaN(MeanObserverDispersion(mat.NewDense(1, 2, []float64{nan, nan}))))
}

func TestNaNCountAndMean(t *testing.T) {
	nan := math.NaN()
	m := mat.NewDense(2, 3, []float64{
		1, nan, 3,
		nan, 5, nan,
	})
	assert.Equal(t, 3, NaNCount(m))
	assert.InDelta(t, 3.0, NaNMean(m), 1e-12)
	assert.True(t, math.IsNaN(NaNMean(mat.NewDense(1, 1, []float64{nan}))))
}

func TestTensor3DStats(t *testing.T) {
	nan := math.NaN()
	tt := [][][]float64{
		{{nan, 0.5}, {1, nan}},
		{{0, nan}, {nan, 0.25}},
	}
	st := Tensor3DStats(tt)
	assert.Equal(t, 4, st.Count)
	assert.InDelta(t, 1.75, st.Sum, 1e-12)
	assert.InDelta(t, 0.4375, st.Mean, 1e-12)
	assert.Equal(t, 0.0, st.Min)
	assert.Equal(t, 1.0, st.Max)

	empty := Tensor3DStats([][][]float64{{{nan}}})
	assert.Zero(t, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestFixtureDispersion(t *testing.T) {
	r := newTestReader(t)
	d := MeanObserverDispersion(r.OpinionScore2DArray())
	// Uniform integers on 1..5 have population std sqrt(2).
	assert.InDelta(t, math.Sqrt2, d, 0.15)
	assert.Equal(t, 0, NaNCount(r.OpinionScore2DArray()))
	assert.InDelta(t, 3.0, NaNMean(r.OpinionScore2DArray()), 0.2)
}
