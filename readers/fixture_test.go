package readers

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Noofbiz/subjective/datasets"
)

// Fixture shape, matching the public NFLX study: 9 contents, 79 distorted
// videos of which the first 9 are reference copies, and 26 observers.
const (
	numContents  = 9
	numVideos    = 79
	numObservers = 26
)

// newTestDataset builds the fixture with integer ratings in [1, 5] drawn from
// a fixed seed. Content k owns video k (its reference copy) and every video
// i >= 9 with (i-9)%9 == k.
func newTestDataset(t *testing.T) *datasets.Dataset {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))
	return buildDataset(func(int, int) float64 { return float64(rng.IntN(5) + 1) })
}

// newConstantDataset builds the fixture shape with every rating equal to v,
// so every row has zero dispersion.
func newConstantDataset(t *testing.T, v float64) *datasets.Dataset {
	t.Helper()
	return buildDataset(func(int, int) float64 { return v })
}

func buildDataset(score func(video, observer int) float64) *datasets.Dataset {
	ds := &datasets.Dataset{DatasetName: "fixture", RefScore: 5.0}
	for k := 0; k < numContents; k++ {
		ds.RefVideos = append(ds.RefVideos, datasets.RefVideo{
			ContentID:   k,
			ContentName: fmt.Sprintf("src%02d", k),
			Path:        fmt.Sprintf("src%02d_ref.yuv", k),
		})
	}
	for i := 0; i < numVideos; i++ {
		k := i
		path := fmt.Sprintf("src%02d_ref.yuv", k)
		if i >= numContents {
			k = (i - numContents) % numContents
			path = fmt.Sprintf("src%02d_dis%02d.yuv", k, i)
		}
		scores := make([]float64, numObservers)
		for o := range scores {
			scores[o] = score(i, o)
		}
		ds.DisVideos = append(ds.DisVideos, datasets.DisVideo{
			ContentID: k,
			AssetID:   i,
			Path:      path,
			OS:        scores,
		})
	}
	return ds
}

// namedObservers returns the observer names used by named fixtures.
func namedObservers() []string {
	names := make([]string, numObservers)
	for o := range names {
		names[o] = fmt.Sprintf("obs%02d", o)
	}
	return names
}

func newTestReader(t *testing.T) *RawDatasetReader {
	t.Helper()
	r, err := NewRawDatasetReader(newTestDataset(t))
	require.NoError(t, err)
	return r
}

// matricesEqual compares two matrices cell by cell, treating NaN as equal to
// NaN.
func matricesEqual(a, b mat.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			x, y := a.At(i, j), b.At(i, j)
			if x != y && !(x != x && y != y) {
				return false
			}
		}
	}
	return true
}
