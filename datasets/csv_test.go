package datasets

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, path, header string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(header + "\n"); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for _, r := range rows {
		if _, err := f.WriteString(r + "\n"); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
}

// TestLoadCSV_TwoFiles loads a rating table split across two files and checks
// that references are derived from ref_path, empty cells become NaN and rows
// keep file order.
func TestLoadCSV_TwoFiles(t *testing.T) {
	tmp := t.TempDir()
	header := "content_id,asset_id,path,ref_path,alice,bob,carol"

	writeCSV(t, filepath.Join(tmp, "ratings_a.csv"), header, []string{
		"0,0,src00.yuv,src00.yuv,5,5,4",
		"0,1,src00_q1.yuv,src00.yuv,3,,2",
	})
	writeCSV(t, filepath.Join(tmp, "ratings_b.csv"), header, []string{
		"1,2,src01.yuv,src01.yuv,5,4,5",
		"1,3,src01_q1.yuv,src01.yuv,1,2,1",
	})

	ds, err := LoadCSV(filepath.Join(tmp, "*.csv"), 5.0)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob", "carol"}, ds.Observers)
	assert.Equal(t, 5.0, ds.RefScore)
	require.Len(t, ds.RefVideos, 2)
	assert.Equal(t, RefVideo{ContentID: 1, Path: "src01.yuv"}, ds.RefVideos[1])

	require.Len(t, ds.DisVideos, 4)
	assert.Equal(t, 3, ds.DisVideos[3].AssetID)
	assert.Equal(t, []float64{1, 2, 1}, ds.DisVideos[3].OS)
	assert.True(t, math.IsNaN(ds.DisVideos[1].OS[1]), "empty cell should be NaN")
	assert.Equal(t, 1, ds.CountMissing())
	assert.Equal(t, 3, ds.NumObservers())
}

func TestLoadCSV_MissingColumns(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "bad.csv"), "content_id,path,alice", []string{"0,a.yuv,5"})

	_, err := LoadCSV(filepath.Join(tmp, "*.csv"), 5.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset_id")
}

func TestLoadCSV_ConflictingRefPath(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "bad.csv"), "content_id,asset_id,path,ref_path,alice", []string{
		"0,0,a.yuv,a.yuv,5",
		"0,1,b.yuv,other.yuv,3",
	})

	_, err := LoadCSV(filepath.Join(tmp, "*.csv"), 5.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting ref_path")
}

func TestLoadCSV_ObserversDifferingByCase(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "ratings.csv"), "Content_ID,asset_id,path,A,a", []string{
		"0,0,a.yuv,5,1",
		"0,1,b.yuv,2,4",
	})

	ds, err := LoadCSV(filepath.Join(tmp, "*.csv"), 5.0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "a"}, ds.Observers)
	assert.Equal(t, []float64{5, 1}, ds.DisVideos[0].OS)
	assert.Equal(t, []float64{2, 4}, ds.DisVideos[1].OS)
}

func TestLoadCSV_DuplicateColumns(t *testing.T) {
	for name, header := range map[string]string{
		"observer": "content_id,asset_id,path,alice,alice",
		"fixed":    "content_id,asset_id,path,PATH,alice",
	} {
		t.Run(name, func(t *testing.T) {
			tmp := t.TempDir()
			writeCSV(t, filepath.Join(tmp, "bad.csv"), header, []string{"0,0,a.yuv,a.yuv,5"})

			_, err := LoadCSV(filepath.Join(tmp, "*.csv"), 5.0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "appears twice")
		})
	}
}

func TestLoadCSV_NoFiles(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "*.csv"), 5.0)
	require.Error(t, err)
}

func TestFindDatasetFile(t *testing.T) {
	tmp := t.TempDir()
	writeCSV(t, filepath.Join(tmp, "ratings.csv"), "content_id,asset_id,path,alice", nil)
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "ratings.yaml"), []byte("ref_score: 5\n"), 0644))

	got, err := FindDatasetFile(tmp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "ratings.yaml"), got)

	_, err = FindDatasetFile(t.TempDir())
	assert.Error(t, err)
}
