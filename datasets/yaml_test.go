package datasets

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sequenceDataset = `
dataset_name: tiny
ref_score: 5.0
ref_videos:
  - content_id: 0
    content_name: Foreman
    path: foreman.yuv
  - content_id: 1
    content_name: Crew
    path: crew.yuv
dis_videos:
  - {content_id: 0, asset_id: 0, path: foreman.yuv, os: [5, 5, 4]}
  - {content_id: 1, asset_id: 1, path: crew.yuv, os: [5, 4, 5]}
  - {content_id: 0, asset_id: 2, path: foreman_q1.yuv, os: [2, 3, .nan]}
`

const mappingDataset = `
ref_score: 5.0
ref_videos:
  - {content_id: 0, path: a.yuv}
dis_videos:
  - content_id: 0
    asset_id: 0
    path: a.yuv
    os: {bob: 5, alice: 4}
  - content_id: 0
    asset_id: 1
    path: a_q1.yuv
    os: {carol: 2}
`

func TestParse_SequenceScores(t *testing.T) {
	ds, err := Parse([]byte(sequenceDataset))
	require.NoError(t, err)

	assert.Equal(t, "tiny", ds.DatasetName)
	assert.Equal(t, 3, ds.NumObservers())
	assert.Len(t, ds.RefVideos, 2)
	assert.Equal(t, "Crew", ds.RefVideos[1].ContentName)
	assert.True(t, math.IsNaN(ds.DisVideos[2].OS[2]))
	assert.True(t, ds.HasOpinionScores())
}

func TestParse_MappingScores(t *testing.T) {
	ds, err := Parse([]byte(mappingDataset))
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob", "carol"}, ds.Observers)
	require.Len(t, ds.DisVideos, 2)

	first := ds.DisVideos[0].OS
	assert.Equal(t, 4.0, first[0])
	assert.Equal(t, 5.0, first[1])
	assert.True(t, math.IsNaN(first[2]))

	second := ds.DisVideos[1].OS
	assert.True(t, math.IsNaN(second[0]))
	assert.Equal(t, 2.0, second[2])
}

func TestParse_MappingWithUnknownObserver(t *testing.T) {
	src := `
ref_score: 5
observers: [alice]
ref_videos: [{content_id: 0, path: a.yuv}]
dis_videos:
  - {content_id: 0, asset_id: 0, path: a.yuv, os: {mallory: 3}}
`
	_, err := Parse([]byte(src))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDataset))
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown content": `
ref_score: 5
ref_videos: [{content_id: 0, path: a.yuv}]
dis_videos: [{content_id: 7, asset_id: 0, path: b.yuv, os: [1]}]
`,
		"ragged scores": `
ref_score: 5
ref_videos: [{content_id: 0, path: a.yuv}]
dis_videos:
  - {content_id: 0, asset_id: 0, path: a.yuv, os: [1, 2]}
  - {content_id: 0, asset_id: 1, path: b.yuv, os: [1]}
`,
		"duplicate content": `
ref_score: 5
ref_videos: [{content_id: 0, path: a.yuv}, {content_id: 0, path: b.yuv}]
dis_videos: [{content_id: 0, asset_id: 0, path: a.yuv, os: [1]}]
`,
		"negative content": `
ref_score: 5
ref_videos: [{content_id: -1, path: a.yuv}]
dis_videos: [{content_id: -1, asset_id: 0, path: a.yuv, os: [1]}]
`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDataset), "got %v", err)
		})
	}
}

// TestWriteYAML_RoundTrip writes a dataset containing NaN, ground truth and
// paired outcomes and checks that Parse reads back the same value.
func TestWriteYAML_RoundTrip(t *testing.T) {
	ds, err := Parse([]byte(sequenceDataset))
	require.NoError(t, err)
	ds.DisVideos[0].Groundtruth = Float(4.5)
	ds.DisVideos[0].PC = []PairedOutcome{{Observer: 1, Opponent: 2, Score: 0.5}}

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, ds))

	back, err := Parse(buf.Bytes())
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.EquateNaNs(),
		cmpopts.IgnoreUnexported(DisVideo{}),
	}
	if diff := cmp.Diff(ds, back, opts); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_DispatchesOnExtension(t *testing.T) {
	tmp := t.TempDir()
	yamlPath := filepath.Join(tmp, "tiny.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sequenceDataset), 0644))

	ds, err := LoadFile(yamlPath, 0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, ds.RefScore)

	out := filepath.Join(tmp, "out", "copy.yaml")
	require.NoError(t, SaveFile(out, ds))
	again, err := LoadFile(out, 0)
	require.NoError(t, err)
	assert.Len(t, again.DisVideos, 3)

	_, err = LoadFile(filepath.Join(tmp, "tiny.txt"), 0)
	assert.Error(t, err)
}

func TestDataset_CloneIsDeep(t *testing.T) {
	ds, err := Parse([]byte(sequenceDataset))
	require.NoError(t, err)
	ds.DisVideos[1].Groundtruth = Float(3)

	c := ds.Clone()
	c.DisVideos[0].OS[0] = 1
	*c.DisVideos[1].Groundtruth = 1
	c.RefVideos[0].Path = "changed"

	assert.Equal(t, 5.0, ds.DisVideos[0].OS[0])
	assert.Equal(t, 3.0, *ds.DisVideos[1].Groundtruth)
	assert.Equal(t, "foreman.yuv", ds.RefVideos[0].Path)
}
