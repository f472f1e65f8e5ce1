package datasets

import (
	"errors"
	"fmt"
	"math"
)

// This file defines the dataset model shared by every reader in the module.
//
// A Dataset is a catalogue of reference videos and the distorted videos
// derived from them. Each distorted video carries one opinion score per
// observer. Loaders in this package (LoadFile, Parse, LoadCSV) construct
// datasets; the readers package wraps them and never mutates them.
//
// Layout:
//
// Dataset
//   - RefVideos: one entry per content, keyed by a unique non-negative ContentID
//   - DisVideos: distorted (or reference-copy) videos, in rating-matrix row order
//   - Observers: optional observer names, aligned with every DisVideo.OS
//   - RefScore: the score assigned to unimpaired reference copies
//
// Paired-comparison datasets reuse the same shape but leave OS empty and
// store outcomes in DisVideo.PC instead.

// ErrInvalidDataset is returned when a dataset violates the structural
// invariants checked by Validate.
var ErrInvalidDataset = errors.New("invalid dataset")

// RefVideo describes a reference (unimpaired) source.
type RefVideo struct {
	ContentID   int    `yaml:"content_id"`
	ContentName string `yaml:"content_name,omitempty"`
	Path        string `yaml:"path"`
}

// PairedOutcome is one observer's comparison between the owning DisVideo and
// the DisVideo at index Opponent. Score is 1.0 when the owner was preferred,
// 0.0 when the opponent was preferred and 0.5 for a tie.
type PairedOutcome struct {
	Observer int     `yaml:"observer"`
	Opponent int     `yaml:"opponent"`
	Score    float64 `yaml:"score"`
}

// DisVideo describes a distorted video and its ratings.
type DisVideo struct {
	ContentID int    `yaml:"content_id"`
	AssetID   int    `yaml:"asset_id"`
	Path      string `yaml:"path"`

	// OS holds one opinion score per observer. NaN marks a missing rating.
	OS []float64 `yaml:"os,flow,omitempty"`

	// Groundtruth and GroundtruthStd are set by per-subject and aggregated
	// conversions, which drop OS.
	Groundtruth    *float64 `yaml:"groundtruth,omitempty"`
	GroundtruthStd *float64 `yaml:"groundtruth_std,omitempty"`

	// PC holds paired-comparison outcomes owned by this asset.
	PC []PairedOutcome `yaml:"pc,omitempty"`

	// osByName is populated when the source file keyed scores by observer
	// name; Parse folds it into OS.
	osByName map[string]float64
}

// Dataset is a subjective-quality study: references, distorted videos and
// their per-observer ratings.
type Dataset struct {
	DatasetName string     `yaml:"dataset_name,omitempty"`
	RefScore    float64    `yaml:"ref_score"`
	Observers   []string   `yaml:"observers,flow,omitempty"`
	RefVideos   []RefVideo `yaml:"ref_videos"`
	DisVideos   []DisVideo `yaml:"dis_videos"`
}

// NumObservers returns the length of the observer axis: the length of the
// first non-empty OS vector, falling back to the number of named observers.
func (d *Dataset) NumObservers() int {
	for _, v := range d.DisVideos {
		if len(v.OS) > 0 {
			return len(v.OS)
		}
	}
	return len(d.Observers)
}

// HasOpinionScores reports whether every distorted video carries an OS vector.
func (d *Dataset) HasOpinionScores() bool {
	if len(d.DisVideos) == 0 {
		return false
	}
	for _, v := range d.DisVideos {
		if len(v.OS) == 0 {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants every reader relies on:
// unique non-negative reference content ids, distorted content ids that
// resolve to a reference, and a uniform OS length that agrees with Observers.
func (d *Dataset) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: dataset is nil", ErrInvalidDataset)
	}
	if len(d.RefVideos) == 0 {
		return fmt.Errorf("%w: no reference videos", ErrInvalidDataset)
	}
	if len(d.DisVideos) == 0 {
		return fmt.Errorf("%w: no distorted videos", ErrInvalidDataset)
	}

	seen := make(map[int]bool, len(d.RefVideos))
	for i, ref := range d.RefVideos {
		if ref.ContentID < 0 {
			return fmt.Errorf("%w: ref_videos[%d] has negative content_id %d", ErrInvalidDataset, i, ref.ContentID)
		}
		if seen[ref.ContentID] {
			return fmt.Errorf("%w: duplicate content_id %d in ref_videos", ErrInvalidDataset, ref.ContentID)
		}
		seen[ref.ContentID] = true
	}

	numObservers := -1
	for i, dis := range d.DisVideos {
		if !seen[dis.ContentID] {
			return fmt.Errorf("%w: dis_videos[%d] content_id %d has no reference", ErrInvalidDataset, i, dis.ContentID)
		}
		if len(dis.OS) == 0 {
			continue
		}
		if numObservers < 0 {
			numObservers = len(dis.OS)
		} else if len(dis.OS) != numObservers {
			return fmt.Errorf("%w: dis_videos[%d] has %d scores, expected %d", ErrInvalidDataset, i, len(dis.OS), numObservers)
		}
	}
	if numObservers >= 0 && len(d.Observers) > 0 && len(d.Observers) != numObservers {
		return fmt.Errorf("%w: %d observer names for %d scores per video", ErrInvalidDataset, len(d.Observers), numObservers)
	}
	return nil
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := d.CloneHeader()
	out.DisVideos = make([]DisVideo, len(d.DisVideos))
	for i := range d.DisVideos {
		out.DisVideos[i] = d.DisVideos[i].Clone()
	}
	return out
}

// CloneHeader copies everything except the distorted videos. Conversions use
// it as the starting point of a new dataset.
func (d *Dataset) CloneHeader() *Dataset {
	out := &Dataset{
		DatasetName: d.DatasetName,
		RefScore:    d.RefScore,
		RefVideos:   append([]RefVideo(nil), d.RefVideos...),
	}
	if d.Observers != nil {
		out.Observers = append([]string(nil), d.Observers...)
	}
	return out
}

// Clone returns a deep copy of v.
func (v DisVideo) Clone() DisVideo {
	out := DisVideo{
		ContentID: v.ContentID,
		AssetID:   v.AssetID,
		Path:      v.Path,
	}
	if v.OS != nil {
		out.OS = append([]float64(nil), v.OS...)
	}
	if v.Groundtruth != nil {
		g := *v.Groundtruth
		out.Groundtruth = &g
	}
	if v.GroundtruthStd != nil {
		s := *v.GroundtruthStd
		out.GroundtruthStd = &s
	}
	if v.PC != nil {
		out.PC = append([]PairedOutcome(nil), v.PC...)
	}
	return out
}

// Descriptor returns a copy of v without ratings: the identity fields only.
func (v DisVideo) Descriptor() DisVideo {
	return DisVideo{ContentID: v.ContentID, AssetID: v.AssetID, Path: v.Path}
}

// Float returns a pointer to x, for Groundtruth fields.
func Float(x float64) *float64 {
	return &x
}

// CountMissing returns how many OS entries across the dataset are NaN.
func (d *Dataset) CountMissing() int {
	n := 0
	for _, v := range d.DisVideos {
		for _, s := range v.OS {
			if math.IsNaN(s) {
				n++
			}
		}
	}
	return n
}
