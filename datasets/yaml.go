package datasets

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a dataset from disk, choosing the decoder from the file
// extension: .yaml, .yml and .json go through Parse, .csv through LoadCSV
// with refScore as the reference score. refScore is ignored for YAML/JSON,
// which carry their own ref_score.
func LoadFile(path string, refScore float64) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read dataset file: %w", err)
		}
		ds, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ds, nil
	case ".csv":
		return LoadCSV(path, refScore)
	default:
		return nil, fmt.Errorf("unsupported dataset file extension %q", filepath.Ext(path))
	}
}

// Parse decodes a YAML (or JSON) dataset and validates it.
//
// The "os" field of a distorted video may be a sequence of scores, one per
// observer, or a mapping from observer name to score. Mapping form is
// normalized onto the dataset's Observers list (or the sorted union of all
// names when Observers is absent), with NaN for observers that did not rate
// a video.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset YAML: %w", err)
	}
	if err := ds.foldNamedScores(); err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("parsed dataset",
		"name", ds.DatasetName,
		"ref_videos", len(ds.RefVideos),
		"dis_videos", len(ds.DisVideos),
		"observers", ds.NumObservers())
	return &ds, nil
}

// WriteYAML encodes ds in the schema Parse reads. NaN scores are written as
// .nan so missing ratings survive a round trip.
func WriteYAML(w io.Writer, ds *Dataset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset YAML: %w", err)
	}
	return enc.Close()
}

// SaveFile writes ds as YAML to path.
func SaveFile(path string, ds *Dataset) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	if err := WriteYAML(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// UnmarshalYAML accepts "os" either as a sequence or as a name->score mapping.
func (v *DisVideo) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ContentID      int             `yaml:"content_id"`
		AssetID        int             `yaml:"asset_id"`
		Path           string          `yaml:"path"`
		OS             yaml.Node       `yaml:"os"`
		Groundtruth    *float64        `yaml:"groundtruth"`
		GroundtruthStd *float64        `yaml:"groundtruth_std"`
		PC             []PairedOutcome `yaml:"pc"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = DisVideo{
		ContentID:      raw.ContentID,
		AssetID:        raw.AssetID,
		Path:           raw.Path,
		Groundtruth:    raw.Groundtruth,
		GroundtruthStd: raw.GroundtruthStd,
		PC:             raw.PC,
	}

	switch raw.OS.Kind {
	case 0:
		// no "os" key
	case yaml.SequenceNode:
		if err := raw.OS.Decode(&v.OS); err != nil {
			return fmt.Errorf("line %d: os: %w", raw.OS.Line, err)
		}
	case yaml.MappingNode:
		if err := raw.OS.Decode(&v.osByName); err != nil {
			return fmt.Errorf("line %d: os: %w", raw.OS.Line, err)
		}
	default:
		return fmt.Errorf("line %d: os must be a sequence or a mapping", raw.OS.Line)
	}
	return nil
}

// foldNamedScores converts mapping-form scores into positional OS vectors.
func (d *Dataset) foldNamedScores() error {
	named, positional := 0, 0
	for _, v := range d.DisVideos {
		if v.osByName != nil {
			named++
		} else if len(v.OS) > 0 {
			positional++
		}
	}
	if named == 0 {
		return nil
	}
	if positional > 0 {
		return fmt.Errorf("%w: os mixes sequence and mapping forms", ErrInvalidDataset)
	}

	observers := d.Observers
	if len(observers) == 0 {
		set := make(map[string]bool)
		for _, v := range d.DisVideos {
			for name := range v.osByName {
				set[name] = true
			}
		}
		for name := range set {
			observers = append(observers, name)
		}
		sort.Strings(observers)
	}
	index := make(map[string]int, len(observers))
	for i, name := range observers {
		index[name] = i
	}

	for i := range d.DisVideos {
		v := &d.DisVideos[i]
		scores := make([]float64, len(observers))
		for j := range scores {
			scores[j] = math.NaN()
		}
		for name, s := range v.osByName {
			j, ok := index[name]
			if !ok {
				return fmt.Errorf("%w: dis_videos[%d] rated by unknown observer %q", ErrInvalidDataset, i, name)
			}
			scores[j] = s
		}
		v.OS = scores
		v.osByName = nil
	}
	d.Observers = observers
	return nil
}
