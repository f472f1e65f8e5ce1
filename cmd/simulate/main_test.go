package main

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Noofbiz/subjective/datasets"
	"github.com/Noofbiz/subjective/monte"
	"github.com/Noofbiz/subjective/readers"
)

func smallDataset() *datasets.Dataset {
	return &datasets.Dataset{
		RefScore: 5,
		RefVideos: []datasets.RefVideo{
			{ContentID: 0, Path: "a.yuv"},
			{ContentID: 1, Path: "b.yuv"},
		},
		DisVideos: []datasets.DisVideo{
			{ContentID: 0, AssetID: 0, Path: "a.yuv", OS: []float64{5, 4, 5}},
			{ContentID: 0, AssetID: 1, Path: "a_q1.yuv", OS: []float64{2, 1, math.NaN()}},
			{ContentID: 1, AssetID: 2, Path: "b.yuv", OS: []float64{4, 5, 5}},
			{ContentID: 1, AssetID: 3, Path: "b_q1.yuv", OS: []float64{3, 2, 3}},
		},
	}
}

func TestParseSubjects(t *testing.T) {
	got, err := parseSubjects(" 0, 2,5 ")
	if err != nil {
		t.Fatalf("parseSubjects error: %v", err)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 5 {
		t.Fatalf("unexpected subjects %v", got)
	}
	if got, _ := parseSubjects(""); got != nil {
		t.Fatalf("empty flag should give nil, got %v", got)
	}
	if _, err := parseSubjects("1,x"); err == nil {
		t.Fatalf("expected error for non-integer subject")
	}
}

func TestBuildReaderVariants(t *testing.T) {
	ds := smallDataset()
	for _, v := range []string{"raw", "synthetic", "missing", "corrupt-subject", "corrupt-data"} {
		r, err := buildReader(ds, v, 0.5, nil, readers.NewRand(1))
		if err != nil {
			t.Fatalf("%s: %v", v, err)
		}
		rows, cols := r.OpinionScore2DArray().Dims()
		if rows != 4 || cols != 3 {
			t.Fatalf("%s: shape %dx%d", v, rows, cols)
		}
	}

	r, err := buildReader(ds, "select", 0, []int{2}, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if r.NumObservers() != 1 {
		t.Fatalf("select: %d observers", r.NumObservers())
	}

	if _, err := buildReader(ds, "select", 0, nil, nil); err == nil {
		t.Fatalf("select without subjects should fail")
	}
	if _, err := buildReader(ds, "bogus", 0, nil, nil); err == nil {
		t.Fatalf("unknown variant should fail")
	}
}

func TestEstimateSyntheticConfig(t *testing.T) {
	cfg, err := estimateSyntheticConfig(smallDataset())
	if err != nil {
		t.Fatalf("estimateSyntheticConfig error: %v", err)
	}
	if math.Abs(cfg.QualityScores[0]-14.0/3) > 1e-12 {
		t.Fatalf("quality[0] = %v", cfg.QualityScores[0])
	}
	if math.Abs(cfg.QualityScores[1]-1.5) > 1e-12 {
		t.Fatalf("quality[1] = %v", cfg.QualityScores[1])
	}
	for o, v := range cfg.ObserverInconsistency {
		if v < 0 || math.IsNaN(v) {
			t.Fatalf("inconsistency[%d] = %v", o, v)
		}
	}
	if len(cfg.ContentBias) != 2 {
		t.Fatalf("content bias length %d", len(cfg.ContentBias))
	}
}

func TestWriteSweepCSVAndPlot(t *testing.T) {
	tmp := t.TempDir()
	points := []monte.SweepPoint{
		{Param: 0, Mean: 0, StdDev: 0, Samples: []float64{0, 0}},
		{Param: 0.5, Mean: 0.7, StdDev: 0.1, Samples: []float64{0.6, 0.8}},
		{Param: 1, Mean: 1.1, StdDev: math.NaN(), Samples: []float64{1.1, math.NaN()}},
	}

	csvPath := filepath.Join(tmp, "out", "sweep.csv")
	if err := writeSweepCSV(csvPath, points); err != nil {
		t.Fatalf("writeSweepCSV error: %v", err)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 4 || records[0][0] != "param" || records[2][0] != "0.5" || records[2][3] != "0.6;0.8" {
		t.Fatalf("unexpected csv contents: %v", records)
	}

	plotDir := filepath.Join(tmp, "plots")
	if err := plotSweep(plotDir, "test", "dispersion", points); err != nil {
		t.Fatalf("plotSweep error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(plotDir, "sweep.png")); err != nil {
		t.Fatalf("plot not written: %v", err)
	}
}

func TestAutoRange(t *testing.T) {
	xmin, xmax, ymin, ymax := autoRange(nil)
	if xmin != -1 || xmax != 1 || ymin != -1 || ymax != 1 {
		t.Fatalf("empty range: %v %v %v %v", xmin, xmax, ymin, ymax)
	}
}
