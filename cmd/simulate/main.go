package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Noofbiz/subjective/datasets"
	"github.com/Noofbiz/subjective/monte"
	"github.com/Noofbiz/subjective/readers"
	"github.com/Noofbiz/subjective/simple"
)

func main() {
	datasetFlag := flag.String("dataset", "", "dataset file (.yaml, .yml, .json, .csv) or a directory containing one")
	refScore := flag.Float64("ref-score", 5.0, "reference score for CSV datasets")
	variant := flag.String("variant", "raw", "raw|synthetic|missing|select|corrupt-subject|corrupt-data|pc")
	prob := flag.Float64("p", 0.5, "missing or corruption probability")
	subjectsFlag := flag.String("subjects", "", "comma-separated observer indices, e.g. '0,1,2'")
	pcType := flag.String("pc-type", string(readers.WithinSubjectWithinContent), "paired-comparison pair selection: within_subject_within_content|within_subject")
	tiebreak := flag.String("tiebreak", string(readers.EvenSplit), "paired-comparison tiebreak: even_split|coin_toss")
	randomness := flag.Float64("randomness", 0, "probability a paired outcome is replaced by a coin toss")
	samplingRate := flag.Float64("sampling-rate", 1, "probability each paired comparison is kept")
	seed := flag.Uint64("seed", 0, "random seed (0 = time-based)")
	outPath := flag.String("out", "", "write the materialized dataset to this YAML path")
	sweepPath := flag.String("sweep", "", "path to a YAML sweep config; runs a Monte Carlo sweep instead of a single variant")
	outCSV := flag.String("out-csv", "output/sweep.csv", "CSV path for sweep results")
	plotDir := flag.String("plot-dir", "plots", "output directory for sweep plots (empty disables plotting)")
	printSummary := flag.Bool("print-summary", false, "print reader statistics")

	flag.Parse()

	if *datasetFlag == "" {
		log.Fatalf("-dataset is required")
	}
	path := *datasetFlag
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		found, err := datasets.FindDatasetFile(path)
		if err != nil {
			log.Fatalf("failed to find dataset in %s: %v", path, err)
		}
		path = found
	}
	ds, err := datasets.LoadFile(path, *refScore)
	if err != nil {
		log.Fatalf("failed to load dataset %s: %v", path, err)
	}
	log.Printf("loaded %s: %d ref videos, %d dis videos, %d observers",
		path, len(ds.RefVideos), len(ds.DisVideos), ds.NumObservers())

	if *sweepPath != "" {
		if err := runSweep(ds, *sweepPath, *outCSV, *plotDir); err != nil {
			log.Fatalf("sweep failed: %v", err)
		}
		return
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = readers.NewRand(*seed)
	}
	subjects, err := parseSubjects(*subjectsFlag)
	if err != nil {
		log.Fatalf("invalid -subjects: %v", err)
	}

	if *variant == "pc" {
		opts := readers.PCOptions{
			PCType:          readers.PCType(*pcType),
			TiebreakMethod:  readers.TiebreakMethod(*tiebreak),
			RandomnessLevel: *randomness,
			Rand:            rng,
		}
		if *samplingRate != 1 {
			opts.SamplingRate = samplingRate
		}
		if err := runPC(ds, opts, *outPath, *printSummary); err != nil {
			log.Fatalf("paired-comparison conversion failed: %v", err)
		}
		return
	}

	r, err := buildReader(ds, *variant, *prob, subjects, rng)
	if err != nil {
		log.Fatalf("failed to build %s reader: %v", *variant, err)
	}
	if *printSummary {
		printReaderSummary(r)
	}
	if *outPath != "" {
		if err := datasets.SaveFile(*outPath, r.ToDataset()); err != nil {
			log.Fatalf("failed to write %s: %v", *outPath, err)
		}
		log.Printf("wrote %s", *outPath)
	}
}

// buildReader constructs the named variant over ds.
func buildReader(ds *datasets.Dataset, variant string, p float64, subjects []int, rng *rand.Rand) (readers.Reader, error) {
	switch variant {
	case "raw":
		return readers.NewRawDatasetReader(ds)
	case "synthetic":
		cfg, err := estimateSyntheticConfig(ds)
		if err != nil {
			return nil, err
		}
		return readers.NewSyntheticRawDatasetReader(ds, cfg, rng)
	case "missing":
		return readers.NewMissingDataRawDatasetReader(ds, readers.MissingDataConfig{MissingProbability: &p}, rng)
	case "select":
		return readers.NewSelectSubjectRawDatasetReader(ds, readers.SelectSubjectConfig{SelectedSubjects: subjects})
	case "corrupt-subject":
		if len(subjects) == 0 {
			subjects = make([]int, ds.NumObservers())
			for o := range subjects {
				subjects[o] = o
			}
		}
		return readers.NewCorruptSubjectRawDatasetReader(ds, readers.CorruptSubjectConfig{
			SelectedSubjects:   subjects,
			CorruptProbability: &p,
		}, rng)
	case "corrupt-data":
		return readers.NewCorruptDataRawDatasetReader(ds, readers.CorruptDataConfig{CorruptProbability: &p}, rng)
	}
	return nil, fmt.Errorf("unknown variant %q", variant)
}

// estimateSyntheticConfig fits the generative model's per-video and
// per-observer terms to ds so the synthetic variant resimulates a study
// shaped like the real one: quality is the MOS, observer bias the mean
// residual and inconsistency the residual spread. Content terms are zero.
func estimateSyntheticConfig(ds *datasets.Dataset) (readers.SyntheticConfig, error) {
	base, err := readers.NewRawDatasetReader(ds)
	if err != nil {
		return readers.SyntheticConfig{}, err
	}
	m := base.OpinionScore2DArray()
	mos, _ := simple.MOS(m)
	n, s := m.Dims()

	cfg := readers.SyntheticConfig{
		QualityScores:         make([]float64, n),
		ObserverBias:          make([]float64, s),
		ObserverInconsistency: make([]float64, s),
		ContentBias:           make([]float64, base.NumRefVideos()),
		ContentAmbiguity:      make([]float64, base.NumRefVideos()),
		Scale:                 readers.ScalePolicy{Round: true, Clip: true, Min: 1, Max: 5},
	}
	for i := range cfg.QualityScores {
		cfg.QualityScores[i] = zeroIfNaN(mos[i])
	}
	for o := 0; o < s; o++ {
		var sum, sumSq float64
		var k int
		for i := 0; i < n; i++ {
			x := m.At(i, o)
			if math.IsNaN(x) || math.IsNaN(mos[i]) {
				continue
			}
			d := x - mos[i]
			sum += d
			sumSq += d * d
			k++
		}
		if k == 0 {
			continue
		}
		bias := sum / float64(k)
		cfg.ObserverBias[o] = bias
		cfg.ObserverInconsistency[o] = math.Sqrt(math.Max(0, sumSq/float64(k)-bias*bias))
	}
	return cfg, nil
}

func zeroIfNaN(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}

func runPC(ds *datasets.Dataset, opts readers.PCOptions, outPath string, printSummary bool) error {
	raw, err := readers.NewRawDatasetReader(ds)
	if err != nil {
		return err
	}
	pc, err := raw.ToPCDataset(opts)
	if err != nil {
		return err
	}
	if printSummary {
		pr, err := readers.NewPairedCompDatasetReader(pc)
		if err != nil {
			return err
		}
		st := readers.Tensor3DStats(pr.OpinionScore3DArray())
		fmt.Printf("pc tensor: %d x %d x %d, %d entries, sum=%.1f mean=%.4f min=%.2f max=%.2f\n",
			pr.NumDisVideos(), pr.NumDisVideos(), pr.NumObservers(), st.Count, st.Sum, st.Mean, st.Min, st.Max)

		model, err := simple.NewModel(simple.Config{Prior: 1})
		if err != nil {
			return err
		}
		if err := model.FitDataset(pr); err != nil {
			return err
		}
		logs, _ := model.LogScores()
		order := make([]int, len(logs))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return logs[order[a]] > logs[order[b]] })
		fmt.Printf("bradley-terry fit in %d iterations; top assets:\n", model.Iterations())
		for _, i := range order[:min(5, len(order))] {
			v := pc.DisVideos[i]
			fmt.Printf("  asset %d (content %d): log-score %.3f\n", v.AssetID, v.ContentID, logs[i])
		}
	}
	if outPath != "" {
		if err := datasets.SaveFile(outPath, pc); err != nil {
			return err
		}
		log.Printf("wrote %s", outPath)
	}
	return nil
}

func printReaderSummary(r readers.Reader) {
	m := r.OpinionScore2DArray()
	fmt.Printf("ref videos:        %d\n", r.NumRefVideos())
	fmt.Printf("dis videos:        %d\n", r.NumDisVideos())
	fmt.Printf("observers:         %d\n", r.NumObservers())
	refCopies := 0
	for _, isRef := range r.DisVideoIsRefVideo() {
		if isRef {
			refCopies++
		}
	}
	fmt.Printf("reference copies:  %d\n", refCopies)
	fmt.Printf("missing ratings:   %d\n", readers.NaNCount(m))
	fmt.Printf("mean rating:       %.4f\n", readers.NaNMean(m))
	fmt.Printf("mean dispersion:   %.4f\n", readers.MeanObserverDispersion(m))
}

func runSweep(ds *datasets.Dataset, cfgPath, outCSV, plotDir string) error {
	cfg, err := monte.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	log.Printf("sweeping %s over %d params, %d sims each", cfg.Variant, len(cfg.Params), cfg.Sims)
	points, err := cfg.Run(ds)
	if err != nil {
		return err
	}
	for _, p := range points {
		log.Printf("param=%.3f %s mean=%.4f std=%.4f", p.Param, cfg.Statistic, p.Mean, p.StdDev)
	}

	if outCSV != "" {
		if err := writeSweepCSV(outCSV, points); err != nil {
			return err
		}
		log.Printf("wrote %s", outCSV)
	}
	if plotDir != "" {
		title := fmt.Sprintf("%s: %s vs parameter", cfg.Variant, cfg.Statistic)
		if err := plotSweep(plotDir, title, cfg.Statistic, points); err != nil {
			return fmt.Errorf("failed to generate plot: %w", err)
		}
	}
	return nil
}

func writeSweepCSV(path string, points []monte.SweepPoint) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output CSV %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"param", "mean", "std", "samples"})
	for _, p := range points {
		samples := make([]string, len(p.Samples))
		for i, s := range p.Samples {
			samples[i] = strconv.FormatFloat(s, 'g', 6, 64)
		}
		_ = w.Write([]string{
			strconv.FormatFloat(p.Param, 'g', -1, 64),
			strconv.FormatFloat(p.Mean, 'g', 8, 64),
			strconv.FormatFloat(p.StdDev, 'g', 8, 64),
			strings.Join(samples, ";"),
		})
	}
	w.Flush()
	return w.Error()
}

func parseSubjects(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
