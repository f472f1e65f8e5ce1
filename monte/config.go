package monte

import (
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/subjective/datasets"
	"github.com/Noofbiz/subjective/readers"
)

// Variants that can be swept. The swept parameter is the corruption or
// missing probability, or the subset size for VariantSelect.
const (
	VariantMissing        = "missing"
	VariantCorruptSubject = "corrupt-subject"
	VariantCorruptData    = "corrupt-data"
	VariantSelect         = "select"
)

// Config describes a sweep. It is usually read from YAML by LoadConfig:
//
//	variant: corrupt-subject
//	params: [0, 0.25, 0.5, 0.75, 1]
//	sims: 200
//	seed: 7
//	selected_subjects: [0, 1, 2, 3]
//	scale: {min: 1, max: 5}
//	statistic: dispersion
type Config struct {
	Variant          string        `yaml:"variant"`
	Params           []float64     `yaml:"params"`
	Sims             int           `yaml:"sims"`
	Seed             uint64        `yaml:"seed"`
	Workers          int           `yaml:"workers"`
	SelectedSubjects []int         `yaml:"selected_subjects"`
	Scale            readers.Scale `yaml:"scale"`
	Statistic        string        `yaml:"statistic"`
}

// LoadConfig reads a YAML sweep description from path, fills defaults and
// validates it.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal sweep config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Variant = strings.ToLower(strings.TrimSpace(c.Variant))
	if c.Sims == 0 {
		c.Sims = 100
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Statistic == "" {
		c.Statistic = "dispersion"
	}
}

// Validate checks the fields that do not depend on the dataset.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantMissing, VariantCorruptSubject, VariantCorruptData, VariantSelect:
	default:
		return fmt.Errorf("unknown sweep variant %q", c.Variant)
	}
	if len(c.Params) == 0 {
		return fmt.Errorf("sweep needs at least one param")
	}
	if c.Sims < 1 {
		return fmt.Errorf("sims must be >= 1, got %d", c.Sims)
	}
	if _, err := c.StatisticFunc(); err != nil {
		return err
	}
	return nil
}

// StatisticFunc resolves the configured statistic name.
func (c *Config) StatisticFunc() (Statistic, error) {
	switch c.Statistic {
	case "dispersion":
		return DispersionStatistic, nil
	case "missing_fraction":
		return MissingFractionStatistic, nil
	case "mean":
		return MeanStatistic, nil
	}
	return nil, fmt.Errorf("unknown statistic %q", c.Statistic)
}

// Factory returns a Factory building the configured variant over ds.
// SelectedSubjects defaults to every observer.
func (c *Config) Factory(ds *datasets.Dataset) (Factory, error) {
	subjects := c.SelectedSubjects
	if len(subjects) == 0 {
		subjects = make([]int, ds.NumObservers())
		for o := range subjects {
			subjects[o] = o
		}
	}
	scale := c.Scale

	switch c.Variant {
	case VariantMissing:
		return func(p float64, rng *rand.Rand) (readers.Reader, error) {
			return readers.NewMissingDataRawDatasetReader(ds, readers.MissingDataConfig{MissingProbability: &p}, rng)
		}, nil
	case VariantCorruptSubject:
		return func(p float64, rng *rand.Rand) (readers.Reader, error) {
			return readers.NewCorruptSubjectRawDatasetReader(ds, readers.CorruptSubjectConfig{
				SelectedSubjects:   subjects,
				CorruptProbability: &p,
				Scale:              scale,
			}, rng)
		}, nil
	case VariantCorruptData:
		return func(p float64, rng *rand.Rand) (readers.Reader, error) {
			return readers.NewCorruptDataRawDatasetReader(ds, readers.CorruptDataConfig{
				CorruptProbability: &p,
				Scale:              scale,
			}, rng)
		}, nil
	case VariantSelect:
		// param is the subset size; the subset is drawn from subjects.
		return func(k float64, rng *rand.Rand) (readers.Reader, error) {
			n := int(k)
			if n < 1 || n > len(subjects) {
				return nil, fmt.Errorf("%w: subset size %v outside [1, %d]", readers.ErrInvalidConfig, k, len(subjects))
			}
			perm := rng.Perm(len(subjects))
			pick := make([]int, n)
			for i := range pick {
				pick[i] = subjects[perm[i]]
			}
			return readers.NewSelectSubjectRawDatasetReader(ds, readers.SelectSubjectConfig{SelectedSubjects: pick})
		}, nil
	}
	return nil, fmt.Errorf("unknown sweep variant %q", c.Variant)
}

// Run builds a Monte from c and sweeps ds.
func (c *Config) Run(ds *datasets.Dataset) ([]SweepPoint, error) {
	factory, err := c.Factory(ds)
	if err != nil {
		return nil, err
	}
	statistic, err := c.StatisticFunc()
	if err != nil {
		return nil, err
	}
	m, err := NewMonte(c.Seed, c.Sims)
	if err != nil {
		return nil, err
	}
	m.SetWorkers(c.Workers)
	return m.Sweep(c.Params, factory, statistic)
}
