package sweep

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/FlavioCFOliveira/mlpsearch/internal/errs"
)

// Config holds every knob of an experiment plan.
type Config struct {
	Epochs          int       `yaml:"epochs"`
	BatchSize       int       `yaml:"batch_size"` // 0 trains on the full batch each epoch
	LearningRate    float64   `yaml:"learning_rate"`
	FirstHidden     int       `yaml:"first_hidden"`
	BaseNodes       int       `yaml:"base_nodes"`
	MaxHiddenLayers int       `yaml:"max_hidden_layers"`
	NodeCounts      []int     `yaml:"node_counts"`
	KeepLevels      []float64 `yaml:"keep_levels"`
	NoiseLevels     []float64 `yaml:"noise_levels"`
	Classes         int       `yaml:"classes"`

	EarlyStop EarlyStopConfig `yaml:"early_stop"`
	Data      DataConfig      `yaml:"data"`

	Workers   int    `yaml:"workers"`
	Seed      uint64 `yaml:"seed"`
	ReportDir string `yaml:"report_dir"`
	LogEvery  int    `yaml:"log_every"`
}

// EarlyStopConfig selects the stopping policies. Structure applies to the layer and
// node searches, Regularization to the keep and noise searches.
type EarlyStopConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Epochs         int     `yaml:"epochs"`
	Structure      string  `yaml:"structure"`
	Regularization string  `yaml:"regularization"`
	Patience       int     `yaml:"patience"`
	Threshold      float64 `yaml:"threshold"`
}

// DataConfig says where examples come from. An empty MNISTDir uses synthetic digits.
type DataConfig struct {
	MNISTDir       string `yaml:"mnist_dir"`
	ValidationSize int    `yaml:"validation_size"`
	SyntheticTrain int    `yaml:"synthetic_train"`
	SyntheticTest  int    `yaml:"synthetic_test"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Epochs    int
	BatchSize int
	Workers   int
	Seed      uint64
	MNISTDir  string
	ReportDir string
	LogEvery  int
	EarlyStop bool
}

// DefaultConfig returns the plan used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Epochs:          25,
		LearningRate:    0.2,
		FirstHidden:     100,
		BaseNodes:       64,
		MaxHiddenLayers: 5,
		NodeCounts:      []int{32, 64, 128, 200, 256},
		KeepLevels:      []float64{1, 0.99995, 0.9995, 0.995, 0.95},
		NoiseLevels:     []float64{0, 0.005, 0.05, 0.5},
		Classes:         10,
		EarlyStop: EarlyStopConfig{
			Epochs:         50,
			Structure:      PolicyLossRise,
			Regularization: PolicyAccuracyDrop,
			Patience:       3,
		},
		Data: DataConfig{
			ValidationSize: 10000,
			SyntheticTrain: 2000,
			SyntheticTest:  500,
		},
		Workers:  runtime.NumCPU(),
		Seed:     1,
		LogEvery: 5,
	}
}

// Load reads a YAML file on top of DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
		c.EarlyStop.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.MNISTDir != "" {
		c.Data.MNISTDir = o.MNISTDir
	}
	if o.ReportDir != "" {
		c.ReportDir = o.ReportDir
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.EarlyStop {
		c.EarlyStop.Enabled = true
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errs.Configf("config is nil")
	}
	if c.Epochs <= 0 {
		return errs.Configf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize < 0 {
		return errs.Configf("batch_size must be >= 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate < 0 {
		return errs.Configf("learning_rate must be >= 0 (got %g)", c.LearningRate)
	}
	if c.FirstHidden <= 0 || c.BaseNodes <= 0 || c.Classes <= 0 {
		return errs.Configf("first_hidden, base_nodes and classes must be > 0")
	}
	if c.MaxHiddenLayers <= 0 {
		return errs.Configf("max_hidden_layers must be > 0 (got %d)", c.MaxHiddenLayers)
	}
	if len(c.NodeCounts) == 0 || len(c.KeepLevels) == 0 || len(c.NoiseLevels) == 0 {
		return errs.Configf("node_counts, keep_levels and noise_levels must not be empty")
	}
	for _, n := range c.NodeCounts {
		if n <= 0 {
			return errs.Configf("node count %d must be > 0", n)
		}
	}
	for _, k := range c.KeepLevels {
		if !(k > 0 && k <= 1) {
			return errs.Configf("keep level %g outside (0, 1]", k)
		}
	}
	for _, a := range c.NoiseLevels {
		if !(a >= 0 && a <= 1) {
			return errs.Configf("noise level %g outside [0, 1]", a)
		}
	}
	if c.Workers <= 0 {
		return errs.Configf("workers must be > 0 (got %d)", c.Workers)
	}
	if c.Data.ValidationSize < 0 {
		return errs.Configf("validation_size must be >= 0 (got %d)", c.Data.ValidationSize)
	}
	if c.Data.MNISTDir == "" && (c.Data.SyntheticTrain <= 0 || c.Data.SyntheticTest <= 0) {
		return errs.Configf("synthetic_train and synthetic_test must be > 0 without mnist_dir")
	}
	return c.EarlyStop.validate()
}

func (e EarlyStopConfig) validate() error {
	if !e.Enabled {
		return nil
	}
	if e.Epochs <= 0 {
		return errs.Configf("early_stop.epochs must be > 0 (got %d)", e.Epochs)
	}
	for _, p := range []string{e.Structure, e.Regularization} {
		if _, err := NewStopper(p, e.Patience, e.Threshold); err != nil {
			return err
		}
	}
	return nil
}
