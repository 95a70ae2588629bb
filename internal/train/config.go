// Package train wires the classifier, loss and optimizer into the training
// and evaluation loops.
package train

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/spamnet/internal/metrics"
	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/optim"
	"github.com/born-ml/spamnet/internal/tensor"
)

// Config holds the hyperparameters of a training run.
//
// YAML keys use snake_case:
//
//	hidden_dim: 64
//	learning_rate: 0.008
//	momentum: 0.5
//	num_epochs: 10
//	batch_size: 64
type Config struct {
	InputDim     int     `yaml:"input_dim"`     // Feature width (vocabulary size)
	HiddenDim    int     `yaml:"hidden_dim"`    // Hidden layer width
	NumClasses   int     `yaml:"num_classes"`   // Output classes
	LearningRate float32 `yaml:"learning_rate"` // Step size α
	Momentum     float32 `yaml:"momentum"`      // Momentum γ in [0, 1)
	NumEpochs    int     `yaml:"num_epochs"`    // Full passes over the training set
	BatchSize    int     `yaml:"batch_size"`    // Samples per mini-batch

	Seed          int64   `yaml:"seed"`           // Seeds weight init, shuffling and the split
	Activation    string  `yaml:"activation"`     // relu, sigmoid or tanh
	Optimizer     string  `yaml:"optimizer"`      // sgd or adam
	LossReduction string  `yaml:"loss_reduction"` // mean or weighted_mean
	ZeroDivision  float64 `yaml:"zero_division"`  // Metric value when a denominator is zero
	TestRatio     float64 `yaml:"test_ratio"`     // Fraction of samples held out for evaluation
	LogEvery      int     `yaml:"log_every"`      // Log every N batches, 0 disables
}

// DefaultConfig returns the reference hyperparameters.
func DefaultConfig() Config {
	return Config{
		InputDim:      5000,
		HiddenDim:     64,
		NumClasses:    2,
		LearningRate:  0.008,
		Momentum:      0.5,
		NumEpochs:     10,
		BatchSize:     64,
		Seed:          0,
		Activation:    nn.ActivationReLU,
		Optimizer:     optim.NameSGD,
		LossReduction: nn.ReductionMean.String(),
		ZeroDivision:  metrics.DefaultZeroDivision,
		TestRatio:     0.2,
		LogEvery:      10,
	}
}

// Validate reports every invalid field, each wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.InputDim <= 0 {
		add("input_dim must be positive, got %d", c.InputDim)
	}
	if c.HiddenDim <= 0 {
		add("hidden_dim must be positive, got %d", c.HiddenDim)
	}
	if c.NumClasses < 2 {
		add("num_classes must be at least 2, got %d", c.NumClasses)
	}
	if !(c.LearningRate > 0) {
		add("learning_rate must be positive, got %v", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		add("momentum must be in [0, 1), got %v", c.Momentum)
	}
	if c.NumEpochs <= 0 {
		add("num_epochs must be positive, got %d", c.NumEpochs)
	}
	if c.BatchSize <= 0 {
		add("batch_size must be positive, got %d", c.BatchSize)
	}
	if _, err := nn.NewActivation[tensor.Backend](c.Activation); err != nil {
		add("activation: %v", err)
	}
	if c.Optimizer != optim.NameSGD && c.Optimizer != optim.NameAdam {
		add("optimizer must be %s or %s, got %q", optim.NameSGD, optim.NameAdam, c.Optimizer)
	}
	if _, err := nn.ParseReduction(c.LossReduction); err != nil {
		add("loss_reduction: %v", err)
	}
	if c.ZeroDivision < 0 || c.ZeroDivision > 1 {
		add("zero_division must be in [0, 1], got %v", c.ZeroDivision)
	}
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		add("test_ratio must be in (0, 1), got %v", c.TestRatio)
	}
	if c.LogEvery < 0 {
		add("log_every must not be negative, got %d", c.LogEvery)
	}

	return errors.Join(errs...)
}

// ClassifierConfig extracts the architecture part of the config.
func (c Config) ClassifierConfig() nn.ClassifierConfig {
	return nn.ClassifierConfig{
		InputDim:   c.InputDim,
		HiddenDim:  c.HiddenDim,
		NumClasses: c.NumClasses,
		Activation: c.Activation,
		Seed:       c.Seed,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return ParseConfig(f)
}

// ParseConfig is LoadConfig for an arbitrary reader.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
