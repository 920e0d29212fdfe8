// Package config defines the pipeline configuration and how it is loaded.
//
// Keys are flat and shared by the YAML file and the environment:
// log_level in a file is BURNRATE_LOG_LEVEL in the environment.
package config

import (
	"github.com/YuminosukeSato/burnrate/features"
	"github.com/YuminosukeSato/burnrate/training"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFile, when set, also writes JSON logs to a rotating file.
	LogFile string `koanf:"log_file"`

	// TrainPath and TestPath are the raw input tables.
	TrainPath string `koanf:"train_path"`
	TestPath  string `koanf:"test_path"`

	// ProcessedDir receives train_processed.csv and test_processed.csv.
	ProcessedDir string `koanf:"processed_dir"`
	// ModelDir holds encoders, scaler, candidate models and the manifest.
	ModelDir string `koanf:"model_dir"`
	// SubmissionPath is the batch prediction output.
	SubmissionPath string `koanf:"submission_path"`
	// InsightsDir and EDADir receive the rendered charts.
	InsightsDir string `koanf:"insights_dir"`
	EDADir      string `koanf:"eda_dir"`

	// Addr configures the dashboard listen address, e.g. ":8501".
	Addr string `koanf:"addr"`

	TestSize       float64 `koanf:"test_size"`
	SplitSeed      uint64  `koanf:"split_seed"`
	RidgeAlpha     float64 `koanf:"ridge_alpha"`
	LassoAlpha     float64 `koanf:"lasso_alpha"`
	ForestTrees    int     `koanf:"forest_trees"`
	ForestSeed     uint64  `koanf:"forest_seed"`
	ForestMaxDepth int     `koanf:"forest_max_depth"`

	// EncoderFit is "union" or "train".
	EncoderFit string `koanf:"encoder_fit"`
}

// New returns a Config holding the defaults.
func New() *Config {
	t := training.DefaultConfig()
	return &Config{
		LogLevel:       "info",
		TrainPath:      "train.csv",
		TestPath:       "test.csv",
		ProcessedDir:   "processed",
		ModelDir:       "models",
		SubmissionPath: "submissions/predicted_burn_rate.csv",
		InsightsDir:    "output_graphs/insights",
		EDADir:         "eda_outputs",
		Addr:           ":8501",
		TestSize:       t.TestSize,
		SplitSeed:      t.SplitSeed,
		RidgeAlpha:     t.RidgeAlpha,
		LassoAlpha:     t.LassoAlpha,
		ForestTrees:    t.ForestTrees,
		ForestSeed:     t.ForestSeed,
		ForestMaxDepth: t.ForestMaxDepth,
		EncoderFit:     features.EncoderFitUnion,
	}
}

// Training returns the model selection settings.
func (c *Config) Training() training.Config {
	return training.Config{
		TestSize:       c.TestSize,
		SplitSeed:      c.SplitSeed,
		RidgeAlpha:     c.RidgeAlpha,
		LassoAlpha:     c.LassoAlpha,
		ForestTrees:    c.ForestTrees,
		ForestSeed:     c.ForestSeed,
		ForestMaxDepth: c.ForestMaxDepth,
	}
}
