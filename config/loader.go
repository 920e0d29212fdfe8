package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/YuminosukeSato/burnrate/features"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "BURNRATE_"

// FileEnv names the YAML file to load, if any.
const FileEnv = "BURNRATE_CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BURNRATE_CONFIG is set
//  3. env (prefix BURNRATE_)
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(errors.Mark(err, ErrLoadConfig), "read %s", path)
		}
	}

	// BURNRATE_FOREST_TREES -> forest_trees
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrLoadConfig), "read environment")
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(errors.Mark(err, ErrLoadConfig), "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.Wrapf(ErrInvalidConfig, format, args...)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return invalid("log_level %q", c.LogLevel)
	}
	for _, f := range []struct{ key, value string }{
		{"train_path", c.TrainPath},
		{"test_path", c.TestPath},
		{"processed_dir", c.ProcessedDir},
		{"model_dir", c.ModelDir},
		{"submission_path", c.SubmissionPath},
		{"insights_dir", c.InsightsDir},
		{"eda_dir", c.EDADir},
		{"addr", c.Addr},
	} {
		if strings.TrimSpace(f.value) == "" {
			return invalid("%s must not be empty", f.key)
		}
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return invalid("test_size %v must be in (0, 1)", c.TestSize)
	}
	if c.RidgeAlpha < 0 || c.LassoAlpha < 0 {
		return invalid("ridge_alpha and lasso_alpha must not be negative")
	}
	if c.ForestTrees < 1 {
		return invalid("forest_trees %d must be positive", c.ForestTrees)
	}
	if c.ForestMaxDepth < 0 {
		return invalid("forest_max_depth %d must not be negative", c.ForestMaxDepth)
	}
	if c.EncoderFit != features.EncoderFitUnion && c.EncoderFit != features.EncoderFitTrain {
		return invalid("encoder_fit %q must be %s or %s", c.EncoderFit, features.EncoderFitUnion, features.EncoderFitTrain)
	}
	return nil
}
