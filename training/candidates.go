package training

import (
	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/ensemble"
	"github.com/YuminosukeSato/burnrate/linear"
	"github.com/YuminosukeSato/burnrate/pkg/log"
)

// Candidate builds a fresh, unfitted model. Candidates are evaluated in
// slice order, which also breaks MSE ties.
type Candidate struct {
	Name string
	New  func() model.Regressor
}

// Config holds the split and hyperparameters of the default candidates.
type Config struct {
	TestSize  float64
	SplitSeed uint64

	RidgeAlpha float64
	LassoAlpha float64

	ForestTrees    int
	ForestSeed     uint64
	ForestMaxDepth int
}

// DefaultConfig returns the 80/20 split with seed 42 and the reference
// hyperparameters.
func DefaultConfig() Config {
	return Config{
		TestSize:    0.2,
		SplitSeed:   42,
		RidgeAlpha:  1.0,
		LassoAlpha:  0.1,
		ForestTrees: 100,
		ForestSeed:  42,
	}
}

// DefaultCandidates returns LinearRegression, Ridge, Lasso and
// RandomForest, in that order.
func DefaultCandidates(cfg Config, logger log.Logger) []Candidate {
	return []Candidate{
		{Name: "LinearRegression", New: func() model.Regressor {
			return linear.NewLinearRegression(linear.WithLogger(logger))
		}},
		{Name: "Ridge", New: func() model.Regressor {
			return linear.NewRidge(linear.WithAlpha(cfg.RidgeAlpha), linear.WithLogger(logger))
		}},
		{Name: "Lasso", New: func() model.Regressor {
			return linear.NewLasso(linear.WithAlpha(cfg.LassoAlpha), linear.WithLogger(logger))
		}},
		{Name: "RandomForest", New: func() model.Regressor {
			return ensemble.NewRandomForestRegressor(
				ensemble.WithNEstimators(cfg.ForestTrees),
				ensemble.WithRandomState(cfg.ForestSeed),
				ensemble.WithMaxDepth(cfg.ForestMaxDepth),
				ensemble.WithLogger(logger),
			)
		}},
	}
}
