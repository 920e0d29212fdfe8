// Package ensemble implements a bagged random forest of regression trees.
package ensemble

import (
	"encoding/gob"
	"math/rand/v2"
	"time"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/core/parallel"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/tree"
	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(&RandomForestRegressor{})
}

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(f *RandomForestRegressor) { f.NEstimators = n }
}

// WithRandomState seeds bootstrap sampling and feature permutations.
func WithRandomState(seed uint64) Option {
	return func(f *RandomForestRegressor) { f.RandomState = seed }
}

// WithMaxDepth limits every tree's depth; 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(f *RandomForestRegressor) { f.MaxDepth = depth }
}

// WithMaxFeatures limits the features considered per split; 0 means all.
func WithMaxFeatures(n int) Option {
	return func(f *RandomForestRegressor) { f.MaxFeatures = n }
}

// WithBootstrap toggles sampling with replacement.
func WithBootstrap(b bool) Option {
	return func(f *RandomForestRegressor) { f.Bootstrap = b }
}

// WithLogger sets the logger used during Fit.
func WithLogger(l log.Logger) Option {
	return func(f *RandomForestRegressor) { f.logger = l }
}

// RandomForestRegressor averages the predictions of NEstimators trees, each
// grown on a bootstrap resample. Per-tree seeds are drawn from RandomState
// before any tree is grown, so the fitted forest does not depend on how
// trees are scheduled across goroutines.
type RandomForestRegressor struct {
	State *model.StateManager

	NEstimators     int
	RandomState     uint64
	MaxDepth        int
	MaxFeatures     int
	MinSamplesSplit int
	Bootstrap       bool

	Trees []*tree.DecisionTreeRegressor

	logger log.Logger
}

// NewRandomForestRegressor creates a forest of 100 unlimited-depth trees
// seeded with 42.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	f := &RandomForestRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		RandomState:     42,
		MinSamplesSplit: 2,
		Bootstrap:       true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name implements model.Regressor.
func (f *RandomForestRegressor) Name() string { return "RandomForest" }

// Fit grows the trees in parallel.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")
	start := time.Now()

	if f.NEstimators <= 0 {
		return errors.NewValidationError("n_estimators", "must be positive", f.NEstimators)
	}
	rows, cols, err := model.ValidateXy("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	target := mat.Col(nil, 0, y)

	seeds := make([]uint64, f.NEstimators)
	master := rand.New(rand.NewPCG(f.RandomState, 0))
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	trees := make([]*tree.DecisionTreeRegressor, f.NEstimators)
	err = parallel.ParallelizeErrWithThreshold(f.NEstimators, 1, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			t := tree.NewDecisionTreeRegressor(
				tree.WithMaxDepth(f.MaxDepth),
				tree.WithMaxFeatures(f.MaxFeatures),
				tree.WithMinSamplesSplit(f.MinSamplesSplit),
				tree.WithRandomState(seeds[i]),
			)
			if err := t.FitSamples(X, target, f.samples(rows, seeds[i])); err != nil {
				return errors.Wrapf(err, "tree %d", i)
			}
			trees[i] = t
		}
		return nil
	})
	if err != nil {
		return err
	}

	f.Trees = trees
	if f.State == nil {
		f.State = model.NewStateManager()
	}
	f.State.SetFitted(cols, rows)
	f.log().Debug("model fitted",
		log.ModelNameKey, f.Name(),
		log.TreesKey, f.NEstimators,
		log.RandomSeedKey, f.RandomState,
		log.SamplesKey, rows,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (f *RandomForestRegressor) samples(rows int, seed uint64) []int {
	idx := make([]int, rows)
	if !f.Bootstrap {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	rng := rand.New(rand.NewPCG(seed, 1))
	for i := range idx {
		idx[i] = rng.IntN(rows)
	}
	return idx
}

// Predict averages the trees.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := f.State.RequireFitted(f.Name(), "Predict"); err != nil {
		return nil, err
	}
	if err := f.State.CheckFeatures("RandomForestRegressor.Predict", X); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, 1000, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			var sum float64
			for _, t := range f.Trees {
				sum += t.PredictRow(X, i)
			}
			out.Set(i, 0, sum/float64(len(f.Trees)))
		}
	})
	return out, nil
}

// FeatureImportances is the mean of the trees' normalised impurity
// decreases, renormalised to sum to one.
func (f *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if err := f.State.RequireFitted(f.Name(), "FeatureImportances"); err != nil {
		return nil, err
	}
	nFeatures, _ := f.State.GetDimensions()
	imp := make([]float64, nFeatures)
	for _, t := range f.Trees {
		ti, err := t.FeatureImportances()
		if err != nil {
			return nil, err
		}
		for j, v := range ti {
			imp[j] += v
		}
	}

	var total float64
	for _, v := range imp {
		total += v
	}
	if total > 0 {
		for j := range imp {
			imp[j] /= total
		}
	}
	return imp, nil
}

func (f *RandomForestRegressor) log() log.Logger {
	if f.logger == nil {
		return log.Component("ensemble")
	}
	return f.logger
}
