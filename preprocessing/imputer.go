package preprocessing

import (
	"math"
	"slices"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Imputation strategies.
const (
	StrategyMean   = "mean"
	StrategyMedian = "median"
)

// SimpleImputer replaces NaN in a single column with a statistic of the
// observed values. The median of an even count is the mean of the two
// middle values.
type SimpleImputer struct {
	State *model.StateManager

	Strategy  string
	Statistic float64
	NMissing  int
}

// NewSimpleImputer creates an imputer for strategy "mean" or "median".
func NewSimpleImputer(strategy string) (*SimpleImputer, error) {
	switch strategy {
	case StrategyMean, StrategyMedian:
	default:
		return nil, errors.NewValidationError("strategy", "must be mean or median", strategy)
	}
	return &SimpleImputer{State: model.NewStateManager(), Strategy: strategy}, nil
}

// Fit computes the fill statistic from the non-NaN entries of values.
func (s *SimpleImputer) Fit(values []float64) error {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "column has no observed values", errors.ErrEmptyData)
	}

	switch s.Strategy {
	case StrategyMean:
		s.Statistic = stat.Mean(observed, nil)
	case StrategyMedian:
		slices.Sort(observed)
		n := len(observed)
		if n%2 == 1 {
			s.Statistic = observed[n/2]
		} else {
			s.Statistic = (observed[n/2-1] + observed[n/2]) / 2
		}
	}
	s.NMissing = len(values) - len(observed)
	s.State.SetFitted(1, len(values))
	return nil
}

// Transform returns a copy of values with NaN replaced by the statistic.
func (s *SimpleImputer) Transform(values []float64) ([]float64, error) {
	if err := s.State.RequireFitted("SimpleImputer", "Transform"); err != nil {
		return nil, err
	}
	out := slices.Clone(values)
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = s.Statistic
		}
	}
	return out, nil
}

// FitTransform fits on values and fills them.
func (s *SimpleImputer) FitTransform(values []float64) ([]float64, error) {
	if err := s.Fit(values); err != nil {
		return nil, err
	}
	return s.Transform(values)
}
