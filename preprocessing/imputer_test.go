package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleImputer(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		strategy string
		in       []float64
		want     []float64
		stat     float64
	}{
		{"mean", StrategyMean, []float64{1, nan, 3, 8}, []float64{1, 4, 3, 8}, 4},
		{"median odd", StrategyMedian, []float64{9, 1, nan, 5}, []float64{9, 1, 5, 5}, 5},
		{"median even", StrategyMedian, []float64{4, nan, 1, 3, 10}, []float64{4, 3.5, 1, 3, 10}, 3.5},
		{"no missing", StrategyMean, []float64{2, 4}, []float64{2, 4}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, err := NewSimpleImputer(tt.strategy)
			require.NoError(t, err)

			out, err := imp.FitTransform(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.stat, imp.Statistic, 1e-12)
			assert.InDeltaSlice(t, tt.want, out, 1e-12)
			for _, v := range out {
				assert.False(t, math.IsNaN(v))
			}
		})
	}
}

func TestSimpleImputer_Errors(t *testing.T) {
	_, err := NewSimpleImputer("mode")
	assert.Error(t, err)

	imp, err := NewSimpleImputer(StrategyMedian)
	require.NoError(t, err)
	_, err = imp.Transform([]float64{1})
	assert.Error(t, err)

	assert.Error(t, imp.Fit([]float64{math.NaN()}))
}

func TestSimpleImputer_DoesNotMutateInput(t *testing.T) {
	in := []float64{1, math.NaN(), 3}
	imp, _ := NewSimpleImputer(StrategyMean)
	_, err := imp.FitTransform(in)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(in[1]))
}
