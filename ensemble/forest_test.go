package ensemble

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/metrics"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
)

// signalData: y = 0.7*x0 + 0.3*x1 and x2 is pure noise.
func signalData(rows int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(rows, 3, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		x0, x1, x2 := rng.Float64(), rng.Float64(), rng.Float64()
		X.SetRow(i, []float64{x0, x1, x2})
		y.Set(i, 0, 0.7*x0+0.3*x1)
	}
	return X, y
}

func quiet() Option {
	l, _ := log.NewTestLogger(log.LevelError)
	return WithLogger(l)
}

func TestRandomForestRegressor_Fit(t *testing.T) {
	X, y := signalData(300, 1)
	rf := NewRandomForestRegressor(WithNEstimators(30), quiet())
	require.NoError(t, rf.Fit(X, y))
	assert.Len(t, rf.Trees, 30)

	XVal, yVal := signalData(100, 2)
	pred, err := rf.Predict(XVal)
	require.NoError(t, err)

	rep, err := metrics.Evaluate(yVal, pred)
	require.NoError(t, err)
	assert.Greater(t, rep.R2, 0.9)
}

func TestRandomForestRegressor_Deterministic(t *testing.T) {
	X, y := signalData(200, 3)

	a := NewRandomForestRegressor(WithNEstimators(20), WithRandomState(42), quiet())
	b := NewRandomForestRegressor(WithNEstimators(20), WithRandomState(42), quiet())
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	pa, err := a.Predict(X)
	require.NoError(t, err)
	pb, err := b.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(pa, pb))

	c := NewRandomForestRegressor(WithNEstimators(20), WithRandomState(7), quiet())
	require.NoError(t, c.Fit(X, y))
	pc, err := c.Predict(X)
	require.NoError(t, err)
	assert.False(t, mat.Equal(pa, pc))
}

func TestRandomForestRegressor_FeatureImportances(t *testing.T) {
	X, y := signalData(300, 4)
	rf := NewRandomForestRegressor(WithNEstimators(25), quiet())
	require.NoError(t, rf.Fit(X, y))

	imp, err := rf.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, imp, 3)

	var total float64
	for _, v := range imp {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Greater(t, imp[0], imp[1])
	assert.Greater(t, imp[1], imp[2])
}

func TestRandomForestRegressor_NoBootstrapMatchesSingleTree(t *testing.T) {
	X, y := signalData(50, 5)
	rf := NewRandomForestRegressor(WithNEstimators(3), WithBootstrap(false), quiet())
	require.NoError(t, rf.Fit(X, y))

	pred, err := rf.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(y, pred, 1e-12), "unbootstrapped deep trees memorise the training set")
}

func TestRandomForestRegressor_Errors(t *testing.T) {
	rf := NewRandomForestRegressor(quiet())

	_, err := rf.Predict(mat.NewDense(1, 3, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = rf.FeatureImportances()
	assert.True(t, errors.As(err, &nf))

	X, y := signalData(10, 6)
	assert.Error(t, NewRandomForestRegressor(WithNEstimators(0), quiet()).Fit(X, y))
}

func TestRandomForestRegressor_GobRoundTrip(t *testing.T) {
	X, y := signalData(80, 8)
	rf := NewRandomForestRegressor(WithNEstimators(10), WithMaxDepth(6), quiet())
	require.NoError(t, rf.Fit(X, y))
	want, err := rf.Predict(X)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(&model.Envelope{Name: rf.Name(), Model: rf}, &buf))
	var env model.Envelope
	require.NoError(t, model.LoadModelFromReader(&env, &buf))

	got, err := env.Model.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))

	fi, ok := env.Model.(model.FeatureImporter)
	require.True(t, ok)
	imp, err := fi.FeatureImportances()
	require.NoError(t, err)
	assert.Len(t, imp, 3)
}
