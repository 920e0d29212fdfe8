package training

import (
	"bytes"
	"context"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/linear"
	"github.com/YuminosukeSato/burnrate/metrics"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/registry"
)

func linearFrame(n int) *dataset.Frame {
	f := &dataset.Frame{
		IDs:     make([]string, n),
		Columns: []string{"a", "b"},
		X:       mat.NewDense(n, 2, nil),
		Target:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		x0 := float64(i) / float64(n-1)
		x1 := float64((i*7)%n) / float64(n-1)
		f.IDs[i] = string(rune('A' + i))
		f.X.SetRow(i, []float64{x0, x1})
		f.Target[i] = 0.5*x0 + 0.3*x1 + 0.1
	}
	return f
}

type panicRegressor struct{}

func (panicRegressor) Fit(X, y mat.Matrix) error                { panic("boom") }
func (panicRegressor) Predict(X mat.Matrix) (mat.Matrix, error) { return nil, nil }
func (panicRegressor) Name() string                             { return "Panic" }

type nanRegressor struct{}

func (nanRegressor) Fit(X, y mat.Matrix) error { return nil }
func (nanRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, math.NaN())
	}
	return out, nil
}
func (nanRegressor) Name() string { return "NaN" }

// stepFrame has two well separated clusters with constant targets, which a
// tree reproduces exactly and a straight line cannot.
func stepFrame(n int) *dataset.Frame {
	f := &dataset.Frame{
		IDs:     make([]string, n),
		Columns: []string{"x"},
		X:       mat.NewDense(n, 1, nil),
		Target:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		f.IDs[i] = string(rune('A' + i))
		if i%2 == 0 {
			f.X.Set(i, 0, 0.1*float64(i)/float64(n))
			f.Target[i] = 0.25
		} else {
			f.X.Set(i, 0, 0.9+0.1*float64(i)/float64(n))
			f.Target[i] = 0.75
		}
	}
	return f
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func ols(name string) Candidate {
	return Candidate{Name: name, New: func() model.Regressor { return linear.NewLinearRegression() }}
}

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

func TestSplit(t *testing.T) {
	train, val, err := Split(10, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, val, 2)

	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), val...) {
		assert.False(t, seen[i], "index %d appears twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, val2, err := Split(10, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, val, val2)

	_, val3, err := Split(10, 0.2, 7)
	require.NoError(t, err)
	assert.Len(t, val3, 2)
}

func TestSplitRejects(t *testing.T) {
	_, _, err := Split(10, 0, 42)
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, _, err = Split(10, 1.5, 42)
	assert.True(t, errors.As(err, &verr))

	_, _, err = Split(1, 0.2, 42)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestDropMissingTarget(t *testing.T) {
	f := linearFrame(5)
	f.Target[1] = math.NaN()
	f.Target[3] = math.NaN()

	clean, dropped, err := DropMissingTarget(f)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []string{f.IDs[0], f.IDs[2], f.IDs[4]}, clean.IDs)

	f.Target = nil
	_, _, err = DropMissingTarget(f)
	var missing *errors.MissingColumnError
	assert.True(t, errors.As(err, &missing))
}

func TestSelectKeepsEarlierOnTie(t *testing.T) {
	results := []Result{
		{Name: "LinearRegression", Report: metrics.Report{MSE: 0.5}},
		{Name: "Ridge", Report: metrics.Report{MSE: 0}},
		{Name: "Lasso", Report: metrics.Report{MSE: 0}},
		{Name: "RandomForest", Report: metrics.Report{MSE: 0.1}},
	}
	assert.Equal(t, 1, Select(results))

	for i := range results {
		results[i].Report.MSE = 0
	}
	assert.Equal(t, 0, Select(results))
}

func TestRunSelectsLowestMSEAndPersists(t *testing.T) {
	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)

	cfg := DefaultConfig()
	candidates := DefaultCandidates(cfg, quietLogger())[:3]
	tr := NewTrainer(cfg, WithCandidates(candidates), WithLogger(quietLogger()))

	out, err := tr.Run(context.Background(), linearFrame(20), store)
	require.NoError(t, err)

	assert.Equal(t, "LinearRegression", out.BestResult().Name)
	assert.InDelta(t, 0, out.BestResult().Report.MSE, 1e-12)
	assert.Equal(t, 16, out.Manifest.TrainingRows)
	assert.Equal(t, 4, out.Manifest.ValidationRows)

	for _, name := range []string{"linearregression", "ridge", "lasso", registry.BestModel} {
		assert.True(t, store.Exists(name), name)
	}
	best, err := store.LoadModel(registry.BestModel)
	require.NoError(t, err)
	assert.Equal(t, "LinearRegression", best.Name)
	assert.Equal(t, []string{"a", "b"}, best.FeatureNames)

	m, err := store.LoadManifest()
	require.NoError(t, err)
	assert.Equal(t, "LinearRegression", m.Best)
	require.Len(t, m.Candidates, 3)
	for _, c := range m.Candidates {
		assert.Len(t, c.Checksum, 64)
	}
}

func TestRunZeroErrorTieKeepsFirstCandidate(t *testing.T) {
	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)

	tr := NewTrainer(DefaultConfig(),
		WithCandidates([]Candidate{ols("First"), ols("Second")}),
		WithLogger(quietLogger()))
	out, err := tr.Run(context.Background(), linearFrame(20), store)
	require.NoError(t, err)

	assert.Equal(t, out.Results[0].Report.MSE, out.Results[1].Report.MSE)
	assert.Equal(t, 0, out.Best)
	assert.Equal(t, "First", out.Manifest.Best)
}

func TestRunAbortsBeforePersisting(t *testing.T) {
	dir := t.TempDir()
	store, err := registry.Open(dir)
	require.NoError(t, err)

	tr := NewTrainer(DefaultConfig(),
		WithCandidates([]Candidate{
			ols("First"),
			{Name: "Panic", New: func() model.Regressor { return panicRegressor{} }},
		}),
		WithLogger(quietLogger()))
	_, err = tr.Run(context.Background(), linearFrame(20), store)
	require.Error(t, err)

	var panicErr *errors.PanicError
	assert.True(t, errors.As(err, &panicErr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunHonoursCancellation(t *testing.T) {
	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := NewTrainer(DefaultConfig(), WithCandidates([]Candidate{ols("First")}), WithLogger(quietLogger()))
	_, err = tr.Run(ctx, linearFrame(20), store)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunDefaultCandidates(t *testing.T) {
	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.ForestTrees = 5
	out, err := NewTrainer(cfg, WithLogger(quietLogger())).Run(context.Background(), linearFrame(30), store)
	require.NoError(t, err)

	names := make([]string, len(out.Results))
	for i, r := range out.Results {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"LinearRegression", "Ridge", "Lasso", "RandomForest"}, names)
	assert.True(t, store.Exists("randomforest"))

	var buf bytes.Buffer
	WriteReport(&buf, out.Manifest)
	assert.Contains(t, buf.String(), "RandomForest")
	assert.Contains(t, buf.String(), "best")
}

func TestRunRejectsNonFiniteValidationFeatures(t *testing.T) {
	dir := t.TempDir()
	store, err := registry.Open(dir)
	require.NoError(t, err)

	cfg := DefaultConfig()
	f := linearFrame(20)
	_, val, err := Split(f.Len(), cfg.TestSize, cfg.SplitSeed)
	require.NoError(t, err)
	f.X.Set(val[0], 1, math.NaN())

	tr := NewTrainer(cfg, WithCandidates(DefaultCandidates(cfg, quietLogger())[:3]), WithLogger(quietLogger()))
	_, err = tr.Run(context.Background(), f, store)
	require.Error(t, err)

	var modelErr *errors.ModelError
	assert.True(t, errors.As(err, &modelErr))
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
	assertEmptyDir(t, dir)
}

func TestRunRejectsNonFiniteValidationScore(t *testing.T) {
	dir := t.TempDir()
	store, err := registry.Open(dir)
	require.NoError(t, err)

	tr := NewTrainer(DefaultConfig(),
		WithCandidates([]Candidate{
			ols("First"),
			{Name: "NaN", New: func() model.Regressor { return nanRegressor{} }},
		}),
		WithLogger(quietLogger()))
	_, err = tr.Run(context.Background(), linearFrame(20), store)
	require.Error(t, err)

	var modelErr *errors.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "NaN", modelErr.Kind)
	assertEmptyDir(t, dir)
}

func TestRunDefaultCandidatesPicksLaterZeroError(t *testing.T) {
	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.ForestTrees = 5
	out, err := NewTrainer(cfg, WithLogger(quietLogger())).Run(context.Background(), stepFrame(30), store)
	require.NoError(t, err)

	require.Len(t, out.Results, 4)
	for _, r := range out.Results[:3] {
		assert.Positive(t, r.Report.MSE, r.Name)
	}
	assert.Equal(t, 0.0, out.Results[3].Report.MSE)
	assert.Equal(t, "RandomForest", out.BestResult().Name)
	assert.Equal(t, "RandomForest", out.Manifest.Best)

	best, err := store.LoadModel(registry.BestModel)
	require.NoError(t, err)
	assert.Equal(t, "RandomForest", best.Name)
}
