package registry

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/linear"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
)

func TestSlugAndNames(t *testing.T) {
	assert.Equal(t, "company_type", Slug("Company Type"))
	assert.Equal(t, "wfh_setup_available", Slug(" WFH Setup Available "))
	assert.Equal(t, "gender_encoder", EncoderName("Gender"))
	assert.Equal(t, "randomforest", ModelName("RandomForest"))
	assert.Equal(t, "a_b", Slug("a -- b!"))
}

func TestStore_SaveLoad(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "models"))
	require.NoError(t, err)

	type payload struct{ Values []float64 }
	require.NoError(t, store.Save("thing", payload{Values: []float64{1, 2}}))
	assert.True(t, store.Exists("thing"))
	assert.FileExists(t, filepath.Join(store.Dir, "thing.gob"))

	var got payload
	require.NoError(t, store.Load("thing", &got))
	assert.Equal(t, []float64{1, 2}, got.Values)

	sum, err := store.Checksum("thing")
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	err = store.Load("absent", &got)
	assert.True(t, errors.Is(err, errors.ErrArtifactNotFound))
	assert.False(t, store.Exists("absent"))
}

func TestStore_ModelEnvelope(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	lr := linear.NewLinearRegression()
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})
	require.NoError(t, lr.Fit(X, y))

	require.NoError(t, store.SaveModel(BestModel, &model.Envelope{Name: lr.Name(), Model: lr}))
	env, err := store.LoadModel(BestModel)
	require.NoError(t, err)
	assert.Equal(t, "LinearRegression", env.Name)

	pred, err := env.Model.Predict(mat.NewDense(1, 1, []float64{4}))
	require.NoError(t, err)
	assert.InDelta(t, 8.0, pred.At(0, 0), 1e-9)
}

func TestOpenExisting(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, errors.ErrArtifactNotFound))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = OpenExisting(file)
	assert.Error(t, err)

	store, err := OpenExisting(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestManifest_RoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadManifest()
	assert.True(t, errors.Is(err, errors.ErrArtifactNotFound))

	m := &Manifest{
		RunID:          NewRunID(),
		CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		FeatureNames:   []string{"Gender", "Tenure"},
		TrainingRows:   80,
		ValidationRows: 20,
		Candidates: []CandidateResult{
			{Name: "Ridge", Artifact: "ridge.gob", MSE: 0.004, R2: 0.9},
			{Name: "Lasso", Artifact: "lasso.gob", MSE: 0.02, R2: 0.5},
		},
		Best: "Ridge",
	}
	_, err = uuid.Parse(m.RunID)
	require.NoError(t, err)

	require.NoError(t, store.SaveManifest(m))
	got, err := store.LoadManifest()
	require.NoError(t, err)
	assert.Equal(t, m, got)

	best, ok := got.BestResult()
	require.True(t, ok)
	assert.Equal(t, 0.004, best.MSE)
}

func TestManifest_NonFiniteMetricWritesNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)

	m := &Manifest{Candidates: []CandidateResult{{Name: "Ridge", MSE: math.NaN()}}}
	_, err = m.Encode()
	require.Error(t, err)
	assert.Error(t, store.SaveManifest(m))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
