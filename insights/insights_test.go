package insights

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/ensemble"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/registry"
)

type fixedImportances []float64

func (f fixedImportances) FeatureImportances() ([]float64, error) { return f, nil }

func TestFeatureImportancesSorted(t *testing.T) {
	imps, err := FeatureImportances(fixedImportances{0.1, 0.4, 0.1, 0.4}, []string{"d", "c", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []Importance{
		{"b", 0.4}, {"c", 0.4}, {"a", 0.1}, {"d", 0.1},
	}, imps)
}

func TestFeatureImportancesRejects(t *testing.T) {
	_, err := FeatureImportances(struct{}{}, []string{"a"})
	var verr *errors.ValueError
	assert.True(t, errors.As(err, &verr))

	_, err = FeatureImportances(fixedImportances{1}, []string{"a", "b"})
	var derr *errors.DimensionError
	assert.True(t, errors.As(err, &derr))
}

func TestWriteReadImportances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", registry.ImportanceCSV)
	want := []Importance{{"Mental Fatigue Score", 0.8}, {"Tenure", 0.2}}
	require.NoError(t, WriteImportances(path, want))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Feature,Importance\nMental Fatigue Score,0.8\nTenure,0.2\n", string(raw))

	got, err := ReadImportances(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ReadImportances(filepath.Join(t.TempDir(), "none.csv"))
	assert.True(t, errors.Is(err, errors.ErrArtifactNotFound))
}

func TestWriteImportancesReportsWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	imps := make([]Importance, 2000)
	for i := range imps {
		imps[i] = Importance{Feature: strings.Repeat("f", 20), Importance: 0.5}
	}
	assert.Error(t, WriteImportances("/dev/full", imps))
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	store, err := registry.Open(filepath.Join(dir, "models"))
	require.NoError(t, err)

	n := 40
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64((i*13)%7))
		y.Set(i, 0, float64(i)/float64(n))
	}
	rf := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(5))
	require.NoError(t, rf.Fit(X, y))
	require.NoError(t, store.SaveModel("randomforest", &model.Envelope{
		Name: rf.Name(), FeatureNames: []string{"signal", "noise"}, Model: rf,
	}))

	rep, err := Generate(store, filepath.Join(dir, "insights"), nil)
	require.NoError(t, err)
	assert.Equal(t, "signal", rep.Importances[0].Feature)

	info, err := os.Stat(rep.PlotPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	got, err := ReadImportances(rep.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, rep.Importances, got)
}

func TestGenerateWithoutForest(t *testing.T) {
	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	_, err = Generate(store, t.TempDir(), nil)
	assert.True(t, errors.Is(err, errors.ErrArtifactNotFound))
}

func edaTable() *dataset.Table {
	join := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)
	t := &dataset.Table{Source: "train", HasTarget: true}
	genders := []string{"Male", "Female"}
	companies := []string{"Service", "Product"}
	for i := 0; i < 24; i++ {
		jd := join.AddDate(-(i % 5), 0, 0)
		fatigue := float64(i%10) + 0.5
		t.Employees = append(t.Employees, dataset.Employee{
			ID:                 string(rune('a' + i)),
			JoinDate:           &jd,
			Gender:             genders[i%2],
			CompanyType:        companies[(i/2)%2],
			WFHSetupAvailable:  "Yes",
			Designation:        float64(i % 6),
			ResourceAllocation: float64(i%9 + 1),
			MentalFatigueScore: fatigue,
			BurnRate:           fatigue / 10,
		})
	}
	t.Employees[3].BurnRate = math.NaN()
	t.Employees[5].ResourceAllocation = math.NaN()
	return t
}

func TestEDAWritesCharts(t *testing.T) {
	dir := t.TempDir()
	paths, err := EDA(edaTable(), dir, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	require.Len(t, paths, 5)
	for _, name := range []string{DistributionPlot, FatiguePlot, DesignationPlot, CompanyTypePlot, CorrelationPlot} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}

func TestEDARequiresTarget(t *testing.T) {
	table := edaTable()
	table.HasTarget = false
	_, err := EDA(table, t.TempDir(), time.Now(), nil)
	var missing *errors.MissingColumnError
	assert.True(t, errors.As(err, &missing))
}

func TestCorrelations(t *testing.T) {
	corr := Correlations(edaTable(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, corr, len(CorrelationColumns))

	fatigue, burn := 2, 3
	assert.InDelta(t, 1, corr[fatigue][burn], 1e-9)
	assert.Equal(t, corr[fatigue][burn], corr[burn][fatigue])
	for i := range corr {
		assert.InDelta(t, 1, corr[i][i], 1e-9)
	}
}
