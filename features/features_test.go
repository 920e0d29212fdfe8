package features

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/registry"
)

var refNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fixtureTables() (*dataset.Table, *dataset.Table) {
	nan := math.NaN()
	train := &dataset.Table{
		Source:    "train",
		HasTarget: true,
		Employees: []dataset.Employee{
			{ID: "a1", JoinDate: day(2020, 1, 1), Gender: "Male", CompanyType: "Service", WFHSetupAvailable: "Yes",
				Designation: 1, ResourceAllocation: 2, MentalFatigueScore: 4, BurnRate: 0.3},
			{ID: "a2", JoinDate: day(2022, 1, 1), Gender: "Female", CompanyType: "Product", WFHSetupAvailable: "No",
				Designation: 3, ResourceAllocation: nan, MentalFatigueScore: nan, BurnRate: 0.5},
			{ID: "a3", Gender: "Male", CompanyType: "Product", WFHSetupAvailable: "Yes",
				Designation: 5, ResourceAllocation: 8, MentalFatigueScore: 6, BurnRate: 0.7},
			{ID: "a4", JoinDate: day(2024, 6, 1), Gender: "Female", CompanyType: "Service", WFHSetupAvailable: "No",
				Designation: 0, ResourceAllocation: 6, MentalFatigueScore: 8, BurnRate: 0.4},
		},
	}
	test := &dataset.Table{
		Source: "test",
		Employees: []dataset.Employee{
			{ID: "t1", JoinDate: day(2023, 1, 1), Gender: "Other", CompanyType: "Service", WFHSetupAvailable: "Yes",
				Designation: 6, ResourceAllocation: nan, MentalFatigueScore: 3, BurnRate: nan},
			{ID: "t2", JoinDate: day(2010, 1, 1), Gender: "Female", CompanyType: "Product", WFHSetupAvailable: "No",
				Designation: 2, ResourceAllocation: 10, MentalFatigueScore: nan, BurnRate: nan},
		},
	}
	return train, test
}

func preprocessFixture(t *testing.T, opts ...Option) *Result {
	t.Helper()
	train, test := fixtureTables()
	opts = append([]Option{WithClock(func() time.Time { return refNow })}, opts...)
	res, err := Preprocess(train, test, opts...)
	require.NoError(t, err)
	return res
}

func TestTenure(t *testing.T) {
	assert.Equal(t, 5.0, Tenure(day(2020, 1, 1), refNow))
	assert.Equal(t, 0.0, Tenure(day(2024, 6, 1), refNow))
	assert.Equal(t, 15.0, Tenure(day(2010, 1, 1), refNow))
	assert.True(t, math.IsNaN(Tenure(nil, refNow)))
}

func TestPreprocessEncodesOverUnion(t *testing.T) {
	res := preprocessFixture(t)

	assert.Equal(t, []string{"Female", "Male", "Other"}, res.State.Encoders[dataset.ColGender].Classes)
	assert.Equal(t, []string{"Product", "Service"}, res.State.Encoders[dataset.ColCompanyType].Classes)
	assert.Equal(t, []string{"No", "Yes"}, res.State.Encoders[dataset.ColWFHSetupAvailable].Classes)

	assert.Equal(t, []float64{1, 1, 1, 0, 4, 0.2, 1}, res.Train.X.RawRowView(0))
	assert.Equal(t, 2.0, res.Test.X.At(0, 0))
}

func TestPreprocessImputesAndScales(t *testing.T) {
	res := preprocessFixture(t)
	X := res.Train.X

	assert.Equal(t, dataset.FeatureColumns, res.Train.Columns)
	assert.Equal(t, []string{"a1", "a2", "a3", "a4"}, res.Train.IDs)
	assert.Equal(t, []float64{0.3, 0.5, 0.7, 0.4}, res.Train.Target)

	// Mental fatigue: train mean of {4, 6, 8}; unscaled.
	assert.Equal(t, 6.0, X.At(1, 4))
	// Resource allocation: median 6 of {2, 6, 8}, scaled over [2, 8].
	assert.InDelta(t, 4.0/6.0, X.At(1, 3), 1e-12)
	assert.Equal(t, 1.0, X.At(2, 3))
	// Designation over [0, 5].
	assert.InDelta(t, 0.6, X.At(1, 5), 1e-12)
	// Tenure over [0, 5]; unknown join date stays NaN.
	assert.InDelta(t, 0.6, X.At(1, 6), 1e-12)
	assert.True(t, math.IsNaN(X.At(2, 6)))

	for i := 0; i < res.Train.Len(); i++ {
		for _, j := range []int{3, 5, 6} {
			v := X.At(i, j)
			if !math.IsNaN(v) {
				assert.True(t, v >= 0 && v <= 1, "train value %v outside [0,1]", v)
			}
		}
	}
}

func TestPreprocessTestUsesOwnImputationAndTrainScaler(t *testing.T) {
	res := preprocessFixture(t)
	X := res.Test.X

	assert.Nil(t, res.Test.Target)
	// Resource allocation imputed with the test median (10), scaled with train range.
	assert.InDelta(t, 8.0/6.0, X.At(0, 3), 1e-12)
	// Mental fatigue imputed with the test mean (3).
	assert.Equal(t, 3.0, X.At(1, 4))
	assert.InDelta(t, 1.2, X.At(0, 5), 1e-12)
	assert.InDelta(t, 0.4, X.At(0, 6), 1e-12)
	assert.InDelta(t, 3.0, X.At(1, 6), 1e-12)
}

func TestPreprocessTrainOnlyEncoderRejectsUnseen(t *testing.T) {
	train, test := fixtureTables()
	_, err := Preprocess(train, test,
		WithClock(func() time.Time { return refNow }),
		WithEncoderFit(EncoderFitTrain))
	require.Error(t, err)

	var unknown *errors.UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, dataset.ColGender, unknown.Column)
	assert.Equal(t, "Other", unknown.Value)
}

func TestPreprocessRejectsBadInput(t *testing.T) {
	_, test := fixtureTables()
	_, err := Preprocess(&dataset.Table{}, test)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	train, test := fixtureTables()
	_, err = Preprocess(train, test, WithEncoderFit("both"))
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestTransformRecordMatchesBatch(t *testing.T) {
	res := preprocessFixture(t)

	got, err := res.State.TransformRecord(Record{
		Gender:             "Male",
		CompanyType:        "Service",
		WFHSetupAvailable:  "Yes",
		Designation:        1,
		ResourceAllocation: 2,
		MentalFatigueScore: 4,
		Tenure:             5,
	})
	require.NoError(t, err)
	assert.Equal(t, res.Train.X.RawRowView(0), got)

	_, err = res.State.TransformRecord(Record{Gender: "Robot", CompanyType: "Service", WFHSetupAvailable: "Yes"})
	var unknown *errors.UnknownCategoryError
	assert.True(t, errors.As(err, &unknown))
}

func TestResultSaveAndLoadState(t *testing.T) {
	res := preprocessFixture(t)
	dir := t.TempDir()
	store, err := registry.Open(filepath.Join(dir, "models"))
	require.NoError(t, err)

	require.NoError(t, res.Save(store, dir))
	assert.True(t, store.Exists("company_type_encoder"))
	assert.True(t, store.Exists("wfh_setup_available_encoder"))
	assert.True(t, store.Exists(registry.ScalerName))

	loaded, err := LoadState(store)
	require.NoError(t, err)
	rec := Record{Gender: "Other", CompanyType: "Product", WFHSetupAvailable: "No",
		Designation: 4, ResourceAllocation: 5, MentalFatigueScore: 7.5, Tenure: 2}
	want, err := res.State.TransformRecord(rec)
	require.NoError(t, err)
	got, err := loaded.TransformRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	train, err := dataset.ReadFrame(filepath.Join(dir, TrainProcessedFile))
	require.NoError(t, err)
	assert.Equal(t, 4, train.Len())
	assert.Equal(t, res.Train.Target, train.Target)

	test, err := dataset.ReadFrame(filepath.Join(dir, TestProcessedFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, test.IDs)
	assert.Nil(t, test.Target)
}

func TestLoadStateMissingArtifacts(t *testing.T) {
	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	_, err = LoadState(store)
	assert.True(t, errors.Is(err, errors.ErrArtifactNotFound))
}
