// Package features turns raw employee tables into the numeric model input:
// label-encoded categoricals, imputed numerics, a derived tenure column and
// min-max scaling of resource allocation, designation and tenure.
package features

import (
	"math"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/preprocessing"
	"github.com/YuminosukeSato/burnrate/registry"
)

// Output file names inside the processed directory.
const (
	TrainProcessedFile = "train_processed.csv"
	TestProcessedFile  = "test_processed.csv"
)

// CategoricalColumns are label encoded.
var CategoricalColumns = []string{
	dataset.ColGender,
	dataset.ColCompanyType,
	dataset.ColWFHSetupAvailable,
}

// ScaledColumns are min-max scaled, in scaler column order.
var ScaledColumns = []string{
	dataset.ColResourceAllocation,
	dataset.ColDesignation,
	dataset.ColTenure,
}

// Result is the outcome of Preprocess.
type Result struct {
	Train *dataset.Frame
	Test  *dataset.Frame
	State *State
}

// Preprocess fits the transformer state and produces processed train and
// test frames with identical feature columns.
//
// Encoding: one label encoder per categorical column, fit over train and
// test (EncoderFitUnion) or train only (EncoderFitTrain).
// Imputation: Mental Fatigue Score ← mean, Resource Allocation ← median,
// each table using its own statistics.
// Tenure: whole years between the clock and the join date; NaN if unknown.
// Scaling: fit on train only, applied unchanged to test.
func Preprocess(train, test *dataset.Table, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	start := time.Now()

	if train == nil || train.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "training table")
	}
	if test == nil {
		test = &dataset.Table{Source: "empty"}
	}

	state := &State{Encoders: make(map[string]*preprocessing.LabelEncoder, len(CategoricalColumns))}
	for _, col := range CategoricalColumns {
		enc := preprocessing.NewLabelEncoder(col)
		var err error
		switch o.encoderFit {
		case EncoderFitUnion:
			err = enc.Fit(train.Strings(col), test.Strings(col))
		case EncoderFitTrain:
			err = enc.Fit(train.Strings(col))
		default:
			return nil, errors.NewValidationError("encoder_fit", "must be union or train", o.encoderFit)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "fit encoder %s", col)
		}
		state.Encoders[col] = enc
	}

	now := o.now()
	trainCols, err := numericColumns(train, now, o.logger)
	if err != nil {
		return nil, errors.Wrap(err, "training table")
	}

	state.Scaler = preprocessing.NewMinMaxScalerDefault()
	if err := state.Scaler.Fit(scaledMatrix(trainCols)); err != nil {
		return nil, errors.Wrap(err, "fit scaler")
	}

	trainFrame, err := state.frame(train, trainCols)
	if err != nil {
		return nil, errors.Wrap(err, "transform training table")
	}

	testFrame := &dataset.Frame{Columns: dataset.FeatureColumns, X: &mat.Dense{}}
	if test.Len() > 0 {
		testCols, err := numericColumns(test, now, o.logger)
		if err != nil {
			return nil, errors.Wrap(err, "test table")
		}
		if testFrame, err = state.frame(test, testCols); err != nil {
			return nil, errors.Wrap(err, "transform test table")
		}
	}

	o.logger.Info("preprocessing complete",
		log.OperationKey, log.OperationPreprocess,
		"train_rows", trainFrame.Len(),
		"test_rows", testFrame.Len(),
		"encoder_fit", o.encoderFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &Result{Train: trainFrame, Test: testFrame, State: state}, nil
}

// Save persists the transformer state to store and writes the processed
// tables into dir.
func (r *Result) Save(store *registry.Store, dir string) error {
	if err := r.State.Save(store); err != nil {
		return err
	}
	if err := dataset.WriteFrame(filepath.Join(dir, TrainProcessedFile), r.Train); err != nil {
		return err
	}
	return dataset.WriteFrame(filepath.Join(dir, TestProcessedFile), r.Test)
}

// Tenure returns whole years between join and now, flooring like integer
// division of elapsed days by 365. A nil join date yields NaN.
func Tenure(join *time.Time, now time.Time) float64 {
	if join == nil {
		return math.NaN()
	}
	days := math.Floor(now.Sub(*join).Hours() / 24)
	return math.Floor(days / 365)
}

// numeric holds the imputed numeric columns of one table plus tenure.
type numeric struct {
	resource, fatigue, designation, tenure []float64
}

func numericColumns(t *dataset.Table, now time.Time, logger log.Logger) (*numeric, error) {
	fatigueImp, _ := preprocessing.NewSimpleImputer(preprocessing.StrategyMean)
	fatigue, err := fatigueImp.FitTransform(t.Floats(dataset.ColMentalFatigue))
	if err != nil {
		return nil, errors.Wrapf(err, "impute %s", dataset.ColMentalFatigue)
	}
	resourceImp, _ := preprocessing.NewSimpleImputer(preprocessing.StrategyMedian)
	resource, err := resourceImp.FitTransform(t.Floats(dataset.ColResourceAllocation))
	if err != nil {
		return nil, errors.Wrapf(err, "impute %s", dataset.ColResourceAllocation)
	}

	logger.Debug("imputed missing values",
		log.ArtifactKey, t.Source,
		dataset.ColMentalFatigue, fatigueImp.NMissing,
		dataset.ColResourceAllocation, resourceImp.NMissing,
	)

	tenure := make([]float64, t.Len())
	for i, e := range t.Employees {
		tenure[i] = Tenure(e.JoinDate, now)
	}
	return &numeric{
		resource:    resource,
		fatigue:     fatigue,
		designation: t.Floats(dataset.ColDesignation),
		tenure:      tenure,
	}, nil
}

func scaledMatrix(n *numeric) *mat.Dense {
	X := mat.NewDense(len(n.resource), len(ScaledColumns), nil)
	for i := range n.resource {
		X.SetRow(i, []float64{n.resource[i], n.designation[i], n.tenure[i]})
	}
	return X
}
