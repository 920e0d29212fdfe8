// Package training fits the candidate regressors on the processed training
// table, selects the one with the lowest validation MSE and persists every
// candidate plus the winner through the registry.
package training

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/metrics"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/registry"
)

// Result is one fitted candidate and its validation scores.
type Result struct {
	Name   string
	Model  model.Regressor
	Report metrics.Report
}

// Outcome is the result of a training run.
type Outcome struct {
	Results  []Result
	Best     int
	Manifest *registry.Manifest
}

// BestResult returns the selected candidate.
func (o *Outcome) BestResult() Result { return o.Results[o.Best] }

// Option configures a Trainer.
type Option func(*Trainer)

// WithCandidates replaces the default candidate list.
func WithCandidates(c []Candidate) Option {
	return func(t *Trainer) { t.candidates = c }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithClock sets the clock used for the manifest timestamp.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) { t.now = now }
}

// Trainer runs model selection.
type Trainer struct {
	cfg        Config
	candidates []Candidate
	logger     log.Logger
	now        func() time.Time
}

// NewTrainer creates a trainer for cfg.
func NewTrainer(cfg Config, opts ...Option) *Trainer {
	t := &Trainer{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.Component("training")
	}
	if t.candidates == nil {
		t.candidates = DefaultCandidates(cfg, t.logger)
	}
	return t
}

// Run fits every candidate on the training partition of f, scores it on the
// validation partition and persists the results to store. Any fit or
// evaluation failure aborts the run before anything is written.
func (t *Trainer) Run(ctx context.Context, f *dataset.Frame, store *registry.Store) (*Outcome, error) {
	if len(t.candidates) == 0 {
		return nil, errors.NewValidationError("candidates", "at least one candidate is required", 0)
	}
	runID := registry.NewRunID()
	logger := t.logger.With(log.RunIDKey, runID)

	clean, dropped, err := DropMissingTarget(f)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		logger.Warn("dropped rows with missing target", log.DroppedRowsKey, dropped)
	}

	// 検証側だけに NaN が入ると全候補の MSE が NaN になり選択が壊れる
	rows, cols := clean.X.Dims()
	if err := errors.CheckMatrix("training.Run", clean.X, rows, cols, 0); err != nil {
		return nil, errors.NewModelError("training.Validate", "non-finite features", err)
	}

	trainIdx, valIdx, err := Split(clean.Len(), t.cfg.TestSize, t.cfg.SplitSeed)
	if err != nil {
		return nil, err
	}
	trainSet, valSet := clean.Subset(trainIdx), clean.Subset(valIdx)
	yTrain, _ := trainSet.TargetMatrix()
	yVal, _ := valSet.TargetMatrix()

	logger.Info("starting model selection",
		log.SamplesKey, trainSet.Len(),
		"validation_samples", valSet.Len(),
		log.FeaturesKey, len(clean.Columns),
		log.RandomSeedKey, t.cfg.SplitSeed,
	)

	results := make([]Result, 0, len(t.candidates))
	for _, c := range t.candidates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "training cancelled")
		}
		res, err := t.fitCandidate(c, trainSet.X, yTrain, valSet.X, yVal, logger)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	best := Select(results)
	logger.Info("best model selected",
		log.ModelNameKey, results[best].Name,
		log.MSEKey, results[best].Report.MSE,
		log.R2ScoreKey, results[best].Report.R2,
	)

	manifest := &registry.Manifest{
		RunID:          runID,
		CreatedAt:      t.now().UTC(),
		FeatureNames:   clean.Columns,
		TrainingRows:   trainSet.Len(),
		ValidationRows: valSet.Len(),
		DroppedRows:    dropped,
	}
	if err := persist(store, clean.Columns, results, best, manifest); err != nil {
		return nil, err
	}
	return &Outcome{Results: results, Best: best, Manifest: manifest}, nil
}

func (t *Trainer) fitCandidate(c Candidate, X, y, XVal, yVal *mat.Dense, logger log.Logger) (Result, error) {
	start := time.Now()
	m := c.New()
	err := errors.SafeExecute(c.Name+".Fit", func() error {
		return m.Fit(X, y)
	})
	if err != nil {
		return Result{}, errors.NewModelError("training.Fit", c.Name, err)
	}

	var pred mat.Matrix
	err = errors.SafeExecute(c.Name+".Predict", func() error {
		var perr error
		pred, perr = m.Predict(XVal)
		return perr
	})
	if err != nil {
		return Result{}, errors.NewModelError("training.Evaluate", c.Name, err)
	}
	report, err := metrics.Evaluate(yVal, pred)
	if err != nil {
		return Result{}, errors.NewModelError("training.Evaluate", c.Name, err)
	}
	if math.IsNaN(report.MSE) || math.IsInf(report.MSE, 0) {
		return Result{}, errors.NewModelError("training.Evaluate", c.Name,
			errors.NewNumericalInstabilityError(c.Name+".Predict", []float64{report.MSE}, 0))
	}

	logger.Info("candidate evaluated",
		log.ModelNameKey, c.Name,
		log.PhaseKey, log.PhaseValidation,
		log.MSEKey, report.MSE,
		log.R2ScoreKey, report.R2,
		"rmse", report.RMSE,
		"mae", report.MAE,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return Result{Name: c.Name, Model: m, Report: report}, nil
}

// Select returns the index of the result with the strictly lowest MSE.
// Ties keep the earlier candidate.
func Select(results []Result) int {
	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].Report.MSE < results[best].Report.MSE {
			best = i
		}
	}
	return best
}

func persist(store *registry.Store, features []string, results []Result, best int, m *registry.Manifest) error {
	m.Candidates = make([]registry.CandidateResult, len(results))
	for i, r := range results {
		m.Candidates[i] = registry.CandidateResult{
			Name:     r.Name,
			Artifact: registry.ModelName(r.Name),
			MSE:      r.Report.MSE,
			RMSE:     r.Report.RMSE,
			MAE:      r.Report.MAE,
			R2:       r.Report.R2,
		}
	}
	m.Best = results[best].Name
	// 何か書く前にマニフェストがエンコードできることを確かめる
	if _, err := m.Encode(); err != nil {
		return err
	}

	for i, r := range results {
		name := m.Candidates[i].Artifact
		env := &model.Envelope{
			Name:         r.Name,
			FeatureNames: features,
			Metrics:      r.Report.Map(),
			Model:        r.Model,
		}
		if err := store.SaveModel(name, env); err != nil {
			return err
		}
		sum, err := store.Checksum(name)
		if err != nil {
			return err
		}
		m.Candidates[i].Checksum = sum
		if i == best {
			if err := store.SaveModel(registry.BestModel, env); err != nil {
				return err
			}
		}
	}
	return store.SaveManifest(m)
}
