// Package inference applies the selected model to processed tables and to
// single dashboard records.
package inference

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/registry"

	// Concrete model types must be registered with gob before loading.
	_ "github.com/YuminosukeSato/burnrate/ensemble"
	_ "github.com/YuminosukeSato/burnrate/linear"
)

// Predictor wraps the persisted best model.
type Predictor struct {
	env    *model.Envelope
	logger log.Logger
}

// NewPredictor wraps an already loaded envelope.
func NewPredictor(env *model.Envelope, logger log.Logger) *Predictor {
	if logger == nil {
		logger = log.Component("inference")
	}
	return &Predictor{env: env, logger: logger}
}

// LoadPredictor loads the best model from store.
func LoadPredictor(store *registry.Store, logger log.Logger) (*Predictor, error) {
	env, err := store.LoadModel(registry.BestModel)
	if err != nil {
		return nil, err
	}
	return NewPredictor(env, logger), nil
}

// ModelName returns the candidate name of the wrapped model.
func (p *Predictor) ModelName() string { return p.env.Name }

// FeatureNames returns the column order the model was trained on.
func (p *Predictor) FeatureNames() []string { return p.env.FeatureNames }

// PredictFrame predicts every row of f, clipped to [0, 1], keeping the row
// order and identifiers of f.
func (p *Predictor) PredictFrame(f *dataset.Frame) ([]dataset.Submission, error) {
	if len(p.env.FeatureNames) > 0 && !slices.Equal(f.Columns, p.env.FeatureNames) {
		return nil, errors.NewValidationError("columns",
			"processed table does not match the model's feature order", f.Columns)
	}
	out := make([]dataset.Submission, f.Len())
	if f.Len() == 0 {
		return out, nil
	}

	start := time.Now()
	pred, err := p.env.Model.Predict(f.X)
	if err != nil {
		return nil, errors.Wrapf(err, "predict with %s", p.env.Name)
	}
	for i := range out {
		out[i] = dataset.Submission{ID: f.IDs[i], BurnRate: Clip(pred.At(i, 0))}
	}

	p.logger.Info("batch prediction complete",
		log.ModelNameKey, p.env.Name,
		log.OperationKey, log.OperationPredict,
		log.PredsKey, len(out),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}

// PredictOne returns the clipped estimate for one feature vector.
func (p *Predictor) PredictOne(x []float64) (float64, error) {
	pred, err := p.env.Model.Predict(mat.NewDense(1, len(x), slices.Clone(x)))
	if err != nil {
		return 0, errors.Wrapf(err, "predict with %s", p.env.Name)
	}
	return Clip(pred.At(0, 0)), nil
}

// Run loads the best model from store, predicts the processed test table
// at testPath and writes the submission to outPath. It returns the number
// of rows written.
func Run(store *registry.Store, testPath, outPath string, logger log.Logger) (int, error) {
	p, err := LoadPredictor(store, logger)
	if err != nil {
		return 0, err
	}
	f, err := dataset.ReadFrame(testPath)
	if err != nil {
		return 0, err
	}
	rows, err := p.PredictFrame(f)
	if err != nil {
		return 0, err
	}
	if err := dataset.WriteSubmissions(outPath, rows); err != nil {
		return 0, err
	}
	p.logger.Info("submission written", log.ArtifactKey, outPath, log.PredsKey, len(rows))
	return len(rows), nil
}
