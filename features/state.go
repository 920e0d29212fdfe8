package features

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/preprocessing"
	"github.com/YuminosukeSato/burnrate/registry"
)

// State is the fitted transformer: one label encoder per categorical
// column and the min-max scaler over ScaledColumns.
type State struct {
	Encoders map[string]*preprocessing.LabelEncoder
	Scaler   *preprocessing.MinMaxScaler
}

// Record is a single employee as entered on the dashboard. Tenure is given
// directly in years instead of being derived from a join date.
type Record struct {
	Gender             string
	CompanyType        string
	WFHSetupAvailable  string
	Designation        float64
	ResourceAllocation float64
	MentalFatigueScore float64
	Tenure             float64
}

// Save writes every encoder and the scaler to store.
func (s *State) Save(store *registry.Store) error {
	for _, col := range CategoricalColumns {
		enc, ok := s.Encoders[col]
		if !ok {
			return errors.NewNotFittedError("LabelEncoder "+col, "Save")
		}
		if err := store.Save(registry.EncoderName(col), enc); err != nil {
			return err
		}
	}
	return store.Save(registry.ScalerName, s.Scaler)
}

// LoadState reads the encoders and scaler written by State.Save.
func LoadState(store *registry.Store) (*State, error) {
	s := &State{Encoders: make(map[string]*preprocessing.LabelEncoder, len(CategoricalColumns))}
	for _, col := range CategoricalColumns {
		var enc preprocessing.LabelEncoder
		if err := store.Load(registry.EncoderName(col), &enc); err != nil {
			return nil, err
		}
		s.Encoders[col] = &enc
	}
	var scaler preprocessing.MinMaxScaler
	if err := store.Load(registry.ScalerName, &scaler); err != nil {
		return nil, err
	}
	s.Scaler = &scaler
	return s, nil
}

// TransformRecord returns the model input for r in dataset.FeatureColumns
// order. Mental fatigue is passed through unscaled.
func (s *State) TransformRecord(r Record) ([]float64, error) {
	values := []string{r.Gender, r.CompanyType, r.WFHSetupAvailable}
	codes := make([]float64, len(CategoricalColumns))
	for j, col := range CategoricalColumns {
		enc, ok := s.Encoders[col]
		if !ok {
			return nil, errors.NewNotFittedError("LabelEncoder "+col, "TransformRecord")
		}
		code, err := enc.Code(values[j])
		if err != nil {
			return nil, err
		}
		codes[j] = float64(code)
	}

	scaled := make([]float64, len(ScaledColumns))
	for j, v := range []float64{r.ResourceAllocation, r.Designation, r.Tenure} {
		sv, err := s.Scaler.TransformValue(j, v)
		if err != nil {
			return nil, err
		}
		scaled[j] = sv
	}

	return []float64{
		codes[0],
		codes[1],
		codes[2],
		scaled[0],
		r.MentalFatigueScore,
		scaled[1],
		scaled[2],
	}, nil
}

// frame builds the processed frame of t from its imputed numerics.
func (s *State) frame(t *dataset.Table, n *numeric) (*dataset.Frame, error) {
	codes := make(map[string][]float64, len(CategoricalColumns))
	for _, col := range CategoricalColumns {
		c, err := s.Encoders[col].Transform(t.Strings(col))
		if err != nil {
			return nil, err
		}
		codes[col] = c
	}

	scaledAny, err := s.Scaler.Transform(scaledMatrix(n))
	if err != nil {
		return nil, err
	}
	scaled := mat.DenseCopyOf(scaledAny)

	rows := t.Len()
	X := mat.NewDense(rows, len(dataset.FeatureColumns), nil)
	for i := 0; i < rows; i++ {
		X.SetRow(i, []float64{
			codes[dataset.ColGender][i],
			codes[dataset.ColCompanyType][i],
			codes[dataset.ColWFHSetupAvailable][i],
			scaled.At(i, 0),
			n.fatigue[i],
			scaled.At(i, 1),
			scaled.At(i, 2),
		})
	}

	f := &dataset.Frame{
		IDs:     t.Strings(dataset.ColEmployeeID),
		Columns: dataset.FeatureColumns,
		X:       X,
	}
	if t.HasTarget {
		f.Target = t.Floats(dataset.ColBurnRate)
	}
	return f, nil
}
