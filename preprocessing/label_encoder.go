package preprocessing

import (
	"slices"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
)

// LabelEncoder maps category strings to integer codes. Classes are sorted
// lexicographically and a value's code is its index in Classes.
// There is no bucket for unseen values: Transform rejects them.
type LabelEncoder struct {
	State *model.StateManager

	// Column names the encoded column in errors and artifact keys.
	Column  string
	Classes []string
}

// NewLabelEncoder creates an unfitted encoder for column.
func NewLabelEncoder(column string) *LabelEncoder {
	return &LabelEncoder{State: model.NewStateManager(), Column: column}
}

// Fit learns the sorted set of distinct values. Several slices may be
// passed; the classes are their union.
func (e *LabelEncoder) Fit(values ...[]string) error {
	var all []string
	for _, v := range values {
		all = append(all, v...)
	}
	if len(all) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	classes := slices.Clone(all)
	slices.Sort(classes)
	e.Classes = slices.Compact(classes)
	e.State.SetFitted(1, len(all))
	return nil
}

// Code returns the integer code of a single value.
func (e *LabelEncoder) Code(value string) (int, error) {
	if err := e.State.RequireFitted("LabelEncoder("+e.Column+")", "Transform"); err != nil {
		return 0, err
	}
	i, ok := slices.BinarySearch(e.Classes, value)
	if !ok {
		return 0, errors.NewUnknownCategoryError(e.Column, value)
	}
	return i, nil
}

// Transform encodes values, failing on the first unseen category.
func (e *LabelEncoder) Transform(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		code, err := e.Code(v)
		if err != nil {
			return nil, err
		}
		out[i] = float64(code)
	}
	return out, nil
}

// FitTransform fits on values and encodes them.
func (e *LabelEncoder) FitTransform(values []string) ([]float64, error) {
	if err := e.Fit(values); err != nil {
		return nil, err
	}
	return e.Transform(values)
}

// InverseTransform maps a code back to its category.
func (e *LabelEncoder) InverseTransform(code int) (string, error) {
	if err := e.State.RequireFitted("LabelEncoder("+e.Column+")", "InverseTransform"); err != nil {
		return "", err
	}
	if code < 0 || code >= len(e.Classes) {
		return "", errors.NewValidationError("code", "out of range", code)
	}
	return e.Classes[code], nil
}
