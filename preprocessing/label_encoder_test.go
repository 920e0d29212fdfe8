package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/burnrate/pkg/errors"
)

func TestLabelEncoder_UnionFit(t *testing.T) {
	enc := NewLabelEncoder("Company Type")
	require.NoError(t, enc.Fit([]string{"Service", "Product", "Service"}, []string{"Product"}))

	assert.Equal(t, []string{"Product", "Service"}, enc.Classes)

	codes, err := enc.Transform([]string{"Service", "Product"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, codes)

	name, err := enc.InverseTransform(1)
	require.NoError(t, err)
	assert.Equal(t, "Service", name)

	_, err = enc.InverseTransform(2)
	assert.Error(t, err)
}

func TestLabelEncoder_RejectsUnseen(t *testing.T) {
	enc := NewLabelEncoder("Gender")
	_, err := enc.FitTransform([]string{"Female", "Male"})
	require.NoError(t, err)

	_, err = enc.Transform([]string{"Male", "Other"})
	var catErr *errors.UnknownCategoryError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, "Gender", catErr.Column)
	assert.Equal(t, "Other", catErr.Value)
}

func TestLabelEncoder_NotFittedAndEmpty(t *testing.T) {
	enc := NewLabelEncoder("WFH Setup Available")

	_, err := enc.Code("Yes")
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	assert.True(t, errors.Is(enc.Fit(nil), errors.ErrEmptyData))
}
