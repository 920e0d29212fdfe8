package training

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
)

// Split shuffles n row indices with seed and returns the training and
// validation partitions. The validation side holds ceil(n·testSize) rows.
// The same n, testSize and seed always produce the same partition.
func Split(n int, testSize float64, seed uint64) (train, validation []int, err error) {
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nVal := int(math.Ceil(float64(n) * testSize))
	if nVal < 1 || n-nVal < 1 {
		return nil, nil, errors.NewModelError("training.Split",
			"not enough rows for a train/validation split", errors.ErrEmptyData)
	}

	perm := rand.New(rand.NewPCG(seed, 0)).Perm(n)
	return perm[nVal:], perm[:nVal], nil
}

// DropMissingTarget returns f without rows whose target is NaN, and the
// number of rows removed.
func DropMissingTarget(f *dataset.Frame) (*dataset.Frame, int, error) {
	if f.Target == nil {
		return nil, 0, errors.NewMissingColumnError("processed training table", dataset.ColBurnRate)
	}
	keep := make([]int, 0, len(f.Target))
	for i, v := range f.Target {
		if !math.IsNaN(v) {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(f.Target) {
		return f, 0, nil
	}
	return f.Subset(slices.Clip(keep)), len(f.Target) - len(keep), nil
}
