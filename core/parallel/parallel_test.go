package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelize_CoversEveryIndexOnce(t *testing.T) {
	const n = 1037
	var hits [n]int32

	Parallelize(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestParallelize_Empty(t *testing.T) {
	called := false
	Parallelize(0, func(start, end int) { called = true })
	assert.False(t, called)
}

func TestParallelizeWithThreshold_Sequential(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, int32(1), calls)
}

func TestParallelizeErr_ReturnsLowestRangeError(t *testing.T) {
	errLow := errors.New("low")
	err := ParallelizeErr(100, func(start, end int) error {
		if start == 0 {
			return errLow
		}
		return errors.New("other")
	})
	assert.Equal(t, errLow, err)
}

func TestParallelizeErrWithThreshold(t *testing.T) {
	assert.NoError(t, ParallelizeErrWithThreshold(5, 10, func(start, end int) error { return nil }))

	boom := errors.New("boom")
	assert.Equal(t, boom, ParallelizeErrWithThreshold(5, 10, func(start, end int) error { return boom }))
}
