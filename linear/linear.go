// Package linear は最小二乗法・Ridge・Lasso による線形回帰モデルを提供する。
package linear

import (
	"encoding/gob"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func init() {
	gob.Register(&LinearRegression{})
	gob.Register(&Ridge{})
	gob.Register(&Lasso{})
}

var (
	_ model.LinearModel = (*LinearRegression)(nil)
	_ model.LinearModel = (*Ridge)(nil)
	_ model.LinearModel = (*Lasso)(nil)
)

// Coefs は学習済みの係数と切片。各モデルに埋め込まれ gob でそのまま保存される。
type Coefs struct {
	State *model.StateManager
	Coef  []float64
	Bias  float64
}

// Coefficients は学習された重み（係数）を返す
func (c *Coefs) Coefficients() []float64 {
	return append([]float64(nil), c.Coef...)
}

// Intercept は学習された切片を返す
func (c *Coefs) Intercept() float64 {
	return c.Bias
}

func (c *Coefs) predict(name string, X mat.Matrix) (mat.Matrix, error) {
	if c.State == nil {
		return nil, errors.NewNotFittedError(name, "Predict")
	}
	if err := c.State.RequireFitted(name, "Predict"); err != nil {
		return nil, err
	}
	if err := c.State.CheckFeatures(name+".Predict", X); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	w := mat.NewVecDense(len(c.Coef), c.Coef)
	out := mat.NewVecDense(rows, nil)
	out.MulVec(X, w)
	pred := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		pred.Set(i, 0, out.AtVec(i)+c.Bias)
	}
	return pred, nil
}

// centered returns X and y with their column means removed, together with
// the means. With fitIntercept false the means are zero and the inputs are
// copied unchanged.
func centered(X, y mat.Matrix, fitIntercept bool) (*mat.Dense, []float64, []float64, float64) {
	rows, cols := X.Dims()
	Xc := mat.DenseCopyOf(X)
	yc := mat.Col(nil, 0, y)
	xMean := make([]float64, cols)
	var yMean float64

	if fitIntercept {
		for j := 0; j < cols; j++ {
			xMean[j] = stat.Mean(mat.Col(nil, j, X), nil)
			for i := 0; i < rows; i++ {
				Xc.Set(i, j, Xc.At(i, j)-xMean[j])
			}
		}
		yMean = stat.Mean(yc, nil)
		for i := range yc {
			yc[i] -= yMean
		}
	}
	return Xc, yc, xMean, yMean
}

// interceptFor recovers the intercept of a model fitted on centred data.
func interceptFor(w, xMean []float64, yMean float64) float64 {
	b := yMean
	for j := range w {
		b -= xMean[j] * w[j]
	}
	return b
}
