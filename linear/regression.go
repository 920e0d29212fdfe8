package linear

import (
	"time"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression is ordinary least squares solved with a QR decomposition.
type LinearRegression struct {
	Coefs
	Params Params
}

// NewLinearRegression は新しいLinearRegressionモデルを作成
func NewLinearRegression(opts ...Option) *LinearRegression {
	return &LinearRegression{
		Coefs:  Coefs{State: model.NewStateManager()},
		Params: newParams(0, opts),
	}
}

// Name implements model.Regressor.
func (lr *LinearRegression) Name() string { return "LinearRegression" }

// Fit はモデルを訓練データで学習
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	start := time.Now()
	rows, cols, err := model.ValidateXy("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}

	width := cols
	if lr.Params.FitIntercept {
		width++
	}
	if rows < width {
		return errors.NewValueError("LinearRegression.Fit", "fewer samples than coefficients")
	}

	// [1 | X] の行列を作成
	design := mat.NewDense(rows, width, nil)
	offset := width - cols
	for i := 0; i < rows; i++ {
		if offset == 1 {
			design.Set(i, 0, 1.0)
		}
		for j := 0; j < cols; j++ {
			design.Set(i, j+offset, X.At(i, j))
		}
	}

	// 正規方程式より数値的に安定なQR分解を使用
	var qr mat.QR
	qr.Factorize(design)
	solution := mat.NewDense(width, 1, nil)
	if err := qr.SolveTo(solution, false, y); err != nil {
		// ランク落ち（定数列など）の場合は最小ノルム解にフォールバック
		lr.Params.log().Debug("rank-deficient design, using minimum-norm solution",
			log.ModelNameKey, lr.Name(), "reason", err.Error())
		if solution, err = minNormSolve(design, y); err != nil {
			return errors.NewModelError("LinearRegression.Fit", "singular matrix", err)
		}
	}

	lr.Coef = make([]float64, cols)
	for j := 0; j < cols; j++ {
		lr.Coef[j] = solution.At(j+offset, 0)
	}
	lr.Bias = 0
	if offset == 1 {
		lr.Bias = solution.At(0, 0)
	}

	if lr.State == nil {
		lr.State = model.NewStateManager()
	}
	lr.State.SetFitted(cols, rows)
	lr.Params.log().Debug("model fitted",
		log.ModelNameKey, lr.Name(),
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// minNormSolve は SVD による最小ノルム最小二乗解を返す
func minNormSolve(A, b mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDThin) {
		return nil, errors.Wrap(errors.ErrSingularMatrix, "svd did not converge")
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return nil, errors.Wrap(errors.ErrSingularMatrix, "design matrix has rank 0")
	}
	var x mat.Dense
	svd.SolveTo(&x, b, rank)
	return &x, nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	return lr.predict(lr.Name(), X)
}
