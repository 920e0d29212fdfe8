package linear

import (
	"time"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Ridge is L2-regularised least squares:
//
//	min ||y - Xw - b||² + alpha * ||w||²
//
// The intercept is not penalised; the problem is solved in closed form on
// centred data with a Cholesky factorisation of XᵀX + alpha·I.
type Ridge struct {
	Coefs
	Params Params
}

// NewRidge creates a Ridge model. alpha defaults to 1.0.
func NewRidge(opts ...Option) *Ridge {
	return &Ridge{
		Coefs:  Coefs{State: model.NewStateManager()},
		Params: newParams(1.0, opts),
	}
}

// Name implements model.Regressor.
func (r *Ridge) Name() string { return "Ridge" }

// Fit solves the ridge normal equations.
func (r *Ridge) Fit(X, y mat.Matrix) error {
	start := time.Now()
	if r.Params.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", r.Params.Alpha)
	}
	rows, cols, err := model.ValidateXy("Ridge.Fit", X, y)
	if err != nil {
		return err
	}

	Xc, yc, xMean, yMean := centered(X, y, r.Params.FitIntercept)

	gram := mat.NewSymDense(cols, nil)
	gram.SymOuterK(1, Xc.T())
	for j := 0; j < cols; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Params.Alpha)
	}

	rhs := mat.NewVecDense(cols, nil)
	rhs.MulVec(Xc.T(), mat.NewVecDense(rows, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return errors.NewModelError("Ridge.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	w := mat.NewVecDense(cols, nil)
	if err := chol.SolveVecTo(w, rhs); err != nil {
		return errors.NewModelError("Ridge.Fit", "solve failed", err)
	}

	r.Coef = mat.Col(nil, 0, w)
	r.Bias = 0
	if r.Params.FitIntercept {
		r.Bias = interceptFor(r.Coef, xMean, yMean)
	}

	if r.State == nil {
		r.State = model.NewStateManager()
	}
	r.State.SetFitted(cols, rows)
	r.Params.log().Debug("model fitted",
		log.ModelNameKey, r.Name(),
		log.RegularizationKey, r.Params.Alpha,
		log.SamplesKey, rows,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	return r.predict(r.Name(), X)
}
