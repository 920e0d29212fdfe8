package linear

import (
	"math"
	"time"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Lasso is L1-regularised least squares minimising
//
//	(1 / (2n)) * ||y - Xw - b||² + alpha * ||w||₁
//
// by cyclic coordinate descent on centred data. Iteration stops once the
// largest coefficient update is below Tol relative to the largest
// coefficient and the duality gap is below Tol·||y||². Hitting MaxIter
// raises a ConvergenceWarning and keeps the last iterate.
type Lasso struct {
	Coefs
	Params Params

	NIter     int
	DualGap   float64
	Converged bool
}

// NewLasso creates a Lasso model. alpha defaults to 0.1.
func NewLasso(opts ...Option) *Lasso {
	return &Lasso{
		Coefs:  Coefs{State: model.NewStateManager()},
		Params: newParams(0.1, opts),
	}
}

// Name implements model.Regressor.
func (l *Lasso) Name() string { return "Lasso" }

// Fit runs coordinate descent.
func (l *Lasso) Fit(X, y mat.Matrix) error {
	start := time.Now()
	if l.Params.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", l.Params.Alpha)
	}
	if l.Params.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", l.Params.MaxIter)
	}
	rows, cols, err := model.ValidateXy("Lasso.Fit", X, y)
	if err != nil {
		return err
	}

	Xc, yc, xMean, yMean := centered(X, y, l.Params.FitIntercept)

	columns := make([][]float64, cols)
	normSq := make([]float64, cols)
	for j := 0; j < cols; j++ {
		columns[j] = mat.Col(nil, j, Xc)
		normSq[j] = floats.Dot(columns[j], columns[j])
	}

	alphaN := l.Params.Alpha * float64(rows)
	tol := l.Params.Tol * floats.Dot(yc, yc)
	w := make([]float64, cols)
	residual := append([]float64(nil), yc...)

	l.Converged = false
	l.DualGap = math.Inf(1)
	var iter int
	for iter = 1; iter <= l.Params.MaxIter; iter++ {
		var wMax, dMax float64
		for j := 0; j < cols; j++ {
			if normSq[j] == 0 {
				continue
			}
			old := w[j]
			if old != 0 {
				floats.AddScaled(residual, old, columns[j])
			}
			rho := floats.Dot(columns[j], residual)
			w[j] = errors.SoftThreshold(rho, alphaN) / normSq[j]
			if w[j] != 0 {
				floats.AddScaled(residual, -w[j], columns[j])
			}
			dMax = math.Max(dMax, math.Abs(w[j]-old))
			wMax = math.Max(wMax, math.Abs(w[j]))
		}

		if err := errors.CheckNumericalStability("coordinate_descent", w, iter); err != nil {
			return err
		}

		if wMax == 0 || dMax/wMax < l.Params.Tol || iter == l.Params.MaxIter {
			l.DualGap = dualityGap(columns, residual, yc, w, alphaN)
			if l.DualGap <= tol {
				l.Converged = true
				break
			}
		}
	}
	if iter > l.Params.MaxIter {
		iter = l.Params.MaxIter
	}
	l.NIter = iter

	if !l.Converged {
		errors.Warn(errors.NewConvergenceWarning(l.Name(), iter,
			"objective did not converge; consider increasing max_iter"))
	}

	l.Coef = w
	l.Bias = 0
	if l.Params.FitIntercept {
		l.Bias = interceptFor(w, xMean, yMean)
	}

	if l.State == nil {
		l.State = model.NewStateManager()
	}
	l.State.SetFitted(cols, rows)
	l.Params.log().Debug("model fitted",
		log.ModelNameKey, l.Name(),
		log.RegularizationKey, l.Params.Alpha,
		log.IterationKey, iter,
		log.SamplesKey, rows,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict は入力データに対する予測を行う
func (l *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	return l.predict(l.Name(), X)
}

// dualityGap of the lasso problem scaled by n (the form coordinate descent
// works in).
func dualityGap(columns [][]float64, residual, y, w []float64, alphaN float64) float64 {
	var dualNorm float64
	for _, c := range columns {
		dualNorm = math.Max(dualNorm, math.Abs(floats.Dot(c, residual)))
	}
	rNorm2 := floats.Dot(residual, residual)

	scale := 1.0
	gap := rNorm2
	if dualNorm > alphaN {
		scale = alphaN / dualNorm
		gap = 0.5 * (rNorm2 + rNorm2*scale*scale)
	}
	return gap + alphaN*floats.Norm(w, 1) - scale*floats.Dot(residual, y)
}
