package linear

import "github.com/YuminosukeSato/burnrate/pkg/log"

// Params holds the hyperparameters shared by the linear candidates.
// Only the fields a model uses are consulted.
type Params struct {
	FitIntercept bool
	Alpha        float64
	MaxIter      int
	Tol          float64

	logger log.Logger
}

// Option is a function that configures a linear model.
type Option func(*Params)

// WithFitIntercept sets whether to calculate the intercept.
func WithFitIntercept(fit bool) Option {
	return func(p *Params) {
		p.FitIntercept = fit
	}
}

// WithAlpha sets the regularization strength (Ridge, Lasso).
func WithAlpha(alpha float64) Option {
	return func(p *Params) {
		p.Alpha = alpha
	}
}

// WithMaxIter caps coordinate descent sweeps (Lasso).
func WithMaxIter(n int) Option {
	return func(p *Params) {
		p.MaxIter = n
	}
}

// WithTol sets the tolerance for the optimization (Lasso).
func WithTol(tol float64) Option {
	return func(p *Params) {
		p.Tol = tol
	}
}

// WithLogger sets the logger used during Fit.
func WithLogger(l log.Logger) Option {
	return func(p *Params) {
		p.logger = l
	}
}

func newParams(alpha float64, opts []Option) Params {
	p := Params{
		FitIntercept: true,
		Alpha:        alpha,
		MaxIter:      1000,
		Tol:          1e-4,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p *Params) log() log.Logger {
	if p.logger == nil {
		return log.Component("linear")
	}
	return p.logger
}
