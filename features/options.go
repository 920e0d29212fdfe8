package features

import (
	"time"

	"github.com/YuminosukeSato/burnrate/pkg/log"
)

// Encoder fit policies.
const (
	// EncoderFitUnion fits each label encoder on train and test values together.
	EncoderFitUnion = "union"
	// EncoderFitTrain fits label encoders on training values only; test rows
	// carrying a category absent from training fail with UnknownCategoryError.
	EncoderFitTrain = "train"
)

// Option configures Preprocess.
type Option func(*options)

type options struct {
	now        func() time.Time
	encoderFit string
	logger     log.Logger
}

// WithClock sets the reference time tenure is measured against.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithEncoderFit selects EncoderFitUnion or EncoderFitTrain.
func WithEncoderFit(mode string) Option {
	return func(o *options) { o.encoderFit = mode }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, encoderFit: EncoderFitUnion}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Component("features")
	}
	return o
}
