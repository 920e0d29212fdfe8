package tree

// Option configures a DecisionTreeRegressor.
type Option func(*Params)

// Params are the tree hyperparameters. MaxDepth <= 0 means unlimited and
// MaxFeatures <= 0 means every feature is considered at each split.
type Params struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	RandomState     uint64
}

// WithMaxDepth limits the depth of the tree.
func WithMaxDepth(depth int) Option {
	return func(p *Params) { p.MaxDepth = depth }
}

// WithMinSamplesSplit sets the minimum samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(p *Params) { p.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum samples each child must keep.
func WithMinSamplesLeaf(n int) Option {
	return func(p *Params) { p.MinSamplesLeaf = n }
}

// WithMaxFeatures sets how many randomly chosen features each split may use.
func WithMaxFeatures(n int) Option {
	return func(p *Params) { p.MaxFeatures = n }
}

// WithRandomState seeds the feature permutation.
func WithRandomState(seed uint64) Option {
	return func(p *Params) { p.RandomState = seed }
}

func newParams(opts []Option) Params {
	p := Params{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
