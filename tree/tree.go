// Package tree implements a CART regression tree with the squared-error
// criterion.
package tree

import (
	"encoding/gob"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/YuminosukeSato/burnrate/core/model"
	"github.com/YuminosukeSato/burnrate/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(&DecisionTreeRegressor{})
}

// Node is one entry of the flattened tree. Leaves have Feature == -1.
// Samples to the left satisfy x[Feature] <= Threshold.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Impurity  float64
	Samples   int
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool { return n.Feature < 0 }

// DecisionTreeRegressor predicts the mean target of the leaf a sample falls in.
type DecisionTreeRegressor struct {
	State  *model.StateManager
	Params Params

	Nodes       []Node
	Importances []float64
}

// NewDecisionTreeRegressor creates an unfitted tree.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	return &DecisionTreeRegressor{
		State:  model.NewStateManager(),
		Params: newParams(opts),
	}
}

// Name implements model.Regressor.
func (t *DecisionTreeRegressor) Name() string { return "DecisionTree" }

// Fit grows the tree on every row of X.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	rows, _, err := model.ValidateXy("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	samples := make([]int, rows)
	for i := range samples {
		samples[i] = i
	}
	return t.FitSamples(X, mat.Col(nil, 0, y), samples)
}

// FitSamples grows the tree on the rows listed in samples. Indices may
// repeat, which is how bootstrap resamples are passed in without copying X.
func (t *DecisionTreeRegressor) FitSamples(X mat.Matrix, y []float64, samples []int) error {
	_, cols := X.Dims()
	if len(samples) == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if t.Params.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", t.Params.MinSamplesSplit)
	}
	if t.Params.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", t.Params.MinSamplesLeaf)
	}

	b := &builder{
		X:           X,
		y:           y,
		params:      t.Params,
		nFeatures:   cols,
		features:    make([]int, cols),
		importances: make([]float64, cols),
		rng:         rand.New(rand.NewPCG(t.Params.RandomState, t.Params.RandomState^0x9e3779b97f4a7c15)),
	}
	for j := range b.features {
		b.features[j] = j
	}

	b.grow(slices.Clone(samples), 0)

	total := 0.0
	for _, v := range b.importances {
		total += v
	}
	if total > 0 {
		for j := range b.importances {
			b.importances[j] /= total
		}
	}

	t.Nodes = b.nodes
	t.Importances = b.importances
	if t.State == nil {
		t.State = model.NewStateManager()
	}
	t.State.SetFitted(cols, len(samples))
	return nil
}

// Predict routes each row to a leaf.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := t.State.RequireFitted(t.Name(), "Predict"); err != nil {
		return nil, err
	}
	if err := t.State.CheckFeatures("DecisionTreeRegressor.Predict", X); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, t.PredictRow(X, i))
	}
	return out, nil
}

// PredictRow returns the prediction for row i of X. The tree must be fitted.
func (t *DecisionTreeRegressor) PredictRow(X mat.Matrix, i int) float64 {
	n := 0
	for !t.Nodes[n].IsLeaf() {
		node := t.Nodes[n]
		if X.At(i, node.Feature) <= node.Threshold {
			n = node.Left
		} else {
			n = node.Right
		}
	}
	return t.Nodes[n].Value
}

// FeatureImportances returns the normalised impurity decrease per feature.
func (t *DecisionTreeRegressor) FeatureImportances() ([]float64, error) {
	if err := t.State.RequireFitted(t.Name(), "FeatureImportances"); err != nil {
		return nil, err
	}
	return slices.Clone(t.Importances), nil
}

// Depth returns the depth of the deepest leaf (a single leaf has depth 0).
func (t *DecisionTreeRegressor) Depth() int {
	var walk func(n, d int) int
	walk = func(n, d int) int {
		if t.Nodes[n].IsLeaf() {
			return d
		}
		return max(walk(t.Nodes[n].Left, d+1), walk(t.Nodes[n].Right, d+1))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0, 0)
}

type builder struct {
	X           mat.Matrix
	y           []float64
	params      Params
	nFeatures   int
	features    []int
	importances []float64
	nodes       []Node
	rng         *rand.Rand
	pairs       []pair
}

type pair struct {
	x, y float64
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	leftN     int
}

// grow appends the subtree for samples and returns its node index.
func (b *builder) grow(samples []int, depth int) int {
	n := len(samples)
	var sum, sumSq float64
	for _, s := range samples {
		v := b.y[s]
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	impurity := math.Max(sumSq/float64(n)-mean*mean, 0)

	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: mean, Impurity: impurity, Samples: n})

	if (b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) ||
		n < b.params.MinSamplesSplit ||
		n < 2*b.params.MinSamplesLeaf ||
		impurity <= 1e-15 {
		return idx
	}

	best, ok := b.bestSplit(samples, sum, sumSq)
	if !ok {
		return idx
	}

	feature := best.feature
	threshold := best.threshold
	left := make([]int, 0, best.leftN)
	right := make([]int, 0, n-best.leftN)
	for _, s := range samples {
		if b.X.At(s, feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	b.importances[feature] += best.gain
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

// bestSplit scans candidate features in a random order and returns the split
// with the largest weighted impurity decrease.
func (b *builder) bestSplit(samples []int, sum, sumSq float64) (split, bool) {
	n := len(samples)
	parent := sumSq - sum*sum/float64(n)

	b.rng.Shuffle(len(b.features), func(i, j int) {
		b.features[i], b.features[j] = b.features[j], b.features[i]
	})
	limit := b.nFeatures
	if b.params.MaxFeatures > 0 && b.params.MaxFeatures < limit {
		limit = b.params.MaxFeatures
	}

	if cap(b.pairs) < n {
		b.pairs = make([]pair, n)
	}
	pairs := b.pairs[:n]

	best := split{feature: -1}
	bestChildren := math.Inf(1)
	minLeaf := b.params.MinSamplesLeaf

	for _, f := range b.features[:limit] {
		for i, s := range samples {
			pairs[i] = pair{x: b.X.At(s, f), y: b.y[s]}
		}
		slices.SortFunc(pairs, func(a, c pair) int {
			switch {
			case a.x < c.x:
				return -1
			case a.x > c.x:
				return 1
			default:
				return 0
			}
		})
		if pairs[0].x == pairs[n-1].x {
			continue
		}

		var lSum, lSq float64
		for i := 0; i < n-1; i++ {
			lSum += pairs[i].y
			lSq += pairs[i].y * pairs[i].y
			if pairs[i].x == pairs[i+1].x {
				continue
			}
			nl := i + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			rSum := sum - lSum
			rSq := sumSq - lSq
			children := (lSq - lSum*lSum/float64(nl)) + (rSq - rSum*rSum/float64(nr))
			if children < bestChildren {
				threshold := pairs[i].x + (pairs[i+1].x-pairs[i].x)/2
				// adjacent floats: the midpoint can round up to the right value
				if threshold >= pairs[i+1].x {
					threshold = pairs[i].x
				}
				bestChildren = children
				best = split{feature: f, threshold: threshold, leftN: nl}
			}
		}
	}

	if best.feature < 0 {
		return best, false
	}
	best.gain = math.Max(parent-bestChildren, 0)
	return best, true
}
