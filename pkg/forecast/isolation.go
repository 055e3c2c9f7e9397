package forecast

import (
	"math"
	"math/rand"
)

// isoNode is one node of an isolation tree over a 1-D sample.
type isoNode struct {
	split       float64
	left, right *isoNode
	size        int
}

// isolationForest detects outliers in a daily consumption series. Trees
// are built from a seeded RNG, so the same series and seed always yield
// the same scores.
type isolationForest struct {
	trees      []*isoNode
	sampleSize int
}

// newIsolationForest builds trees over random subsamples of values.
func newIsolationForest(values []float64, trees, subsample int, rng *rand.Rand) *isolationForest {
	if subsample > len(values) {
		subsample = len(values)
	}
	f := &isolationForest{sampleSize: subsample}
	for i := 0; i < trees; i++ {
		sample := subsampleValues(values, subsample, rng)
		maxDepth := int(math.Ceil(math.Log2(float64(subsample))))
		f.trees = append(f.trees, buildTree(sample, 0, maxDepth, rng))
	}
	return f
}

func subsampleValues(values []float64, n int, rng *rand.Rand) []float64 {
	perm := rng.Perm(len(values))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = values[perm[i]]
	}
	return out
}

func buildTree(sample []float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if len(sample) <= 1 || depth >= maxDepth {
		return &isoNode{size: len(sample)}
	}

	lo, hi := sample[0], sample[0]
	for _, v := range sample[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{size: len(sample)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range sample {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &isoNode{
		split: split,
		left:  buildTree(left, depth+1, maxDepth, rng),
		right: buildTree(right, depth+1, maxDepth, rng),
	}
}

// pathLength walks a tree for one value, adding the average-depth
// adjustment at the leaf it lands in.
func pathLength(n *isoNode, v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + avgPathLength(n.size)
	}
	if v < n.split {
		return pathLength(n.left, v, depth+1)
	}
	return pathLength(n.right, v, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n values.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
}

// Score returns the anomaly score of one value in [0, 1]; values near 1
// isolate quickly and are outliers.
func (f *isolationForest) Score(v float64) float64 {
	if len(f.trees) == 0 || f.sampleSize <= 1 {
		return 0
	}
	var total float64
	for _, t := range f.trees {
		total += pathLength(t, v, 0)
	}
	mean := total / float64(len(f.trees))
	return math.Pow(2, -mean/avgPathLength(f.sampleSize))
}
