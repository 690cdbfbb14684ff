package classifier

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Node is one node of a fitted decision tree. Leaves have Left == -1 and
// carry the fraction of positive training samples that reached them.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Positive  float64 `json:"p"`
}

func (n Node) leaf() bool { return n.Left < 0 }

// Tree is a CART classification tree stored as a flat node array with the
// root at index 0. Samples with x[Feature] <= Threshold go left.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Probability returns the positive fraction of the leaf x falls into.
func (t *Tree) Probability(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.leaf() {
			return n.Positive
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t *Tree) validate(dim int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.leaf() {
			if n.Positive < 0 || n.Positive > 1 {
				return fmt.Errorf("node %d: leaf value %v outside [0,1]", i, n.Positive)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= dim {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		// Children always follow their parent, which also rules out cycles.
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// treeParams controls tree growth.
type treeParams struct {
	maxDepth    int // 0 = unlimited
	minSplit    int
	maxFeatures int
}

type treeBuilder struct {
	X      [][]float64
	y      []int
	params treeParams
	rng    *rand.Rand
	nodes  []Node
}

// growTree fits a tree on the rows listed in idx (duplicates allowed, as
// produced by bootstrap sampling).
func growTree(X [][]float64, y []int, idx []int, params treeParams, rng *rand.Rand) *Tree {
	b := &treeBuilder{X: X, y: y, params: params, rng: rng}
	b.build(idx, 0)
	return &Tree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1, Positive: float64(pos) / float64(len(idx))})

	if pos == 0 || pos == len(idx) || len(idx) < b.params.minSplit {
		return self
	}
	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return self
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self].Feature = feature
	b.nodes[self].Threshold = threshold
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

// bestSplit searches a random subset of features for the split with the
// lowest weighted gini impurity. Constant features don't count towards
// the subset size, so a split is found whenever any feature varies.
func (b *treeBuilder) bestSplit(idx []int, pos int) (int, float64, bool) {
	n := len(idx)
	dim := len(b.X[idx[0]])
	bestScore := gini(pos, n) * float64(n)
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, n)
	tried := 0
	for _, f := range b.rng.Perm(dim) {
		if tried >= b.params.maxFeatures && found {
			break
		}
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.X[sorted[a]][f] < b.X[sorted[c]][f]
		})
		if b.X[sorted[0]][f] == b.X[sorted[n-1]][f] {
			continue
		}
		tried++

		leftPos := 0
		for k := 1; k < n; k++ {
			leftPos += b.y[sorted[k-1]]
			lo, hi := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if lo == hi {
				continue
			}
			score := gini(leftPos, k)*float64(k) + gini(pos-leftPos, n-k)*float64(n-k)
			if score < bestScore-1e-12 {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
