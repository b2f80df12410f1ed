package classifier

import (
	"cmp"
	"errors"
	"fmt"
	"loanapproval/pkg/domain"
	"math/rand/v2"
	"slices"
)

// leaf marks a node without children.
const leaf = -1

// Node is one node of a flattened CART tree. Internal nodes send x to Left
// when x[Feature] <= Threshold. Leaves hold the share of approved training rows.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Approved  float64 `json:"p"`
}

// Tree is a binary classification tree stored as a node array rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Left != leaf {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}

	return t.Nodes[i].Approved
}

// validate checks that the node array is a well formed tree over nFeat
// features. Children always follow their parent, which rules out cycles.
func (t *Tree) validate(nFeat int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Left == leaf {
			if n.Approved < 0 || n.Approved > 1 {
				return fmt.Errorf("node %d: probability %v out of range", i, n.Approved)
			}

			continue
		}
		if n.Feature < 0 || n.Feature >= nFeat {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d, %d", i, n.Left, n.Right)
		}
	}

	return nil
}

type treeBuilder struct {
	x       [][]float64
	y       []domain.Label
	opts    Options
	nFeat   int
	rng     *rand.Rand
	tree    *Tree
	scratch []int
}

func (b *treeBuilder) build(idx []int, depth int) int {
	pos := 0
	for _, i := range idx {
		if b.y[i] == domain.LabelApproved {
			pos++
		}
	}

	at := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{
		Left:     leaf,
		Right:    leaf,
		Approved: float64(pos) / float64(len(idx)),
	})

	if pos == 0 || pos == len(idx) ||
		len(idx) < b.opts.MinSamplesSplit ||
		(b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth) {
		return at
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return at
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.tree.Nodes[at].Feature = feature
	b.tree.Nodes[at].Threshold = threshold
	b.tree.Nodes[at].Left = l
	b.tree.Nodes[at].Right = r

	return at
}

// bestSplit searches a random subset of features for the threshold with the
// lowest weighted gini impurity.
func (b *treeBuilder) bestSplit(idx []int, pos int) (int, float64, bool) {
	n := len(idx)
	parent := gini(pos, n)
	bestGain, bestFeature, bestThreshold := 0.0, -1, 0.0

	features := b.rng.Perm(b.nFeat)[:b.opts.maxFeatures(b.nFeat)]
	sorted := append(b.scratch[:0], idx...)
	for _, f := range features {
		slices.SortFunc(sorted, func(i, j int) int { return cmp.Compare(b.x[i][f], b.x[j][f]) })

		leftPos := 0
		for s := 1; s < n; s++ {
			if b.y[sorted[s-1]] == domain.LabelApproved {
				leftPos++
			}
			lo, hi := b.x[sorted[s-1]][f], b.x[sorted[s]][f]
			if lo == hi || s < b.opts.MinSamplesLeaf || n-s < b.opts.MinSamplesLeaf {
				continue
			}

			weighted := (float64(s)*gini(leftPos, s) + float64(n-s)*gini(pos-leftPos, n-s)) / float64(n)
			if gain := parent - weighted; gain > bestGain {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				bestGain, bestFeature, bestThreshold = gain, f, threshold
			}
		}
	}
	b.scratch = sorted

	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)

	return 2 * p * (1 - p)
}
