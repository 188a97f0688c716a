package classifier

import (
	"math/rand"
	"sort"
)

// Node is one split or leaf in a CART tree. Leaves have Left == -1.
// Classification leaves carry a class distribution; regression leaves
// carry a single value.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Dist      []float64 `json:"dist,omitempty"`
	Value     float64   `json:"value,omitempty"`
}

// Tree is a CART tree stored as a flat node slice, which keeps the
// JSON artifact simple and the traversal allocation-free.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type treeConfig struct {
	maxDepth int
	minLeaf  int
	// maxFeatures limits the features considered per split
	// (0 means all). Used by bagging for decorrelation.
	maxFeatures int
}

// treeBuilder grows one tree over an index subset of the training data.
type treeBuilder struct {
	X    [][]float64
	cfg  treeConfig
	rng  *rand.Rand
	tree *Tree
	// gain accumulates per-feature split gain for feature importance;
	// nil when the caller doesn't track importance.
	gain []float64
}

func (b *treeBuilder) candidateFeatures() []int {
	n := len(b.X[0])
	if b.cfg.maxFeatures <= 0 || b.cfg.maxFeatures >= n {
		feats := make([]int, n)
		for i := range feats {
			feats[i] = i
		}
		return feats
	}
	perm := b.rng.Perm(n)
	return perm[:b.cfg.maxFeatures]
}

// growClassification builds a gini-split subtree over idx and returns
// the root node's index.
func (b *treeBuilder) growClassification(y []int, idx []int, depth int) int {
	counts := make([]float64, NumLevels)
	for _, i := range idx {
		counts[y[i]]++
	}
	total := float64(len(idx))

	pure := false
	for _, c := range counts {
		if c == total {
			pure = true
		}
	}

	if pure || depth >= b.cfg.maxDepth || len(idx) < 2*b.cfg.minLeaf {
		return b.leafDist(counts, total)
	}

	feat, thr, gain := b.bestGiniSplit(y, idx, counts, total)
	if feat < 0 {
		return b.leafDist(counts, total)
	}
	if b.gain != nil {
		b.gain[feat] += gain
	}

	left, right := partition(b.X, idx, feat, thr)
	node := Node{Feature: feat, Threshold: thr}
	self := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, node)
	b.tree.Nodes[self].Left = b.growClassification(y, left, depth+1)
	b.tree.Nodes[self].Right = b.growClassification(y, right, depth+1)
	return self
}

func (b *treeBuilder) leafDist(counts []float64, total float64) int {
	dist := make([]float64, NumLevels)
	for i, c := range counts {
		dist[i] = c / total
	}
	b.tree.Nodes = append(b.tree.Nodes, Node{Left: -1, Right: -1, Dist: dist})
	return len(b.tree.Nodes) - 1
}

// bestGiniSplit scans sorted feature values with running class counts.
// Returns (-1, 0, 0) when no split improves impurity.
func (b *treeBuilder) bestGiniSplit(y []int, idx []int, counts []float64, total float64) (int, float64, float64) {
	parent := gini(counts, total)
	bestFeat, bestThr, bestGain := -1, 0.0, 1e-12

	sorted := make([]int, len(idx))
	leftCounts := make([]float64, NumLevels)

	for _, feat := range b.candidateFeatures() {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.X[sorted[a]][feat] < b.X[sorted[c]][feat]
		})

		for i := range leftCounts {
			leftCounts[i] = 0
		}
		for pos := 0; pos < len(sorted)-1; pos++ {
			leftCounts[y[sorted[pos]]]++
			nLeft := float64(pos + 1)
			nRight := total - nLeft

			cur := b.X[sorted[pos]][feat]
			next := b.X[sorted[pos+1]][feat]
			if cur == next {
				continue
			}
			if int(nLeft) < b.cfg.minLeaf || int(nRight) < b.cfg.minLeaf {
				continue
			}

			rightCounts := make([]float64, NumLevels)
			for k := range rightCounts {
				rightCounts[k] = counts[k] - leftCounts[k]
			}
			child := (nLeft*gini(leftCounts, nLeft) + nRight*gini(rightCounts, nRight)) / total
			gain := parent - child
			if gain > bestGain {
				bestFeat, bestThr, bestGain = feat, (cur+next)/2, gain
			}
		}
	}
	if bestFeat < 0 {
		return -1, 0, 0
	}
	return bestFeat, bestThr, bestGain
}

// growRegression builds a variance-split subtree over idx and returns
// the root node's index. Targets are arbitrary residuals.
func (b *treeBuilder) growRegression(target []float64, idx []int, depth int) int {
	sum := 0.0
	for _, i := range idx {
		sum += target[i]
	}
	total := float64(len(idx))
	mean := sum / total

	if depth >= b.cfg.maxDepth || len(idx) < 2*b.cfg.minLeaf {
		return b.leafValue(mean)
	}

	feat, thr, gain := b.bestVarianceSplit(target, idx, sum, total)
	if feat < 0 {
		return b.leafValue(mean)
	}
	if b.gain != nil {
		b.gain[feat] += gain
	}

	left, right := partition(b.X, idx, feat, thr)
	node := Node{Feature: feat, Threshold: thr}
	self := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, node)
	b.tree.Nodes[self].Left = b.growRegression(target, left, depth+1)
	b.tree.Nodes[self].Right = b.growRegression(target, right, depth+1)
	return self
}

func (b *treeBuilder) leafValue(v float64) int {
	b.tree.Nodes = append(b.tree.Nodes, Node{Left: -1, Right: -1, Value: v})
	return len(b.tree.Nodes) - 1
}

func (b *treeBuilder) bestVarianceSplit(target []float64, idx []int, sum, total float64) (int, float64, float64) {
	bestFeat, bestThr, bestGain := -1, 0.0, 1e-12

	sorted := make([]int, len(idx))
	for _, feat := range b.candidateFeatures() {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.X[sorted[a]][feat] < b.X[sorted[c]][feat]
		})

		leftSum := 0.0
		for pos := 0; pos < len(sorted)-1; pos++ {
			leftSum += target[sorted[pos]]
			nLeft := float64(pos + 1)
			nRight := total - nLeft

			cur := b.X[sorted[pos]][feat]
			next := b.X[sorted[pos+1]][feat]
			if cur == next {
				continue
			}
			if int(nLeft) < b.cfg.minLeaf || int(nRight) < b.cfg.minLeaf {
				continue
			}

			rightSum := sum - leftSum
			// Variance reduction is equivalent to maximizing the
			// between-group sum of squares.
			gain := leftSum*leftSum/nLeft + rightSum*rightSum/nRight - sum*sum/total
			if gain > bestGain {
				bestFeat, bestThr, bestGain = feat, (cur+next)/2, gain
			}
		}
	}
	if bestFeat < 0 {
		return -1, 0, 0
	}
	return bestFeat, bestThr, bestGain
}

// PredictDist walks the tree for one row and returns the leaf's
// class distribution.
func (t *Tree) PredictDist(x []float64) []float64 {
	return t.Nodes[t.walk(x)].Dist
}

// PredictValue walks the tree for one row and returns the leaf value.
func (t *Tree) PredictValue(x []float64) float64 {
	return t.Nodes[t.walk(x)].Value
}

func (t *Tree) walk(x []float64) int {
	// grow* appends the root of a tree first, so index 0 is the root.
	i := 0
	for t.Nodes[i].Left != -1 {
		if x[t.Nodes[i].Feature] <= t.Nodes[i].Threshold {
			i = t.Nodes[i].Left
		} else {
			i = t.Nodes[i].Right
		}
	}
	return i
}

func gini(counts []float64, total float64) float64 {
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

func partition(X [][]float64, idx []int, feat int, thr float64) ([]int, []int) {
	var left, right []int
	for _, i := range idx {
		if X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}
