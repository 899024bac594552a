package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// node is one vertex of a regression tree. Internal nodes route on
// feature <= threshold; leaves carry the fitted residual value.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     float64
	leaf      bool
}

type treeParams struct {
	maxDepth int
	minLeaf  int
	lambda   float64
}

// buildTree grows a depth-limited regression tree over the residuals at the
// given row indices. Leaf values are L2-regularized means: sum/(n+lambda).
func buildTree(x *mat.Dense, residual []float64, idx []int, depth int, p treeParams) *node {
	var sum float64
	for _, i := range idx {
		sum += residual[i]
	}
	leafValue := sum / (float64(len(idx)) + p.lambda)

	if depth >= p.maxDepth || len(idx) < 2*p.minLeaf {
		return &node{leaf: true, value: leafValue}
	}

	best := findBestSplit(x, residual, idx, p)
	if best.feature < 0 {
		return &node{leaf: true, value: leafValue}
	}

	var left, right []int
	for _, i := range idx {
		if x.At(i, best.feature) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		left:      buildTree(x, residual, left, depth+1, p),
		right:     buildTree(x, residual, right, depth+1, p),
	}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// findBestSplit does an exact greedy scan: every feature, every boundary
// between distinct sorted values. Gain is the regularized variance
// reduction. The scan is deterministic; there is no sampling anywhere.
func findBestSplit(x *mat.Dense, residual []float64, idx []int, p treeParams) split {
	_, cols := x.Dims()
	n := len(idx)

	var total float64
	for _, i := range idx {
		total += residual[i]
	}
	parentScore := total * total / (float64(n) + p.lambda)

	best := split{feature: -1}
	order := make([]int, n)

	for f := 0; f < cols; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool {
			return x.At(order[a], f) < x.At(order[b], f)
		})

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += residual[order[k]]
			// No boundary between equal feature values.
			if x.At(order[k], f) == x.At(order[k+1], f) {
				continue
			}
			nL, nR := k+1, n-k-1
			if nL < p.minLeaf || nR < p.minLeaf {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/(float64(nL)+p.lambda) +
				rightSum*rightSum/(float64(nR)+p.lambda) - parentScore
			if gain > best.gain+1e-12 {
				best = split{
					feature:   f,
					threshold: (x.At(order[k], f) + x.At(order[k+1], f)) / 2,
					gain:      gain,
				}
			}
		}
	}
	return best
}

// predict routes a single input vector to its leaf value.
func (n *node) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}
