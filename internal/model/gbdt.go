// Package model implements a gradient-boosted regression tree ensemble for
// the monthly price series. The ensemble minimizes squared error: each
// round fits a depth-limited tree to the current residuals and adds it with
// a shrinkage factor. Training is exact and deterministic; there is no row
// or column subsampling.
package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "pricecast/internal/errors"
)

// Params are the boosting hyperparameters. Zero values are replaced with
// defaults by NewRegressor.
type Params struct {
	Iterations   int     // number of boosting rounds
	LearningRate float64 // shrinkage applied to every tree
	MaxDepth     int     // maximum tree depth
	MinLeaf      int     // minimum rows per leaf
	Lambda       float64 // L2 regularization on leaf values
}

// withDefaults fills unset parameters.
func (p Params) withDefaults() Params {
	if p.Iterations == 0 {
		p.Iterations = 200
	}
	if p.LearningRate == 0 {
		p.LearningRate = 0.05
	}
	if p.MaxDepth == 0 {
		p.MaxDepth = 3
	}
	if p.MinLeaf == 0 {
		p.MinLeaf = 2
	}
	return p
}

// Regressor is the fitted ensemble. It is immutable after Fit; Predict
// never mutates state, so a fitted Regressor is safe for concurrent reads.
type Regressor struct {
	params    Params
	base      float64
	trees     []*node
	nFeatures int
	fitted    bool
}

// NewRegressor creates an unfitted Regressor with defaulted parameters.
func NewRegressor(p Params) *Regressor {
	return &Regressor{params: p.withDefaults()}
}

// Fit trains the ensemble on the design matrix x and target y. It is an
// error to call Fit twice, to pass mismatched dimensions, fewer than two
// rows, or any non-finite value: the pipeline fails fast rather than let
// NaN propagate into predictions.
func (r *Regressor) Fit(x *mat.Dense, y *mat.VecDense) error {
	if r.fitted {
		return apperrors.NewModelError("regressor is already fitted", nil)
	}
	if x == nil || y == nil {
		return apperrors.NewModelError("nil training input", nil)
	}
	rows, cols := x.Dims()
	if rows != y.Len() {
		return apperrors.NewModelError(
			fmt.Sprintf("dimension mismatch: %d feature rows vs %d targets", rows, y.Len()), nil)
	}
	if rows < 2 {
		return apperrors.NewModelError(
			fmt.Sprintf("degenerate training input: %d row(s)", rows), nil)
	}
	for i := 0; i < rows; i++ {
		if !isFinite(y.AtVec(i)) {
			return apperrors.NewModelError(fmt.Sprintf("non-finite target at row %d", i), nil)
		}
		for j := 0; j < cols; j++ {
			if !isFinite(x.At(i, j)) {
				return apperrors.NewModelError(
					fmt.Sprintf("non-finite feature at row %d column %d", i, j), nil)
			}
		}
	}

	// Base prediction is the target mean; trees fit what remains.
	var sum float64
	for i := 0; i < rows; i++ {
		sum += y.AtVec(i)
	}
	r.base = sum / float64(rows)
	r.nFeatures = cols

	pred := make([]float64, rows)
	for i := range pred {
		pred[i] = r.base
	}
	residual := make([]float64, rows)
	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}

	tp := treeParams{maxDepth: r.params.MaxDepth, minLeaf: r.params.MinLeaf, lambda: r.params.Lambda}
	row := make([]float64, cols)

	for iter := 0; iter < r.params.Iterations; iter++ {
		var rss float64
		for i := 0; i < rows; i++ {
			residual[i] = y.AtVec(i) - pred[i]
			rss += residual[i] * residual[i]
		}
		if rss < 1e-12*float64(rows) {
			break // residuals exhausted
		}

		tree := buildTree(x, residual, idx, 0, tp)
		r.trees = append(r.trees, tree)

		for i := 0; i < rows; i++ {
			mat.Row(row, i, x)
			pred[i] += r.params.LearningRate * tree.predict(row)
		}
	}

	r.fitted = true
	return nil
}

// PredictOne returns the prediction for a single feature vector.
func (r *Regressor) PredictOne(row []float64) (float64, error) {
	if !r.fitted {
		return 0, apperrors.NewModelError("regressor is not fitted", nil)
	}
	if len(row) != r.nFeatures {
		return 0, apperrors.NewModelError(
			fmt.Sprintf("expected %d features, got %d", r.nFeatures, len(row)), nil)
	}
	for j, v := range row {
		if !isFinite(v) {
			return 0, apperrors.NewModelError(fmt.Sprintf("non-finite feature at column %d", j), nil)
		}
	}

	yhat := r.base
	for _, tree := range r.trees {
		yhat += r.params.LearningRate * tree.predict(row)
	}
	return yhat, nil
}

// Predict returns predictions for every row of x.
func (r *Regressor) Predict(x *mat.Dense) (*mat.VecDense, error) {
	if !r.fitted {
		return nil, apperrors.NewModelError("regressor is not fitted", nil)
	}
	if x == nil {
		return nil, apperrors.NewModelError("nil prediction input", nil)
	}
	rows, cols := x.Dims()
	if cols != r.nFeatures {
		return nil, apperrors.NewModelError(
			fmt.Sprintf("expected %d features, got %d", r.nFeatures, cols), nil)
	}

	out := mat.NewVecDense(rows, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		yhat, err := r.PredictOne(row)
		if err != nil {
			return nil, err
		}
		out.SetVec(i, yhat)
	}
	return out, nil
}

// NumTrees returns the number of fitted boosting rounds.
func (r *Regressor) NumTrees() int {
	return len(r.trees)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
