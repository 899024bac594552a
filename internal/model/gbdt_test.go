package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	apperrors "pricecast/internal/errors"
)

func TestNewRegressor_Defaults(t *testing.T) {
	r := NewRegressor(Params{})

	assert.Equal(t, 200, r.params.Iterations)
	assert.InDelta(t, 0.05, r.params.LearningRate, 1e-12)
	assert.Equal(t, 3, r.params.MaxDepth)
	assert.Equal(t, 2, r.params.MinLeaf)
}

func TestFit_InputValidation(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	tests := []struct {
		name string
		x    *mat.Dense
		y    *mat.VecDense
	}{
		{"nil x", nil, y},
		{"nil y", x, nil},
		{"dimension mismatch", x, mat.NewVecDense(2, []float64{1, 2})},
		{"single row", mat.NewDense(1, 1, []float64{1}), mat.NewVecDense(1, []float64{1})},
		{"nan feature", mat.NewDense(3, 1, []float64{1, math.NaN(), 3}), y},
		{"inf target", x, mat.NewVecDense(3, []float64{1, math.Inf(1), 3})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegressor(Params{}).Fit(tt.x, tt.y)
			require.Error(t, err)
			assert.True(t, apperrors.IsModel(err))
		})
	}
}

func TestFit_Twice(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	r := NewRegressor(Params{Iterations: 5})
	require.NoError(t, r.Fit(x, y))

	err := r.Fit(x, y)
	require.Error(t, err)
	assert.True(t, apperrors.IsModel(err))
}

func TestPredict_NotFitted(t *testing.T) {
	r := NewRegressor(Params{})

	_, err := r.PredictOne([]float64{1})
	require.Error(t, err)
	assert.True(t, apperrors.IsModel(err))

	_, err = r.Predict(mat.NewDense(1, 1, []float64{1}))
	require.Error(t, err)
	assert.True(t, apperrors.IsModel(err))
}

func TestPredictOne_WrongWidth(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	y := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	r := NewRegressor(Params{Iterations: 5})
	require.NoError(t, r.Fit(x, y))

	_, err := r.PredictOne([]float64{1})
	require.Error(t, err)
	assert.True(t, apperrors.IsModel(err))
}

func TestFit_ConstantTarget(t *testing.T) {
	x := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewVecDense(5, []float64{7, 7, 7, 7, 7})

	r := NewRegressor(Params{})
	require.NoError(t, r.Fit(x, y))

	yhat, err := r.PredictOne([]float64{3})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, yhat, 1e-9)

	// Residuals are zero after the base prediction; no trees needed.
	assert.Equal(t, 0, r.NumTrees())
}

func TestFit_StepFunction(t *testing.T) {
	// y = 10 for x < 5, y = 20 for x >= 5. A single split problem the
	// ensemble must drive to near-zero training error.
	n := 20
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = float64(i)
		if i < 10 {
			ys[i] = 10
		} else {
			ys[i] = 20
		}
	}
	x := mat.NewDense(n, 1, xs)
	y := mat.NewVecDense(n, ys)

	r := NewRegressor(Params{Iterations: 300, LearningRate: 0.1, MaxDepth: 2, Lambda: 1})
	require.NoError(t, r.Fit(x, y))

	low, err := r.PredictOne([]float64{2})
	require.NoError(t, err)
	high, err := r.PredictOne([]float64{15})
	require.NoError(t, err)

	assert.InDelta(t, 10.0, low, 0.5)
	assert.InDelta(t, 20.0, high, 0.5)
}

func TestFit_SmoothSeries(t *testing.T) {
	// In-sample error on a smooth seasonal series must be far below the
	// series amplitude.
	n := 60
	x := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(i%12)+1)
		x.Set(i, 1, float64(i))
		y.SetVec(i, 100+20*math.Sin(2*math.Pi*float64(i)/12)+0.5*float64(i))
	}

	r := NewRegressor(Params{Iterations: 400, LearningRate: 0.1})
	require.NoError(t, r.Fit(x, y))

	pred, err := r.Predict(x)
	require.NoError(t, err)

	var sse float64
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - pred.AtVec(i)
		sse += d * d
	}
	rmse := math.Sqrt(sse / float64(n))
	assert.Less(t, rmse, 2.0)
}

func TestFit_Deterministic(t *testing.T) {
	n := 40
	x := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, math.Mod(float64(i)*7.3, 13))
		x.Set(i, 1, float64(i))
		y.SetVec(i, math.Sin(float64(i))*10+float64(i))
	}

	fit := func() []float64 {
		r := NewRegressor(Params{Iterations: 50, LearningRate: 0.1})
		require.NoError(t, r.Fit(x, y))
		pred, err := r.Predict(x)
		require.NoError(t, err)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = pred.AtVec(i)
		}
		return out
	}

	first := fit()
	second := fit()
	assert.Equal(t, first, second)
}

func TestPredictOne_NonFiniteInput(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	r := NewRegressor(Params{Iterations: 5})
	require.NoError(t, r.Fit(x, y))

	_, err := r.PredictOne([]float64{math.NaN()})
	require.Error(t, err)
	assert.True(t, apperrors.IsModel(err))
}
