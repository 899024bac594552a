// Package metrics computes the regression error metrics reported for the
// train and test subsets.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Report bundles the three error metrics for one subset.
type Report struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
}

// MAE computes the mean absolute error: mean(|actual - predicted|).
func MAE(actual, predicted *mat.VecDense) (float64, error) {
	if err := checkPair(actual, predicted); err != nil {
		return 0, err
	}
	n := actual.Len()
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(actual.AtVec(i) - predicted.AtVec(i))
	}
	return sum / float64(n), nil
}

// MSE computes the mean squared error: mean((actual - predicted)^2).
func MSE(actual, predicted *mat.VecDense) (float64, error) {
	if err := checkPair(actual, predicted); err != nil {
		return 0, err
	}
	n := actual.Len()
	var sum float64
	for i := 0; i < n; i++ {
		diff := actual.AtVec(i) - predicted.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE computes the root mean squared error: sqrt(MSE).
func RMSE(actual, predicted *mat.VecDense) (float64, error) {
	mse, err := MSE(actual, predicted)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// R2 computes the coefficient of determination. Reported in logs as a
// supplementary diagnostic; not part of the fixed six-metric summary.
func R2(actual, predicted *mat.VecDense) (float64, error) {
	if err := checkPair(actual, predicted); err != nil {
		return 0, err
	}
	n := actual.Len()

	var mean float64
	for i := 0; i < n; i++ {
		mean += actual.AtVec(i)
	}
	mean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		a := actual.AtVec(i)
		tss += (a - mean) * (a - mean)
		d := a - predicted.AtVec(i)
		rss += d * d
	}
	if tss == 0 {
		return 0, fmt.Errorf("r2: no variance in actual values")
	}
	return 1 - rss/tss, nil
}

// Evaluate computes the full Report for one actual/predicted pair.
func Evaluate(actual, predicted *mat.VecDense) (Report, error) {
	mae, err := MAE(actual, predicted)
	if err != nil {
		return Report{}, err
	}
	mse, err := MSE(actual, predicted)
	if err != nil {
		return Report{}, err
	}
	return Report{MAE: mae, MSE: mse, RMSE: math.Sqrt(mse)}, nil
}

// checkPair validates vector dimensions and finiteness.
func checkPair(actual, predicted *mat.VecDense) error {
	if actual == nil || predicted == nil {
		return fmt.Errorf("metrics: nil vector")
	}
	if actual.Len() == 0 {
		return fmt.Errorf("metrics: empty vector")
	}
	if actual.Len() != predicted.Len() {
		return fmt.Errorf("metrics: length mismatch %d vs %d", actual.Len(), predicted.Len())
	}
	for i := 0; i < actual.Len(); i++ {
		if math.IsNaN(actual.AtVec(i)) || math.IsInf(actual.AtVec(i), 0) ||
			math.IsNaN(predicted.AtVec(i)) || math.IsInf(predicted.AtVec(i), 0) {
			return fmt.Errorf("metrics: non-finite value at index %d", i)
		}
	}
	return nil
}
