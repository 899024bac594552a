// Package features derives the model inputs from the monthly aggregates.
package features

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"pricecast/pkg/contracts/domain"
)

// Feature modes. Mirrors the config constants; kept here so this package
// does not depend on config.
const (
	ModeLags  = "lags"
	ModeValue = "value"
)

// NumFeatures returns the model input width for a mode.
func NumFeatures(mode string) int {
	if mode == ModeValue {
		return 1
	}
	return 5
}

// Build derives feature rows from a month-ascending aggregate series.
//
// In lag mode each row carries the previous three months' means by position
// in the sequence, so the first three rows are dropped: a row only exists
// once its full lag history does. In value mode every aggregate becomes a
// row with calendar features only; the target doubles as the sole input.
func Build(aggs []domain.MonthlyAggregate, mode string) []domain.FeatureRow {
	rows := make([]domain.FeatureRow, 0, len(aggs))

	for i, agg := range aggs {
		row := domain.FeatureRow{
			Month:    agg.Month,
			Mean:     agg.Mean,
			MonthNum: int(agg.Month.Month()),
			Year:     agg.Month.Year(),
		}
		if mode == ModeLags {
			if i < 3 {
				continue
			}
			row.Lag1 = aggs[i-1].Mean
			row.Lag2 = aggs[i-2].Mean
			row.Lag3 = aggs[i-3].Mean
			row.HasLags = true
		}
		rows = append(rows, row)
	}
	return rows
}

// Matrix packs feature rows into the design matrix and target vector for
// the regressor. Column order in lag mode: lag1, lag2, lag3, month, year.
func Matrix(rows []domain.FeatureRow, mode string) (*mat.Dense, *mat.VecDense) {
	n := len(rows)
	if n == 0 {
		return nil, nil
	}

	x := mat.NewDense(n, NumFeatures(mode), nil)
	y := mat.NewVecDense(n, nil)

	for i, row := range rows {
		if mode == ModeValue {
			x.Set(i, 0, row.Mean)
		} else {
			x.Set(i, 0, row.Lag1)
			x.Set(i, 1, row.Lag2)
			x.Set(i, 2, row.Lag3)
			x.Set(i, 3, float64(row.MonthNum))
			x.Set(i, 4, float64(row.Year))
		}
		y.SetVec(i, row.Mean)
	}
	return x, y
}

// LagVector builds a single lag-mode input for the month being predicted.
func LagVector(lag1, lag2, lag3 float64, month time.Time) []float64 {
	return []float64{lag1, lag2, lag3, float64(month.Month()), float64(month.Year())}
}

// ValueVector builds a single value-mode input.
func ValueVector(value float64) []float64 {
	return []float64{value}
}
