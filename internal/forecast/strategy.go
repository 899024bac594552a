// Package forecast extrapolates the fitted model beyond the observed data.
//
// The multi-step forecast is a strict sequential recurrence: each step's
// input depends on the previous step's output, so the loop must never be
// parallelized or reordered. The step itself is a pluggable strategy chosen
// once per run.
package forecast

import (
	"time"

	apperrors "pricecast/internal/errors"
	"pricecast/internal/features"
	"pricecast/pkg/contracts/domain"
)

// Strategy names.
const (
	NameRecursive = "recursive"
	NameCarry     = "carry"
)

// Predictor is the fitted model surface the forecaster needs.
type Predictor interface {
	PredictOne(row []float64) (float64, error)
}

// State is the lag window and calendar position for the month about to be
// predicted.
type State struct {
	Lag1  float64
	Lag2  float64
	Lag3  float64
	Month time.Time // first-of-month date being predicted
}

// Strategy produces one prediction and the state for the following month.
type Strategy interface {
	Name() string
	Step(p Predictor, st State) (float64, State, error)
}

// Recursive feeds each prediction back as the next step's first lag:
// prediction -> lag1, lag1 -> lag2, lag2 -> lag3, old lag3 discarded.
type Recursive struct{}

// Name implements Strategy.
func (Recursive) Name() string { return NameRecursive }

// Step implements Strategy.
func (Recursive) Step(p Predictor, st State) (float64, State, error) {
	yhat, err := p.PredictOne(features.LagVector(st.Lag1, st.Lag2, st.Lag3, st.Month))
	if err != nil {
		return 0, State{}, err
	}
	next := State{
		Lag1:  yhat,
		Lag2:  st.Lag1,
		Lag3:  st.Lag2,
		Month: domain.AddMonths(st.Month, 1),
	}
	return yhat, next, nil
}

// Carry replays the last observed value as the model input for every step.
// There is no feedback; only the calendar advances.
type Carry struct {
	Last float64 // last observed test value
}

// Name implements Strategy.
func (Carry) Name() string { return NameCarry }

// Step implements Strategy.
func (c Carry) Step(p Predictor, st State) (float64, State, error) {
	yhat, err := p.PredictOne(features.ValueVector(c.Last))
	if err != nil {
		return 0, State{}, err
	}
	next := st
	next.Month = domain.AddMonths(st.Month, 1)
	return yhat, next, nil
}

// New builds the named strategy. lastValue is only used by "carry".
func New(name string, lastValue float64) (Strategy, error) {
	switch name {
	case NameRecursive:
		return Recursive{}, nil
	case NameCarry:
		return Carry{Last: lastValue}, nil
	default:
		return nil, apperrors.NewModelError("unknown forecast strategy "+name, nil)
	}
}

// SeedFromTest derives the initial state from the test subset tail: the
// three most recent monthly means become the lags, and the forecast starts
// the month after the last test month.
func SeedFromTest(test []domain.FeatureRow) (State, error) {
	if len(test) < 3 {
		return State{}, apperrors.NewModelError(
			"need at least three test months to seed the forecast", nil)
	}
	last := test[len(test)-1]
	return State{
		Lag1:  last.Mean,
		Lag2:  test[len(test)-2].Mean,
		Lag3:  test[len(test)-3].Mean,
		Month: domain.AddMonths(last.Month, 1),
	}, nil
}

// Run executes the recurrence for the given horizon and returns one future
// ForecastRow per step. Rows carry the lag state and calendar features that
// produced them so the export can include the model inputs.
func Run(p Predictor, s Strategy, seed State, horizon int) ([]domain.ForecastRow, error) {
	if horizon <= 0 {
		return nil, apperrors.NewModelError("forecast horizon must be positive", nil)
	}

	rows := make([]domain.ForecastRow, 0, horizon)
	st := seed
	for step := 0; step < horizon; step++ {
		yhat, next, err := s.Step(p, st)
		if err != nil {
			return nil, err
		}
		rows = append(rows, domain.ForecastRow{
			Month:     st.Month,
			Predicted: yhat,
			Future:    true,
			Lag1:      st.Lag1,
			Lag2:      st.Lag2,
			Lag3:      st.Lag3,
			MonthNum:  int(st.Month.Month()),
			Year:      st.Month.Year(),
		})
		st = next
	}
	return rows, nil
}
