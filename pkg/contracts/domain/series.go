package domain

import (
	"time"
)

// RawRecord is a single daily observation read from the source spreadsheet.
// Value may be NaN when the source cell is empty or non-numeric; the
// aggregator is responsible for excluding non-finite values.
type RawRecord struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MonthlyAggregate is the arithmetic mean of all finite daily observations
// within one calendar month. Months with zero finite observations have no
// aggregate at all.
type MonthlyAggregate struct {
	Month time.Time `json:"month"` // first day of the month, UTC
	Mean  float64   `json:"mean"`
	Count int       `json:"count"` // finite observations contributing to Mean
}

// FeatureRow is a MonthlyAggregate extended with lag and calendar features.
// Lag values are only meaningful when HasLags is true; rows built in the
// value-only feature mode leave them zero.
type FeatureRow struct {
	Month    time.Time `json:"month"`
	Mean     float64   `json:"mean"`
	Lag1     float64   `json:"lag_1"`
	Lag2     float64   `json:"lag_2"`
	Lag3     float64   `json:"lag_3"`
	MonthNum int       `json:"month_num"` // 1-12
	Year     int       `json:"year"`
	HasLags  bool      `json:"has_lags"`
}

// ForecastRow pairs a month with a model prediction. Actual is nil for
// future months, which exist only as predictions. Lag and calendar fields
// are populated in the lag feature mode so the export can carry them.
type ForecastRow struct {
	Month     time.Time `json:"month"`
	Actual    *float64  `json:"actual,omitempty"`
	Predicted float64   `json:"predicted"`
	Future    bool      `json:"future"`
	Lag1      float64   `json:"lag_1,omitempty"`
	Lag2      float64   `json:"lag_2,omitempty"`
	Lag3      float64   `json:"lag_3,omitempty"`
	MonthNum  int       `json:"month_num,omitempty"`
	Year      int       `json:"year,omitempty"`
}

// TruncateToMonth returns the first day of t's calendar month in UTC.
func TruncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths advances a first-of-month date by n calendar months.
func AddMonths(month time.Time, n int) time.Time {
	return time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
}

// MonthsBetween returns the number of whole calendar months from a to b.
// Both arguments are expected to be first-of-month dates.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// MonthKey formats a first-of-month date as "YYYY-MM" for logs and exports.
func MonthKey(month time.Time) string {
	return month.Format("2006-01")
}
