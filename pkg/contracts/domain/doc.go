// Package domain defines the data model shared across the pipeline stages:
// raw daily records, monthly aggregates, engineered feature rows, and
// forecast rows, plus the first-of-month date helpers they rely on.
//
// All entities are derived once per run and never mutated after creation;
// the only late-bound field is the prediction attached to a ForecastRow.
package domain
