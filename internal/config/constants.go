package config

// dateLayout is the boundary date format used in the config file.
const dateLayout = "2006-01-02"

// Gap policies for the aggregated monthly series.
const (
	GapPolicyFail = "fail"
	GapPolicyWarn = "warn"
)

// Feature modes for the regression model.
const (
	// FeaturesLags regresses each month on its three prior monthly means
	// plus month-of-year and year.
	FeaturesLags = "lags"
	// FeaturesValue regresses the monthly mean on itself: a curve fit with
	// no predictive feature, kept for parity with the original analysis.
	FeaturesValue = "value"
)

// Forecast strategies.
const (
	// StrategyRecursive feeds each prediction back in as the next step's
	// first lag.
	StrategyRecursive = "recursive"
	// StrategyCarry replays the last observed test value as the model
	// input for every future step.
	StrategyCarry = "carry"
)
