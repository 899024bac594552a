// Package pipeline orchestrates one forecasting run end to end: load,
// aggregate, feature build, split, fit, evaluate, extrapolate, export.
// Execution is strictly sequential; the only loop is the forecast
// recurrence, which is order-dependent by definition.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"pricecast/internal/aggregate"
	"pricecast/internal/chart"
	"pricecast/internal/config"
	"pricecast/internal/dataset"
	apperrors "pricecast/internal/errors"
	"pricecast/internal/exporter"
	"pricecast/internal/features"
	"pricecast/internal/forecast"
	"pricecast/internal/infrastructure"
	"pricecast/internal/loader"
	"pricecast/internal/metrics"
	"pricecast/internal/model"
	"pricecast/pkg/contracts/domain"
)

// Result is what one run produces beyond its files.
type Result struct {
	Train     metrics.Report
	Test      metrics.Report
	History   []domain.ForecastRow // train + test months with predictions
	Future    []domain.ForecastRow
	CSVPath   string
	ChartPath string
	Months    int // aggregated months in the source
	Trees     int // boosting rounds actually fitted
}

// Pipeline wires the stages together for one configuration.
type Pipeline struct {
	cfg   *config.Config
	paths *config.Paths
}

// New creates a Pipeline.
func New(cfg *config.Config, paths *config.Paths) *Pipeline {
	return &Pipeline{cfg: cfg, paths: paths}
}

// Run executes the whole pipeline once. Any error is fatal to the run; no
// stage retries, and the exporter guarantees no partial output file.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	logger := infrastructure.LoggerFromContext(ctx)
	started := time.Now()

	// Load.
	inputPath := p.paths.Resolve(p.cfg.Input.File)
	records, err := loader.New(logger).Load(inputPath, loader.Options{
		Sheet:       p.cfg.Input.Sheet,
		DateColumn:  p.cfg.Input.DateColumn,
		ValueColumn: p.cfg.Input.ValueColumn,
	})
	if err != nil {
		return nil, err
	}

	// Aggregate to calendar months.
	aggs := aggregate.Monthly(records)
	if len(aggs) == 0 {
		return nil, apperrors.NewInputError("no month has a finite observation", nil)
	}
	if err := aggregate.CheckGaps(aggs, p.cfg.Input.GapPolicy, logger); err != nil {
		return nil, err
	}
	logger.Info("Aggregated monthly series",
		slog.Int("months", len(aggs)),
		slog.String("first", domain.MonthKey(aggs[0].Month)),
		slog.String("last", domain.MonthKey(aggs[len(aggs)-1].Month)))

	// Features and split.
	mode := p.cfg.Model.Features
	rows := features.Build(aggs, mode)
	if len(rows) == 0 {
		return nil, apperrors.NewModelError("not enough months to build features", nil)
	}
	split, err := dataset.ByCutoff(rows, p.cfg.Split.CutoffDate(), p.cfg.Split.TestEndDate())
	if err != nil {
		return nil, err
	}
	logger.Info("Split series at cutoff",
		slog.Int("train", len(split.Train)),
		slog.Int("test", len(split.Test)),
		slog.Int("later", len(split.Later)))

	// Fit once; the model is immutable afterwards.
	reg := model.NewRegressor(model.Params{
		Iterations:   p.cfg.Model.Iterations,
		LearningRate: p.cfg.Model.LearningRate,
		MaxDepth:     p.cfg.Model.MaxDepth,
		MinLeaf:      p.cfg.Model.MinLeaf,
		Lambda:       p.cfg.Model.Lambda,
	})
	xTrain, yTrain := features.Matrix(split.Train, mode)
	if err := reg.Fit(xTrain, yTrain); err != nil {
		return nil, err
	}
	logger.Info("Fitted gradient boosting model",
		slog.Int("trees", reg.NumTrees()),
		slog.Int("features", features.NumFeatures(mode)))

	// In-sample and test predictions plus the six metrics.
	predTrain, err := reg.Predict(xTrain)
	if err != nil {
		return nil, err
	}
	trainReport, err := metrics.Evaluate(yTrain, predTrain)
	if err != nil {
		return nil, apperrors.NewModelError("failed to evaluate train subset", err)
	}

	xTest, yTest := features.Matrix(split.Test, mode)
	predTest, err := reg.Predict(xTest)
	if err != nil {
		return nil, err
	}
	testReport, err := metrics.Evaluate(yTest, predTest)
	if err != nil {
		return nil, apperrors.NewModelError("failed to evaluate test subset", err)
	}
	if r2, err := metrics.R2(yTest, predTest); err == nil {
		logger.Info("Test diagnostics", slog.Float64("r2", r2))
	}

	// Forecast seed and strategy.
	lastTest := split.Test[len(split.Test)-1]
	strategy, err := forecast.New(p.cfg.Forecast.Strategy, lastTest.Mean)
	if err != nil {
		return nil, err
	}
	var seed forecast.State
	if p.cfg.Forecast.Strategy == config.StrategyRecursive {
		seed, err = forecast.SeedFromTest(split.Test)
		if err != nil {
			return nil, err
		}
	} else {
		seed = forecast.State{Month: domain.AddMonths(lastTest.Month, 1)}
	}

	future, err := forecast.Run(reg, strategy, seed, p.cfg.Forecast.Horizon)
	if err != nil {
		return nil, err
	}
	logger.Info("Extrapolated beyond test window",
		slog.String("strategy", strategy.Name()),
		slog.Int("horizon", len(future)),
		slog.String("first_month", domain.MonthKey(future[0].Month)))

	// Assemble the full table: history first, then future.
	history := make([]domain.ForecastRow, 0, len(split.Train)+len(split.Test))
	history = appendHistory(history, split.Train, vecValues(predTrain))
	history = appendHistory(history, split.Test, vecValues(predTest))

	result := &Result{
		Train:   trainReport,
		Test:    testReport,
		History: history,
		Future:  future,
		Months:  len(aggs),
		Trees:   reg.NumTrees(),
	}

	// Export.
	all := make([]domain.ForecastRow, 0, len(history)+len(future))
	all = append(all, history...)
	all = append(all, future...)

	result.CSVPath = p.paths.Resolve(p.cfg.Output.CSV)
	csvErr := exporter.NewCSVWriter(logger).Write(result.CSVPath, all, exporter.WriteOptions{
		WithFeatures: mode == config.FeaturesLags,
		BOMPrefix:    true,
	})
	if csvErr != nil {
		return nil, csvErr
	}

	if p.cfg.Output.Chart != "" {
		result.ChartPath = p.paths.Resolve(p.cfg.Output.Chart)
		if err := chart.New(logger).Render(result.ChartPath, history, future, testReport.RMSE); err != nil {
			return nil, err
		}
	}

	logger.Info("Pipeline complete",
		slog.Duration("elapsed", time.Since(started)),
		slog.Float64("test_rmse", testReport.RMSE))
	return result, nil
}

// appendHistory zips feature rows with their predictions.
func appendHistory(dst []domain.ForecastRow, rows []domain.FeatureRow, pred []float64) []domain.ForecastRow {
	for i, row := range rows {
		actual := row.Mean
		dst = append(dst, domain.ForecastRow{
			Month:     row.Month,
			Actual:    &actual,
			Predicted: pred[i],
			Lag1:      row.Lag1,
			Lag2:      row.Lag2,
			Lag3:      row.Lag3,
			MonthNum:  row.MonthNum,
			Year:      row.Year,
		})
	}
	return dst
}

// vecValues copies a prediction vector into a plain slice.
func vecValues(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
