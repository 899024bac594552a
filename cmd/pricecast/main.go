// Command pricecast runs the monthly price forecasting pipeline once:
// load the daily spreadsheet, aggregate to months, fit the boosted model,
// report accuracy, extrapolate, and export CSV plus chart.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"pricecast/internal/config"
	"pricecast/internal/infrastructure"
	"pricecast/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults to pricecast.yaml next to the executable)")
	input := flag.String("input", "", "input spreadsheet path (overrides config)")
	out := flag.String("out", "", "output CSV path (overrides config)")
	chartOut := flag.String("chart", "", "output chart path (overrides config)")
	strategy := flag.String("strategy", "", "forecast strategy: recursive | carry (overrides config)")
	horizon := flag.Int("horizon", 0, "forecast horizon in months (overrides config)")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if *configPath == "" {
		*configPath = filepath.Join(paths.ExecutableDir, "pricecast.yaml")
	}
	cfg, err := config.Load(*configPath, func(c *config.Config) {
		if *input != "" {
			c.Input.File = *input
		}
		if *out != "" {
			c.Output.CSV = *out
		}
		if *chartOut != "" {
			c.Output.Chart = *chartOut
		}
		if *strategy != "" {
			c.Forecast.Strategy = *strategy
		}
		if *horizon > 0 {
			c.Forecast.Horizon = *horizon
		}
	})
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logCfg := cfg.Logging
	logCfg.FilePath = paths.Resolve(logCfg.FilePath)
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	runID := uuid.NewString()
	ctx := infrastructure.WithRunID(context.Background(), runID)

	logger.InfoContext(ctx, "Starting forecast run",
		slog.String("input", cfg.Input.File),
		slog.String("value_column", cfg.Input.ValueColumn),
		slog.String("strategy", cfg.Forecast.Strategy),
		slog.Int("horizon", cfg.Forecast.Horizon),
		slog.String("cutoff", cfg.Split.Cutoff),
		slog.String("test_end", cfg.Split.TestEnd))

	result, err := pipeline.New(cfg, paths).Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Forecast run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	printSummary(os.Stdout, result)

	logger.InfoContext(ctx, "Forecast run complete",
		slog.String("csv", result.CSVPath),
		slog.String("chart", result.ChartPath),
		slog.Int("months", result.Months))
}

// printSummary writes the six metrics in their fixed order, then the
// future months.
func printSummary(w io.Writer, result *pipeline.Result) {
	fmt.Fprintf(w, "Train MAE:  %.6f\n", result.Train.MAE)
	fmt.Fprintf(w, "Train MSE:  %.6f\n", result.Train.MSE)
	fmt.Fprintf(w, "Train RMSE: %.6f\n", result.Train.RMSE)
	fmt.Fprintf(w, "Test MAE:   %.6f\n", result.Test.MAE)
	fmt.Fprintf(w, "Test MSE:   %.6f\n", result.Test.MSE)
	fmt.Fprintf(w, "Test RMSE:  %.6f\n", result.Test.RMSE)

	fmt.Fprintf(w, "\nForecast (%d months):\n", len(result.Future))
	for _, row := range result.Future {
		fmt.Fprintf(w, "  %s  %.6f\n", row.Month.Format("2006-01"), row.Predicted)
	}
}
