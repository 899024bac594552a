// Package chart renders the actual-versus-forecast comparison image.
package chart

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	apperrors "pricecast/internal/errors"
	"pricecast/pkg/contracts/domain"
)

// historyWindow is how many trailing historical months are drawn.
const historyWindow = 12

// Renderer draws the comparison chart.
type Renderer struct {
	logger *slog.Logger
}

// New creates a Renderer.
func New(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// Render writes a PNG with three series over the final year of history:
// actual monthly means, the model's historical predictions, and the future
// forecast, plus a connecting segment from the last historical point to the
// first future point and a label with the test RMSE. Only the structure is
// contractual; styling is cosmetic.
func (r *Renderer) Render(path string, history, future []domain.ForecastRow, testRMSE float64) error {
	if len(history) == 0 || len(future) == 0 {
		return apperrors.NewOutputError("chart needs both history and future rows", nil)
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	p := plot.New()
	p.Title.Text = "Monthly average: actual vs predicted"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Average price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}

	actual := make(plotter.XYs, 0, len(history))
	predicted := make(plotter.XYs, 0, len(history))
	for _, row := range history {
		x := float64(row.Month.Unix())
		if row.Actual != nil {
			actual = append(actual, plotter.XY{X: x, Y: *row.Actual})
		}
		predicted = append(predicted, plotter.XY{X: x, Y: row.Predicted})
	}

	forecastPts := make(plotter.XYs, 0, len(future))
	for _, row := range future {
		forecastPts = append(forecastPts, plotter.XY{X: float64(row.Month.Unix()), Y: row.Predicted})
	}

	actualLine, err := plotter.NewLine(actual)
	if err != nil {
		return apperrors.NewOutputError("failed to build actual series", err)
	}
	actualLine.Color = color.RGBA{B: 255, A: 255}

	predictedLine, err := plotter.NewLine(predicted)
	if err != nil {
		return apperrors.NewOutputError("failed to build predicted series", err)
	}
	predictedLine.Color = color.RGBA{R: 230, G: 140, A: 255}
	predictedLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	forecastLine, err := plotter.NewLine(forecastPts)
	if err != nil {
		return apperrors.NewOutputError("failed to build forecast series", err)
	}
	forecastLine.Color = color.RGBA{R: 200, A: 255}

	// Bridge the gap between the last historical point and the first
	// future point so the forecast reads as a continuation.
	lastHist := history[len(history)-1]
	connector, err := plotter.NewLine(plotter.XYs{
		{X: float64(lastHist.Month.Unix()), Y: lastHist.Predicted},
		{X: forecastPts[0].X, Y: forecastPts[0].Y},
	})
	if err != nil {
		return apperrors.NewOutputError("failed to build connector", err)
	}
	connector.Color = color.RGBA{R: 200, A: 255}
	connector.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}

	annotation, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: forecastPts[0].X, Y: forecastPts[0].Y}},
		Labels: []string{fmt.Sprintf("test RMSE %.3f", testRMSE)},
	})
	if err != nil {
		return apperrors.NewOutputError("failed to build annotation", err)
	}

	p.Add(actualLine, predictedLine, forecastLine, connector, annotation)
	p.Legend.Add("actual", actualLine)
	p.Legend.Add("predicted", predictedLine)
	p.Legend.Add("forecast", forecastLine)
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewOutputError("failed to create chart directory", err)
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return apperrors.NewOutputError("failed to save chart to "+path, err)
	}

	r.logger.Info("Rendered forecast chart",
		slog.String("path", path),
		slog.Int("history_months", len(history)),
		slog.Int("future_months", len(future)))
	return nil
}
